package processors

import (
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/literal"
)

// fieldAttr returns the body of the first @key(...) attribute on f.
func fieldAttr(f *ast.Field, key string) (body string, found bool) {
	for _, a := range f.Attrs {
		k, b := a.Split()
		if k == key {
			return strings.TrimSpace(b), true
		}
	}
	return "", false
}

// labelName renders a field label for messages. Labels that are not
// simple names, such as pattern constraints, yield "".
func labelName(f *ast.Field) string {
	name, _, err := ast.LabelName(f.Label)
	if err != nil {
		return ""
	}
	return name
}

// walkFields calls fn for every field in file, nested ones included.
func walkFields(file *ast.File, fn func(*ast.Field)) {
	ast.Walk(file, func(n ast.Node) bool {
		if f, ok := n.(*ast.Field); ok {
			fn(f)
		}
		return true
	}, nil)
}

// unquoteAttr strips quotes from a quoted attribute argument.
func unquoteAttr(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '#') {
		if u, err := literal.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
