package equiv

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cuetest/internal/ir"
)

// CUE is the grammar of CUE source files.
//
// Beyond dropping comments it canonicalizes:
//   - parentheses around expressions
//   - numeric literals (0x10 and 16 are equal; 1e3 and 1000.0 are equal;
//     an int never equals a float)
//   - string literals, compared by their unquoted NFC text
//   - the order of imports
//
// Quoted labels stay distinct from identifier labels: only identifiers
// bind in scope.
type CUE struct{}

func (CUE) Name() string { return "cue" }

func (CUE) Parse(src ir.Source) (*Node, error) {
	f, err := parser.ParseFile(src.Filename(), src.Content, parser.ParseComments, parser.AllErrors)
	if err != nil {
		return nil, err
	}
	c := &cueConverter{}
	n := c.file(f)
	if c.err != nil {
		return nil, c.err
	}
	return n, nil
}

type cueConverter struct {
	err error
}

func (c *cueConverter) fail(pos token.Pos, format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: %s", pos, fmt.Sprintf(format, args...))
	}
}

func cuePos(p token.Pos) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{Line: p.Line(), Column: p.Column()}
}

func (c *cueConverter) file(f *ast.File) *Node {
	root := &Node{Kind: "file", Order: MemberOrder, Pos: cuePos(f.Pos())}
	var imports *Node
	for _, d := range f.Decls {
		switch x := d.(type) {
		case *ast.CommentGroup:
		case *ast.ImportDecl:
			if imports == nil {
				imports = &Node{Kind: "imports", Order: Unordered, Pos: cuePos(x.Pos())}
				root.Children = append(root.Children, imports)
			}
			for _, spec := range x.Specs {
				imports.Children = append(imports.Children, c.importSpec(spec))
			}
		default:
			if n := c.decl(d); n != nil {
				root.Children = append(root.Children, n)
			}
		}
	}
	return root
}

func (c *cueConverter) importSpec(spec *ast.ImportSpec) *Node {
	p, err := literal.Unquote(spec.Path.Value)
	if err != nil {
		c.fail(spec.Pos(), "invalid import path %s", spec.Path.Value)
	}
	n := &Node{Kind: "import", Value: p, Name: p, Pos: cuePos(spec.Pos())}
	if spec.Name != nil {
		n.Value = spec.Name.Name + " " + p
	}
	return n
}

func (c *cueConverter) decl(d ast.Decl) *Node {
	switch x := d.(type) {
	case *ast.CommentGroup:
		return nil
	case *ast.Package:
		return &Node{Kind: "package", Value: x.Name.Name, Pos: cuePos(x.Pos())}
	case *ast.Field:
		return c.field(x)
	case *ast.EmbedDecl:
		return &Node{Kind: "embed", Pos: cuePos(x.Pos()), Children: []*Node{c.expr(x.Expr)}}
	case *ast.LetClause:
		return c.let(x)
	case *ast.Attribute:
		return c.attribute(x)
	case *ast.Comprehension:
		return c.comprehension(x)
	case *ast.Ellipsis:
		return c.ellipsis(x)
	case *ast.BadDecl:
		c.fail(x.Pos(), "bad declaration")
		return &Node{Kind: "bad"}
	}
	// Remaining declaration kinds, like aliases, are expressions too.
	if e, ok := d.(ast.Expr); ok {
		return c.expr(e)
	}
	c.fail(d.Pos(), "unsupported declaration %T", d)
	return &Node{Kind: fmt.Sprintf("%T", d)}
}

func (c *cueConverter) field(f *ast.Field) *Node {
	n := &Node{Kind: "field", Pos: cuePos(f.Pos())}
	switch f.Constraint {
	case token.OPTION:
		n.Value = "?"
	case token.NOT:
		n.Value = "!"
	}
	if name, _, err := ast.LabelName(f.Label); err == nil {
		n.Name = name
	}

	label := c.label(f.Label)
	label.Role = "label"
	value := c.expr(f.Value)
	value.Role = "value"
	n.Children = append(n.Children, label, value)
	for _, a := range f.Attrs {
		n.Children = append(n.Children, c.attribute(a))
	}
	return n
}

// label converts a field label. Unlike expressions, parenthesized labels
// are dynamic and keep their parentheses.
func (c *cueConverter) label(l ast.Label) *Node {
	switch x := l.(type) {
	case *ast.ParenExpr:
		return &Node{Kind: "dynamic", Pos: cuePos(x.Pos()), Children: []*Node{c.expr(x.X)}}
	case *ast.Alias:
		n := &Node{Kind: "alias", Value: x.Ident.Name, Pos: cuePos(x.Pos())}
		if inner, ok := x.Expr.(ast.Label); ok {
			n.Children = []*Node{c.label(inner)}
		} else {
			n.Children = []*Node{c.expr(x.Expr)}
		}
		return n
	case ast.Expr:
		return c.expr(x)
	}
	c.fail(l.Pos(), "unsupported label %T", l)
	return &Node{Kind: fmt.Sprintf("%T", l)}
}

func (c *cueConverter) let(x *ast.LetClause) *Node {
	return &Node{
		Kind:     "let",
		Value:    x.Ident.Name,
		Name:     x.Ident.Name,
		Pos:      cuePos(x.Pos()),
		Children: []*Node{c.expr(x.Expr)},
	}
}

func (c *cueConverter) attribute(a *ast.Attribute) *Node {
	key, body := a.Split()
	n := &Node{Kind: "attribute", Value: key, Name: "@" + key, Order: ArgumentOrder, Pos: cuePos(a.Pos())}
	if key == "" {
		// Malformed attributes are compared verbatim.
		n.Value = a.Text
		n.Order = Ordered
		return n
	}
	n.Children = splitAttrArgs(body)
	return n
}

// splitAttrArgs splits an attribute body on top-level commas. Quoted
// values are unquoted; surrounding spaces are dropped.
func splitAttrArgs(body string) []*Node {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	var (
		args  []*Node
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case ch == ',' && depth == 0:
			args = append(args, normalizeAttrArg(body[start:i]))
			start = i + 1
		}
	}
	return append(args, normalizeAttrArg(body[start:]))
}

// normalizeAttrArg turns one argument into an "arg" node, or an "option"
// node for key=value. Only an identifier before the first '=' is a key, so
// a quoted argument containing '=' stays positional.
func normalizeAttrArg(arg string) *Node {
	arg = strings.TrimSpace(arg)
	key, value, hasKey := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !hasKey || !ast.IsValidIdent(key) {
		return &Node{Kind: "arg", Value: unquoteArg(arg)}
	}
	return &Node{Kind: "option", Name: key, Value: key + "=" + unquoteArg(strings.TrimSpace(value))}
}

func unquoteArg(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '#') {
		if u, err := literal.Unquote(s); err == nil {
			return norm.NFC.String(u)
		}
	}
	return s
}

func (c *cueConverter) comprehension(x *ast.Comprehension) *Node {
	n := &Node{Kind: "comprehension", Pos: cuePos(x.Pos())}
	for _, cl := range x.Clauses {
		n.Children = append(n.Children, c.clause(cl))
	}
	value := c.expr(x.Value)
	value.Role = "value"
	n.Children = append(n.Children, value)
	return n
}

func (c *cueConverter) clause(cl ast.Clause) *Node {
	switch x := cl.(type) {
	case *ast.ForClause:
		vars := x.Value.Name
		if x.Key != nil {
			vars = x.Key.Name + ", " + vars
		}
		src := c.expr(x.Source)
		src.Role = "source"
		return &Node{Kind: "for", Value: vars, Pos: cuePos(x.Pos()), Children: []*Node{src}}
	case *ast.IfClause:
		cond := c.expr(x.Condition)
		cond.Role = "condition"
		return &Node{Kind: "if", Pos: cuePos(x.Pos()), Children: []*Node{cond}}
	case *ast.LetClause:
		return c.let(x)
	}
	c.fail(cl.Pos(), "unsupported clause %T", cl)
	return &Node{Kind: fmt.Sprintf("%T", cl)}
}

func (c *cueConverter) ellipsis(x *ast.Ellipsis) *Node {
	n := &Node{Kind: "ellipsis", Pos: cuePos(x.Pos())}
	if x.Type != nil {
		n.Children = []*Node{c.expr(x.Type)}
	}
	return n
}

func (c *cueConverter) exprs(role string, list []ast.Expr) []*Node {
	out := make([]*Node, 0, len(list))
	for _, e := range list {
		n := c.expr(e)
		if role != "" {
			n.Role = role
		}
		out = append(out, n)
	}
	return out
}

func (c *cueConverter) expr(e ast.Expr) *Node {
	if e == nil {
		return &Node{Kind: "none"}
	}
	pos := cuePos(e.Pos())

	switch x := e.(type) {
	case *ast.ParenExpr:
		return c.expr(x.X)

	case *ast.Ident:
		return &Node{Kind: "ident", Value: x.Name, Pos: pos}

	case *ast.BasicLit:
		return c.basicLit(x)

	case *ast.BottomLit:
		return &Node{Kind: "bottom", Pos: pos}

	case *ast.StructLit:
		n := &Node{Kind: "struct", Order: MemberOrder, Pos: pos}
		for _, d := range x.Elts {
			if m := c.decl(d); m != nil {
				n.Children = append(n.Children, m)
			}
		}
		return n

	case *ast.ListLit:
		return &Node{Kind: "list", Pos: pos, Children: c.exprs("", x.Elts)}

	case *ast.Ellipsis:
		return c.ellipsis(x)

	case *ast.Interpolation:
		return c.interpolation(x)

	case *ast.UnaryExpr:
		return &Node{Kind: "unary", Value: x.Op.String(), Pos: pos, Children: []*Node{c.expr(x.X)}}

	case *ast.BinaryExpr:
		l := c.expr(x.X)
		l.Role = "x"
		r := c.expr(x.Y)
		r.Role = "y"
		return &Node{Kind: "binary", Value: x.Op.String(), Pos: pos, Children: []*Node{l, r}}

	case *ast.SelectorExpr:
		sel, _, err := ast.LabelName(x.Sel)
		if err != nil {
			c.fail(x.Sel.Pos(), "invalid selector")
		}
		return &Node{Kind: "selector", Value: sel, Pos: pos, Children: []*Node{c.expr(x.X)}}

	case *ast.IndexExpr:
		idx := c.expr(x.Index)
		idx.Role = "index"
		return &Node{Kind: "index", Pos: pos, Children: []*Node{c.expr(x.X), idx}}

	case *ast.SliceExpr:
		low := c.expr(x.Low)
		low.Role = "low"
		high := c.expr(x.High)
		high.Role = "high"
		return &Node{Kind: "slice", Pos: pos, Children: []*Node{c.expr(x.X), low, high}}

	case *ast.CallExpr:
		fn := c.expr(x.Fun)
		fn.Role = "func"
		return &Node{Kind: "call", Pos: pos, Children: append([]*Node{fn}, c.exprs("", x.Args)...)}

	case *ast.Comprehension:
		return c.comprehension(x)

	case *ast.Alias:
		return &Node{Kind: "alias", Value: x.Ident.Name, Pos: pos, Children: []*Node{c.expr(x.Expr)}}

	case *ast.Func:
		n := &Node{Kind: "func", Pos: pos, Children: c.exprs("arg", x.Args)}
		ret := c.expr(x.Ret)
		ret.Role = "result"
		n.Children = append(n.Children, ret)
		return n

	case *ast.BadExpr:
		c.fail(x.Pos(), "bad expression")
		return &Node{Kind: "bad", Pos: pos}
	}

	c.fail(e.Pos(), "unsupported expression %T", e)
	return &Node{Kind: fmt.Sprintf("%T", e), Pos: pos}
}

func (c *cueConverter) basicLit(x *ast.BasicLit) *Node {
	pos := cuePos(x.Pos())
	switch x.Kind {
	case token.INT, token.FLOAT:
		kind := "int"
		if x.Kind == token.FLOAT {
			kind = "float"
		}
		v, err := canonicalNumber(x.Value)
		if err != nil {
			c.fail(x.Pos(), "%v", err)
			v = x.Value
		}
		return &Node{Kind: kind, Value: v, Pos: pos}

	case token.STRING:
		kind := "string"
		if strings.HasPrefix(strings.TrimLeft(x.Value, "#"), "'") {
			kind = "bytes"
		}
		s, err := literal.Unquote(x.Value)
		if err != nil {
			c.fail(x.Pos(), "invalid string literal %s", x.Value)
			s = x.Value
		}
		return &Node{Kind: kind, Value: norm.NFC.String(s), Pos: pos}

	case token.NULL:
		return &Node{Kind: "null", Pos: pos}

	case token.TRUE, token.FALSE:
		return &Node{Kind: "bool", Value: x.Value, Pos: pos}
	}
	return &Node{Kind: "literal", Value: x.Value, Pos: pos}
}

// canonicalNumber reduces a CUE number literal to its shortest decimal
// form, so that 0x10, 0o20, 16 and 1_6 all map to "16".
func canonicalNumber(lit string) (string, error) {
	var info literal.NumInfo
	if err := literal.ParseNum(lit, &info); err != nil {
		return "", err
	}
	var d apd.Decimal
	if err := info.Decimal(&d); err != nil {
		return "", err
	}
	var reduced apd.Decimal
	reduced.Reduce(&d)
	return reduced.String(), nil
}

// interpolation compares the unquoted text fragments and the embedded
// expressions of an interpolated string.
func (c *cueConverter) interpolation(x *ast.Interpolation) *Node {
	n := &Node{Kind: "interpolation", Pos: cuePos(x.Pos())}
	if len(x.Elts) == 0 {
		return n
	}
	first, ok1 := x.Elts[0].(*ast.BasicLit)
	last, ok2 := x.Elts[len(x.Elts)-1].(*ast.BasicLit)
	if !ok1 || !ok2 {
		c.fail(x.Pos(), "invalid interpolation")
		return n
	}
	info, prefixLen, _, err := literal.ParseQuotes(first.Value, last.Value)
	if err != nil {
		c.fail(x.Pos(), "invalid interpolation: %v", err)
		return n
	}
	if !info.IsDouble() {
		n.Kind = "bytes-interpolation"
	}

	for i, e := range x.Elts {
		if i%2 == 1 {
			n.Children = append(n.Children, c.expr(e))
			continue
		}
		lit, ok := e.(*ast.BasicLit)
		if !ok {
			c.fail(e.Pos(), "invalid interpolation fragment")
			continue
		}
		text, err := info.Unquote(lit.Value[prefixLen:])
		if err != nil {
			c.fail(lit.Pos(), "invalid interpolation fragment: %v", err)
		}
		n.Children = append(n.Children, &Node{Kind: "text", Value: norm.NFC.String(text), Pos: cuePos(lit.Pos())})
		prefixLen = 1
	}
	return n
}
