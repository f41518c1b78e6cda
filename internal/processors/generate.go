package processors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/format"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
)

const GenerateName = "generate"

// Generate creates one source file per top-level field marked
// @generate(Name). The file is named Name and defines #Name with the
// field's value:
//
//	person: {name: string} @generate(Person)
//
// produces
//
//	// #Person is generated from person.
//	#Person: {name: string}
//
// Only top-level fields are considered, so generated files never trigger
// further generation.
type Generate struct{}

func (Generate) Name() string { return GenerateName }

func (Generate) Process(ctx context.Context, r *compiler.Round) error {
	for _, file := range r.Files() {
		for _, decl := range file.Decls {
			f, ok := decl.(*ast.Field)
			if !ok {
				continue
			}
			arg, ok := fieldAttr(f, "generate")
			if !ok {
				continue
			}
			name := unquoteAttr(arg)
			if name == "" || !ast.IsValidIdent("#"+name) {
				r.Messager().PrintAt(ir.KindError,
					fmt.Sprintf("invalid @generate name %q on field %s", name, labelName(f)), f.Pos())
				continue
			}

			content, err := generatedSource(r.Package(), labelName(f), name, f.Value)
			if err != nil {
				return fmt.Errorf("generate %s: %w", name, err)
			}
			if err := r.Filer().Create(name, content); err != nil {
				var exists *compiler.FileExistsError
				if errors.As(err, &exists) {
					// Already reported by the filer.
					continue
				}
				return err
			}
		}
	}
	return nil
}

func generatedSource(pkg, from, name string, value ast.Expr) (string, error) {
	body, err := format.Node(value)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if pkg != "" {
		fmt.Fprintf(&b, "package %s\n\n", pkg)
	}
	fmt.Fprintf(&b, "// #%s is generated from %s.\n", name, from)
	fmt.Fprintf(&b, "#%s: %s\n", name, body)
	return b.String(), nil
}
