package processors

import (
	"context"
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
)

const RequireDocName = "require-doc"

// RequireDoc reports top-level definitions that have no doc comment. The
// report is a note unless the processor option require-doc=strict is set,
// in which case it is an error.
type RequireDoc struct{}

func (RequireDoc) Name() string { return RequireDocName }

func (RequireDoc) Process(ctx context.Context, r *compiler.Round) error {
	kind := ir.KindNote
	if mode, _ := r.Option(RequireDocName); mode == "strict" {
		kind = ir.KindError
	}

	for _, file := range r.Files() {
		for _, decl := range file.Decls {
			f, ok := decl.(*ast.Field)
			if !ok {
				continue
			}
			name := labelName(f)
			if !strings.HasPrefix(name, "#") || hasDoc(f) {
				continue
			}
			r.Messager().PrintAt(kind, fmt.Sprintf("definition %s has no doc comment", name), f.Pos())
		}
	}
	return nil
}

func hasDoc(f *ast.Field) bool {
	for _, cg := range ast.Comments(f) {
		if cg.Doc || cg.Position == 0 {
			return true
		}
	}
	return false
}
