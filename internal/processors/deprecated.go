package processors

import (
	"context"
	"fmt"

	"cuelang.org/go/cue/ast"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
)

const DeprecatedName = "deprecated"

// Deprecated reports a warning for every field carrying @deprecated. The
// attribute body, when present, is appended as the reason.
type Deprecated struct{}

func (Deprecated) Name() string { return DeprecatedName }

func (Deprecated) Process(ctx context.Context, r *compiler.Round) error {
	for _, file := range r.Files() {
		walkFields(file, func(f *ast.Field) {
			reason, ok := fieldAttr(f, "deprecated")
			if !ok {
				return
			}
			msg := fmt.Sprintf("field %s is deprecated", labelName(f))
			if reason != "" {
				msg += ": " + unquoteAttr(reason)
			}
			r.Messager().PrintAt(ir.KindWarning, msg, f.Pos())
		})
	}
	return nil
}
