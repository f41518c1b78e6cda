package compiler

import (
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cuetest/internal/ir"
)

// diagnosticsFromError converts a CUE error, which may hold several
// errors, into diagnostics of the given kind in the order CUE reports them.
func diagnosticsFromError(kind ir.Kind, err error) []ir.Diagnostic {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []ir.Diagnostic{{Kind: kind, Message: err.Error()}}
	}

	out := make([]ir.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, diagnosticFromError(kind, e))
	}
	return out
}

func diagnosticFromError(kind ir.Kind, e errors.Error) ir.Diagnostic {
	pos := e.Position()
	if !pos.IsValid() {
		// Evaluation errors often carry only input positions.
		if positions := errors.Positions(e); len(positions) > 0 {
			pos = positions[0]
		}
	}
	// errors.String prefixes the value path, e.g. "a.b: conflicting values".
	return diagnosticAt(kind, errors.String(e), pos)
}

// diagnosticAt builds a diagnostic positioned at pos. An invalid position
// yields a diagnostic without a source.
func diagnosticAt(kind ir.Kind, msg string, pos token.Pos) ir.Diagnostic {
	d := ir.Diagnostic{Kind: kind, Message: msg}
	if !pos.IsValid() {
		return d
	}
	d.Source = pos.Filename()
	if line := pos.Line(); line > 0 {
		d.Line = line
		if col := pos.Column(); col > 0 {
			d.Column = col
		}
	}
	return d
}
