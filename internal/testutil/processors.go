package testutil

import (
	"context"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
)

// GeneratingProcessor creates file with content in the first round.
//
// Whether it ran is read from the compilation's ProcessorRun record, not
// from state captured by the processor.
func GeneratingProcessor(name, file, content string) compiler.Processor {
	return compiler.ProcessorFunc{ID: name, Fn: func(ctx context.Context, r *compiler.Round) error {
		if r.Number() != 1 {
			return nil
		}
		return r.Filer().Create(file, content)
	}}
}

// FailingProcessor returns err from its first round.
func FailingProcessor(name string, err error) compiler.Processor {
	return compiler.ProcessorFunc{ID: name, Fn: func(context.Context, *compiler.Round) error {
		return err
	}}
}

// PanickingProcessor panics with v.
func PanickingProcessor(name string, v any) compiler.Processor {
	return compiler.ProcessorFunc{ID: name, Fn: func(context.Context, *compiler.Round) error {
		panic(v)
	}}
}

// ReportingProcessor prints msg with kind in every round, unpositioned.
func ReportingProcessor(name string, kind ir.Kind, msg string) compiler.Processor {
	return compiler.ProcessorFunc{ID: name, Fn: func(ctx context.Context, r *compiler.Round) error {
		r.Messager().Print(kind, msg)
		return nil
	}}
}
