// Package cuetest is a compile-testing library for CUE.
//
// Tests compile sources with processors and assert on the outcome with a
// fluent, fail-fast chain:
//
//	comp, err := cuetest.Compile(ctx,
//		[]cuetest.Source{cuetest.FromString("Person", src)},
//		cuetest.WithProcessors(myProcessor),
//	)
//	require.NoError(t, err)
//	cuetest.AssertThat(t, comp).
//		Succeeded().
//		HadWarningContaining("deprecated").In("Person").OnLine(3).
//		And().
//		GeneratedSourceEquivalentTo(cuetest.FromString("Contact", want))
//
// A processor's own error is returned by Compile, never reported as an
// assertion failure.
package cuetest

import (
	"context"
	"io/fs"
	"testing"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/expect"
	"github.com/roach88/cuetest/internal/ir"
	"github.com/roach88/cuetest/internal/processors"
)

type (
	Source      = ir.Source
	Diagnostic  = ir.Diagnostic
	Kind        = ir.Kind
	Compilation = ir.Compilation

	Processor      = compiler.Processor
	ProcessorFunc  = compiler.ProcessorFunc
	ProcessorError = compiler.ProcessorError
	Round          = compiler.Round
	Option         = compiler.Option

	Subject         = expect.CompilationSubject
	FailureStrategy = expect.FailureStrategy
	AssertionError  = expect.AssertionError
	UsageError      = expect.UsageError

	Comparator = equiv.Comparator
)

const (
	KindError   = ir.KindError
	KindWarning = ir.KindWarning
	KindNote    = ir.KindNote
	KindOther   = ir.KindOther
)

var (
	WithProcessors = compiler.WithProcessors
	WithOptions    = compiler.WithOptions
	WithLogger     = compiler.WithLogger
	WithMaxRounds  = compiler.WithMaxRounds
)

// FromString creates an inline source. A name without an extension gets
// ".cue" when compiled.
func FromString(name, content string) Source { return ir.FromString(name, content) }

// FromResource reads a source from fsys, typically an embed.FS.
func FromResource(fsys fs.FS, name string) (Source, error) { return ir.FromResource(fsys, name) }

// Compile compiles sources as one instance.
func Compile(ctx context.Context, sources []Source, opts ...Option) (*Compilation, error) {
	return compiler.New(opts...).Compile(ctx, sources...)
}

// Builtin returns the named builtin processor (deprecated, generate, noop,
// require-doc).
func Builtin(name string) (Processor, bool) { return processors.Lookup(name) }

// AssertThat starts an assertion chain that stops the test at the first
// failure.
func AssertThat(t testing.TB, comp *Compilation) *Subject {
	t.Helper()
	return expect.That(comp, expect.Fatal(t))
}

// That starts an assertion chain reporting through s.
func That(comp *Compilation, s FailureStrategy) *Subject { return expect.That(comp, s) }

// NewCollector returns a strategy that records every failure instead of
// stopping.
func NewCollector() *expect.Collector { return expect.NewCollector() }
