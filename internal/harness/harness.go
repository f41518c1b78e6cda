package harness

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/expect"
	"github.com/roach88/cuetest/internal/ir"
	"github.com/roach88/cuetest/internal/processors"
	"github.com/roach88/cuetest/internal/testutil"
)

// Harness runs scenarios. The zero value is not usable; call New.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed on to the compiler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Harness that logs nothing unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run compiles the scenario's sources and checks its expectations.
//
// An error is returned only when the scenario cannot be executed: a source
// is unreadable, a processor is unknown, or the compiler itself fails. A
// processor failure is returned as the compiler reported it. Unmet
// expectations are recorded in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	sources, err := scenario.LoadSources()
	if err != nil {
		return nil, err
	}
	procs, err := processors.Resolve(scenario.Processors)
	if err != nil {
		return nil, err
	}
	generated, err := scenario.LoadGenerated()
	if err != nil {
		return nil, err
	}

	c := compiler.New(
		compiler.WithProcessors(procs...),
		compiler.WithOptions(scenario.Options...),
		compiler.WithLogger(h.logger),
		compiler.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.ID)),
	)

	h.logger.Debug("running scenario", "scenario", scenario.Name, "sources", len(sources))
	comp, err := c.Compile(ctx, sources...)
	if err != nil {
		return nil, err
	}

	cmp, err := comparator(scenario.Expect.Equivalence)
	if err != nil {
		return nil, err
	}

	col := expect.NewCollector()
	Evaluate(comp, scenario.Expect, generated, cmp, col)

	result := NewResult()
	result.Compilation = comp
	for _, e := range col.Errors() {
		result.AddError(e.Error())
	}
	h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

// comparator builds the comparator for generated sources, or returns nil
// to use the default of each file's grammar.
func comparator(eq *Equivalence) (*equiv.Comparator, error) {
	if eq == nil {
		return nil, nil
	}
	name := eq.Grammar
	if name == "" {
		name = "cue"
	}
	g, err := equiv.LookupGrammar(name)
	if err != nil {
		return nil, err
	}
	var opts []equiv.Option
	if eq.IgnoreFieldOrder {
		opts = append(opts, equiv.IgnoreFieldOrder())
	}
	if eq.IgnoreAttributeArgOrder {
		opts = append(opts, equiv.IgnoreAttributeArgOrder())
	}
	return equiv.NewComparator(g, opts...), nil
}

// Evaluate checks every expectation against comp, reporting each unmet one
// to s. Expectations are independent chains, so a failure in one does not
// hide the others when s is a Collector.
func Evaluate(comp *ir.Compilation, e Expectation, generated []ir.Source, cmp *equiv.Comparator, s expect.FailureStrategy) {
	that := func() *expect.CompilationSubject {
		subject := expect.That(comp, s)
		if cmp != nil {
			subject = subject.WithComparator(cmp)
		}
		return subject
	}

	switch e.Status {
	case StatusSucceeded:
		that().Succeeded()
	case StatusFailed:
		that().Failed()
	case StatusWithoutWarnings:
		that().SucceededWithoutWarnings()
	}

	if e.Errors != nil {
		that().HadErrorCount(*e.Errors)
	}
	if e.Warnings != nil {
		that().HadWarningCount(*e.Warnings)
	}
	if e.Notes != nil {
		that().HadNoteCount(*e.Notes)
	}

	for _, d := range e.Diagnostics {
		// Validation guarantees file before line before column.
		m := matchDiagnostic(that(), d)
		if d.File == "" {
			continue
		}
		m = m.In(d.File)
		if d.Line == 0 {
			continue
		}
		m = m.OnLine(d.Line)
		if d.Column > 0 {
			m.AtColumn(d.Column)
		}
	}

	for _, src := range generated {
		that().GeneratedSourceEquivalentTo(src)
	}
}

func matchDiagnostic(subject *expect.CompilationSubject, d DiagnosticExpectation) *expect.DiagnosticMatch {
	kind, anyKind, err := diagnosticKind(d.Kind)
	if err != nil || anyKind {
		return subject.HadDiagnosticContaining(d.Contains)
	}
	switch kind {
	case ir.KindError:
		return subject.HadErrorContaining(d.Contains)
	case ir.KindWarning:
		return subject.HadWarningContaining(d.Contains)
	case ir.KindNote:
		return subject.HadNoteContaining(d.Contains)
	case ir.KindOther:
	}
	return subject.HadDiagnosticContaining(d.Contains)
}
