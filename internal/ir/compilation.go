package ir

import (
	"fmt"
	"slices"
	"sort"
)

// ProcessorRun records what a processor did during one compilation. Tests
// assert on it instead of on state captured inside the processor.
type ProcessorRun struct {
	Processor   string   `json:"processor"`
	Rounds      int      `json:"rounds"`
	Generated   []string `json:"generated,omitempty"`
	Diagnostics int      `json:"diagnostics"`
}

// Invoked reports whether the processor ran in at least one round.
func (r ProcessorRun) Invoked() bool { return r.Rounds > 0 }

// DuplicateSourceError is returned when two generated sources share a name.
type DuplicateSourceError struct {
	Name string
}

func (e *DuplicateSourceError) Error() string {
	return fmt.Sprintf("duplicate generated source %q", e.Name)
}

// Compilation is the immutable result of compiling a set of sources.
//
// Status is derived from the diagnostics: FAILED if and only if at least
// one diagnostic has KindError. Diagnostics keep emission order.
type Compilation struct {
	id          string
	status      Status
	inputs      []Source
	diagnostics []Diagnostic
	generated   map[string]Source
	runs        []ProcessorRun
}

// NewCompilation assembles a compilation result. Generated source names
// must be unique.
func NewCompilation(id string, inputs []Source, diagnostics []Diagnostic, generated []Source, runs []ProcessorRun) (*Compilation, error) {
	c := &Compilation{
		id:          id,
		status:      StatusSucceeded,
		inputs:      slices.Clone(inputs),
		diagnostics: slices.Clone(diagnostics),
		generated:   make(map[string]Source, len(generated)),
		runs:        make([]ProcessorRun, len(runs)),
	}

	for _, src := range generated {
		if _, dup := c.generated[src.Name]; dup {
			return nil, &DuplicateSourceError{Name: src.Name}
		}
		c.generated[src.Name] = src
	}

	for i, run := range runs {
		run.Generated = slices.Clone(run.Generated)
		c.runs[i] = run
	}

	for _, d := range c.diagnostics {
		if err := d.Location().Validate(); err != nil {
			return nil, err
		}
		if d.Kind == KindError {
			c.status = StatusFailed
		}
	}

	return c, nil
}

// ID identifies this compilation in logs.
func (c *Compilation) ID() string { return c.id }

// Status returns SUCCEEDED or FAILED.
func (c *Compilation) Status() Status { return c.status }

// Succeeded reports whether no error diagnostics were emitted.
func (c *Compilation) Succeeded() bool { return c.status == StatusSucceeded }

// Diagnostics returns every diagnostic in emission order.
func (c *Compilation) Diagnostics() []Diagnostic {
	return slices.Clone(c.diagnostics)
}

// DiagnosticsOfKind returns the diagnostics of the given kind in emission order.
func (c *Compilation) DiagnosticsOfKind(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the error diagnostics.
func (c *Compilation) Errors() []Diagnostic { return c.DiagnosticsOfKind(KindError) }

// Warnings returns the warning diagnostics.
func (c *Compilation) Warnings() []Diagnostic { return c.DiagnosticsOfKind(KindWarning) }

// Notes returns the note diagnostics.
func (c *Compilation) Notes() []Diagnostic { return c.DiagnosticsOfKind(KindNote) }

// Inputs returns the sources handed to the compiler.
func (c *Compilation) Inputs() []Source { return slices.Clone(c.inputs) }

// Generated returns the generated sources sorted by name.
func (c *Compilation) Generated() []Source {
	out := make([]Source, 0, len(c.generated))
	for _, src := range c.generated {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GeneratedNames returns the generated source names, sorted.
func (c *Compilation) GeneratedNames() []string {
	names := make([]string, 0, len(c.generated))
	for name := range c.generated {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GeneratedSource looks up a generated source by name.
func (c *Compilation) GeneratedSource(name string) (Source, bool) {
	src, ok := c.generated[name]
	return src, ok
}

// Source resolves a diagnostic's Source back to the artifact, searching
// inputs first and then generated sources. Both the artifact name and its
// filename are accepted.
func (c *Compilation) Source(name string) (Source, bool) {
	for _, src := range c.inputs {
		if src.Name == name || src.Filename() == name {
			return src, true
		}
	}
	for _, src := range c.Generated() {
		if src.Name == name || src.Filename() == name {
			return src, true
		}
	}
	return Source{}, false
}

// ProcessorRuns returns one record per configured processor, in the order
// the processors were configured.
func (c *Compilation) ProcessorRuns() []ProcessorRun {
	out := make([]ProcessorRun, len(c.runs))
	for i, run := range c.runs {
		run.Generated = slices.Clone(run.Generated)
		out[i] = run
	}
	return out
}

// ProcessorRun returns the run record of the named processor.
func (c *Compilation) ProcessorRun(name string) (ProcessorRun, bool) {
	for _, run := range c.runs {
		if run.Processor == name {
			run.Generated = slices.Clone(run.Generated)
			return run, true
		}
	}
	return ProcessorRun{}, false
}

// Snapshot returns a canonical-JSON-ready view of the result: status,
// diagnostics and generated file hashes. The ID is left out so snapshots
// are stable across runs.
func (c *Compilation) Snapshot() map[string]any {
	diags := make([]any, len(c.diagnostics))
	for i, d := range c.diagnostics {
		m := map[string]any{
			"kind":    d.Kind.String(),
			"message": d.Message,
		}
		if d.Source != "" {
			m["source"] = d.Source
		}
		if d.Line > 0 {
			m["line"] = d.Line
		}
		if d.Column > 0 {
			m["column"] = d.Column
		}
		diags[i] = m
	}

	generated := make([]any, 0, len(c.generated))
	for _, src := range c.Generated() {
		generated = append(generated, map[string]any{
			"name": src.Name,
			"hash": src.Hash(),
		})
	}

	return map[string]any{
		"status":      c.status.String(),
		"diagnostics": diags,
		"generated":   generated,
	}
}
