package expect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cuetest/internal/ir"
)

// DiagnosticMatch holds the diagnostics that matched a substring search and
// every refinement applied since. Each refinement returns a new match with a
// narrower subset.
type DiagnosticMatch struct {
	subject     *CompilationSubject
	noun        string
	substring   string
	constraints []string
	matches     []ir.Diagnostic
	hasFile     bool
	hasLine     bool
}

// HadErrorContaining asserts that an error message contains substring.
func (s *CompilationSubject) HadErrorContaining(substring string) *DiagnosticMatch {
	return s.hadContaining("error", substring, func(d ir.Diagnostic) bool { return d.Kind == ir.KindError })
}

// HadWarningContaining asserts that a warning message contains substring.
func (s *CompilationSubject) HadWarningContaining(substring string) *DiagnosticMatch {
	return s.hadContaining("warning", substring, func(d ir.Diagnostic) bool { return d.Kind == ir.KindWarning })
}

// HadNoteContaining asserts that a note message contains substring.
func (s *CompilationSubject) HadNoteContaining(substring string) *DiagnosticMatch {
	return s.hadContaining("note", substring, func(d ir.Diagnostic) bool { return d.Kind == ir.KindNote })
}

// HadDiagnosticContaining asserts that a diagnostic of any kind contains
// substring.
func (s *CompilationSubject) HadDiagnosticContaining(substring string) *DiagnosticMatch {
	return s.hadContaining("diagnostic", substring, func(ir.Diagnostic) bool { return true })
}

func (s *CompilationSubject) hadContaining(noun, substring string, keep func(ir.Diagnostic) bool) *DiagnosticMatch {
	m := &DiagnosticMatch{subject: s, noun: noun, substring: substring}
	if s.failed {
		return m
	}
	for _, d := range s.comp.Diagnostics() {
		if keep(d) && strings.Contains(d.Message, substring) {
			m.matches = append(m.matches, d)
		}
	}
	m.check()
	return m
}

// In narrows the match to diagnostics reported in the named source. The
// name may be given with or without the .cue extension.
func (m *DiagnosticMatch) In(name string) *DiagnosticMatch {
	return m.in(ir.FromString(name, "").Filename())
}

// InFile narrows the match to diagnostics reported in src.
func (m *DiagnosticMatch) InFile(src ir.Source) *DiagnosticMatch {
	return m.in(src.Filename())
}

func (m *DiagnosticMatch) in(filename string) *DiagnosticMatch {
	if m.inert() {
		return m
	}
	if m.hasLine {
		m.subject.fail(&UsageError{Check: "In", Reason: "file constraint must precede OnLine"})
		return m
	}
	next := m.narrow("in "+filename, func(d ir.Diagnostic) bool { return d.Source == filename })
	next.hasFile = true
	return next
}

// OnLine narrows the match to diagnostics reported on line n. It must
// follow In or InFile.
func (m *DiagnosticMatch) OnLine(n int) *DiagnosticMatch {
	if m.inert() {
		return m
	}
	switch {
	case !m.hasFile:
		m.subject.fail(&UsageError{Check: "OnLine", Reason: "line constraint requires a preceding In"})
		return m
	case n <= 0:
		m.subject.fail(&UsageError{Check: "OnLine", Reason: fmt.Sprintf("line must be positive, got %d", n)})
		return m
	}
	next := m.narrow(fmt.Sprintf("on line %d", n), func(d ir.Diagnostic) bool { return d.Line == n })
	next.hasLine = true
	return next
}

// AtColumn narrows the match to diagnostics reported at column n. It must
// follow OnLine.
func (m *DiagnosticMatch) AtColumn(n int) *DiagnosticMatch {
	if m.inert() {
		return m
	}
	switch {
	case !m.hasLine:
		m.subject.fail(&UsageError{Check: "AtColumn", Reason: "column constraint requires a preceding OnLine"})
		return m
	case n <= 0:
		m.subject.fail(&UsageError{Check: "AtColumn", Reason: fmt.Sprintf("column must be positive, got %d", n)})
		return m
	}
	return m.narrow(fmt.Sprintf("at column %d", n), func(d ir.Diagnostic) bool { return d.Column == n })
}

// And returns the subject for an independent assertion on the same result.
func (m *DiagnosticMatch) And() *CompilationSubject { return m.subject }

// Diagnostics returns the diagnostics still in scope.
func (m *DiagnosticMatch) Diagnostics() []ir.Diagnostic { return slices.Clone(m.matches) }

func (m *DiagnosticMatch) inert() bool { return m.subject.failed }

func (m *DiagnosticMatch) narrow(constraint string, keep func(ir.Diagnostic) bool) *DiagnosticMatch {
	if m.inert() {
		return m
	}
	next := &DiagnosticMatch{
		subject:     m.subject,
		noun:        m.noun,
		substring:   m.substring,
		constraints: append(slices.Clone(m.constraints), constraint),
		hasFile:     m.hasFile,
		hasLine:     m.hasLine,
	}
	for _, d := range m.matches {
		if keep(d) {
			next.matches = append(next.matches, d)
		}
	}
	next.check()
	return next
}

// check fails the chain when nothing is left in scope.
func (m *DiagnosticMatch) check() {
	if len(m.matches) > 0 {
		return
	}
	expected := fmt.Sprintf("%s containing %q", m.noun, m.substring)
	if len(m.constraints) > 0 {
		expected += " " + strings.Join(m.constraints, " ")
	}
	m.subject.fail(&AssertionError{
		Check:       m.noun + " containing",
		Expected:    expected,
		Actual:      "no matching " + m.noun,
		Constraints: slices.Clone(m.constraints),
		Diagnostics: m.subject.comp.Diagnostics(),
	})
}
