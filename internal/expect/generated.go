package expect

import (
	"fmt"
	"strings"

	"github.com/roach88/cuetest/internal/ir"
)

// GeneratedSourceSubject asserts on one generated source.
type GeneratedSourceSubject struct {
	subject *CompilationSubject
	src     ir.Source
}

// GeneratedSource selects the generated source called name. A missing file
// is a UsageError naming the files that were generated.
func (s *CompilationSubject) GeneratedSource(name string) *GeneratedSourceSubject {
	g := &GeneratedSourceSubject{subject: s}
	if s.failed {
		return g
	}
	src, ok := s.comp.GeneratedSource(name)
	if !ok {
		src, ok = s.comp.GeneratedSource(strings.TrimSuffix(name, ".cue"))
	}
	if !ok {
		generated := "none"
		if names := s.comp.GeneratedNames(); len(names) > 0 {
			generated = strings.Join(names, ", ")
		}
		s.fail(&UsageError{
			Check:  "GeneratedSource",
			Reason: fmt.Sprintf("no such generated file %q (generated: %s)", name, generated),
		})
		return g
	}
	g.src = src
	return g
}

// GeneratedSourceEquivalentTo asserts that the generated source named like
// expected is structurally equivalent to it.
func (s *CompilationSubject) GeneratedSourceEquivalentTo(expected ir.Source) *CompilationSubject {
	return s.GeneratedSource(expected.Name).EquivalentTo(expected).And()
}

// GeneratedSources asserts GeneratedSourceEquivalentTo for every expected
// source, stopping at the first failure.
func (s *CompilationSubject) GeneratedSources(expected ...ir.Source) *CompilationSubject {
	for _, src := range expected {
		s.GeneratedSourceEquivalentTo(src)
	}
	return s
}

// EquivalentTo compares the generated source with expected structurally.
// A parse failure on either side is reported as the comparator's
// *equiv.ParseError, not as a mismatch.
func (g *GeneratedSourceSubject) EquivalentTo(expected ir.Source) *GeneratedSourceSubject {
	if g.subject.failed {
		return g
	}
	r, err := g.subject.comparatorFor(expected).Compare(expected, g.src)
	if err != nil {
		g.subject.fail(err)
		return g
	}
	if r.Equivalent {
		return g
	}
	g.subject.fail(&AssertionError{
		Check:       "generated source equivalent",
		Expected:    fmt.Sprintf("generated file %s equivalent to %s", g.src.Name, expected.Name),
		Actual:      "structural mismatch",
		Diagnostics: g.subject.comp.Diagnostics(),
		Divergence:  r.Divergence,
	})
	return g
}

// ContentContains asserts that the generated text contains substring.
func (g *GeneratedSourceSubject) ContentContains(substring string) *GeneratedSourceSubject {
	if g.subject.failed || strings.Contains(g.src.Content, substring) {
		return g
	}
	g.subject.fail(&AssertionError{
		Check:       "generated content",
		Expected:    fmt.Sprintf("generated file %s containing %q", g.src.Name, substring),
		Actual:      fmt.Sprintf("content:\n%s", g.src.Content),
		Diagnostics: g.subject.comp.Diagnostics(),
	})
	return g
}

// Source returns the selected generated source.
func (g *GeneratedSourceSubject) Source() ir.Source { return g.src }

// And returns the subject for an independent assertion on the same result.
func (g *GeneratedSourceSubject) And() *CompilationSubject { return g.subject }
