package expect

import (
	"fmt"

	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/ir"
)

// chain is shared by every link started from one That call.
type chain struct {
	comp     *ir.Compilation
	strategy FailureStrategy
	cmp      *equiv.Comparator
	failed   bool
}

// fail reports err once and makes the rest of the chain inert.
func (c *chain) fail(err error) {
	if c.failed {
		return
	}
	c.failed = true
	c.strategy.Fail(err)
}

// comparatorFor returns the configured comparator, or the default one of
// the grammar matching src.
func (c *chain) comparatorFor(src ir.Source) *equiv.Comparator {
	if c.cmp != nil {
		return c.cmp
	}
	g := equiv.GrammarFor(src)
	if g.Name() == equiv.Default().Grammar().Name() {
		return equiv.Default()
	}
	return equiv.NewComparator(g)
}

// CompilationSubject is the entry point of an assertion chain.
type CompilationSubject struct {
	*chain
}

// That starts an assertion chain on comp.
func That(comp *ir.Compilation, s FailureStrategy) *CompilationSubject {
	sub := &CompilationSubject{chain: &chain{comp: comp, strategy: s}}
	if comp == nil {
		sub.fail(&UsageError{Check: "That", Reason: "nil compilation"})
	}
	return sub
}

// WithComparator returns a subject comparing generated sources with cmp
// instead of the default comparator of each file's grammar.
func (s *CompilationSubject) WithComparator(cmp *equiv.Comparator) *CompilationSubject {
	ch := *s.chain
	ch.cmp = cmp
	return &CompilationSubject{chain: &ch}
}

// Compilation returns the compilation under test.
func (s *CompilationSubject) Compilation() *ir.Compilation { return s.comp }

// Succeeded asserts that the compilation has no error diagnostics.
func (s *CompilationSubject) Succeeded() *CompilationSubject {
	if s.failed || s.comp.Succeeded() {
		return s
	}
	errs := s.comp.Errors()
	s.fail(&AssertionError{
		Check:       "succeeded",
		Expected:    "compilation succeeded",
		Actual:      fmt.Sprintf("compilation failed with %s", plural(len(errs), "error")),
		Diagnostics: errs,
	})
	return s
}

// Failed asserts that the compilation has at least one error diagnostic.
func (s *CompilationSubject) Failed() *CompilationSubject {
	if s.failed || !s.comp.Succeeded() {
		return s
	}
	s.fail(&AssertionError{
		Check:       "failed",
		Expected:    "compilation failed",
		Actual:      "expected failure but none occurred",
		Diagnostics: s.comp.Diagnostics(),
	})
	return s
}

// SucceededWithoutWarnings asserts that the compilation has neither error
// nor warning diagnostics.
func (s *CompilationSubject) SucceededWithoutWarnings() *CompilationSubject {
	if s.failed {
		return s
	}
	var bad []ir.Diagnostic
	for _, d := range s.comp.Diagnostics() {
		switch d.Kind {
		case ir.KindError, ir.KindWarning:
			bad = append(bad, d)
		case ir.KindNote, ir.KindOther:
		}
	}
	if len(bad) == 0 {
		return s
	}
	s.fail(&AssertionError{
		Check:       "succeeded without warnings",
		Expected:    "no errors or warnings",
		Actual:      fmt.Sprintf("%s and %s", plural(len(s.comp.Errors()), "error"), plural(len(s.comp.Warnings()), "warning")),
		Diagnostics: bad,
	})
	return s
}

// HadErrorCount asserts the exact number of error diagnostics.
func (s *CompilationSubject) HadErrorCount(n int) *CompilationSubject {
	return s.hadCount(ir.KindError, n)
}

// HadWarningCount asserts the exact number of warning diagnostics.
func (s *CompilationSubject) HadWarningCount(n int) *CompilationSubject {
	return s.hadCount(ir.KindWarning, n)
}

// HadNoteCount asserts the exact number of note diagnostics.
func (s *CompilationSubject) HadNoteCount(n int) *CompilationSubject {
	return s.hadCount(ir.KindNote, n)
}

func (s *CompilationSubject) hadCount(kind ir.Kind, n int) *CompilationSubject {
	if s.failed {
		return s
	}
	got := s.comp.DiagnosticsOfKind(kind)
	if len(got) == n {
		return s
	}
	noun := kindNoun(kind)
	s.fail(&AssertionError{
		Check:       noun + " count",
		Expected:    plural(n, noun),
		Actual:      plural(len(got), noun),
		Diagnostics: s.comp.Diagnostics(),
	})
	return s
}

// And returns the subject for an independent assertion on the same result.
func (s *CompilationSubject) And() *CompilationSubject { return s }

func kindNoun(kind ir.Kind) string {
	switch kind {
	case ir.KindError:
		return "error"
	case ir.KindWarning:
		return "warning"
	case ir.KindNote:
		return "note"
	case ir.KindOther:
		return "other diagnostic"
	}
	return "diagnostic"
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
