package equiv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cuetest/internal/ir"
)

// Side names one input of a comparison.
type Side string

const (
	SideExpected Side = "expected"
	SideActual   Side = "actual"
)

// ParseError reports that one side of a comparison could not be parsed.
// It means "cannot compare", never "not equivalent". When both sides fail
// Compare returns both errors joined.
type ParseError struct {
	Side   Side
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s source %s: %v", e.Side, e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Divergence is the first point where two trees differ.
type Divergence struct {
	// Path names the nodes from the root to the divergent node.
	Path        []string
	Expected    string
	Actual      string
	ExpectedPos Position
	ActualPos   Position
}

func (d *Divergence) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "first difference at %s\n", strings.Join(d.Path, " > "))
	fmt.Fprintf(&b, "  expected: %s", d.Expected)
	if d.ExpectedPos.IsValid() {
		fmt.Fprintf(&b, " (at %s)", d.ExpectedPos)
	}
	fmt.Fprintf(&b, "\n  actual:   %s", d.Actual)
	if d.ActualPos.IsValid() {
		fmt.Fprintf(&b, " (at %s)", d.ActualPos)
	}
	return b.String()
}

// Result is the outcome of a successful comparison.
type Result struct {
	Equivalent bool
	// Divergence is set when Equivalent is false.
	Divergence *Divergence
}

// Comparator decides structural equivalence of sources in one grammar.
// It is safe for concurrent use.
type Comparator struct {
	grammar Grammar
	opts    Options
	cache   *treeCache
}

// NewComparator creates a comparator for g.
func NewComparator(g Grammar, opts ...Option) *Comparator {
	c := &Comparator{grammar: g, cache: &treeCache{}}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

var defaultComparator = NewComparator(CUE{})

// Default returns the shared CUE comparator with default options. Its
// tree cache is process-wide and unbounded.
func Default() *Comparator { return defaultComparator }

// Grammar returns the comparator's grammar.
func (c *Comparator) Grammar() Grammar { return c.grammar }

// Options returns the comparator's options.
func (c *Comparator) Options() Options { return c.opts }

// Tree returns the normalized tree of src, parsing it at most once per
// content hash.
func (c *Comparator) Tree(src ir.Source) (*Node, error) {
	key := cacheKey(c.grammar, c.opts, src)
	if n, ok := c.cache.load(key); ok {
		return n, nil
	}
	raw, err := c.grammar.Parse(src)
	if err != nil {
		return nil, err
	}
	return c.cache.store(key, normalize(raw, c.opts)), nil
}

// Compare parses both sources and walks the normalized trees in lock-step.
// A parse failure is returned as a *ParseError rather than a mismatch.
func (c *Comparator) Compare(expected, actual ir.Source) (Result, error) {
	exp, expErr := c.Tree(expected)
	act, actErr := c.Tree(actual)

	var errs []error
	if expErr != nil {
		errs = append(errs, &ParseError{Side: SideExpected, Source: expected.Name, Err: expErr})
	}
	if actErr != nil {
		errs = append(errs, &ParseError{Side: SideActual, Source: actual.Name, Err: actErr})
	}
	if len(errs) > 0 {
		return Result{}, errors.Join(errs...)
	}

	if d := diff([]string{exp.segment(-1)}, exp, act); d != nil {
		return Result{Divergence: d}, nil
	}
	return Result{Equivalent: true}, nil
}

// AreEquivalent reports whether a and b denote the same program.
func (c *Comparator) AreEquivalent(a, b ir.Source) (bool, error) {
	r, err := c.Compare(a, b)
	if err != nil {
		return false, err
	}
	return r.Equivalent, nil
}

// AreEquivalent compares a and b with the default CUE comparator.
func AreEquivalent(a, b ir.Source) (bool, error) {
	return defaultComparator.AreEquivalent(a, b)
}

func diff(path []string, e, a *Node) *Divergence {
	if e.Kind != a.Kind || e.Value != a.Value {
		return divergence(path, e, a)
	}

	for i := 0; i < len(e.Children) || i < len(a.Children); i++ {
		var ec, ac *Node
		if i < len(e.Children) {
			ec = e.Children[i]
		}
		if i < len(a.Children) {
			ac = a.Children[i]
		}

		switch {
		case ec == nil:
			return divergence(appendPath(path, ac.segment(i)), nil, ac)
		case ac == nil:
			return divergence(appendPath(path, ec.segment(i)), ec, nil)
		}
		if d := diff(appendPath(path, ec.segment(i)), ec, ac); d != nil {
			return d
		}
	}
	return nil
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func divergence(path []string, e, a *Node) *Divergence {
	d := &Divergence{Path: path, Expected: e.describe(), Actual: a.describe()}
	if e != nil {
		d.ExpectedPos = e.Pos
	}
	if a != nil {
		d.ActualPos = a.Pos
	}
	return d
}
