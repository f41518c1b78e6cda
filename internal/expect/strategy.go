package expect

import (
	"errors"
	"testing"
)

// FailureStrategy receives the failure of an assertion chain. Fail is called
// at most once per chain.
type FailureStrategy interface {
	Fail(err error)
}

type fatalStrategy struct {
	t testing.TB
}

// Fatal stops the test with t.Fatal.
func Fatal(t testing.TB) FailureStrategy {
	return fatalStrategy{t: t}
}

func (s fatalStrategy) Fail(err error) {
	s.t.Helper()
	s.t.Fatal(err)
}

type panicStrategy struct{}

// Panic panics with the failure error.
func Panic() FailureStrategy { return panicStrategy{} }

func (panicStrategy) Fail(err error) { panic(err) }

// Collector records failures instead of stopping. A chain reporting to a
// Collector goes inert after its first failure and returns normally, so the
// caller inspects the Collector afterwards. A Collector is not safe for
// concurrent use.
type Collector struct {
	errs []error
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Fail(err error) { c.errs = append(c.errs, err) }

// Failed reports whether any failure was recorded.
func (c *Collector) Failed() bool { return len(c.errs) > 0 }

// Errors returns the recorded failures in order.
func (c *Collector) Errors() []error {
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Err joins the recorded failures, or returns nil.
func (c *Collector) Err() error { return errors.Join(c.errs...) }
