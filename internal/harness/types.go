package harness

import "github.com/roach88/cuetest/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation was met.
	Pass bool `json:"pass"`

	// Errors holds one message per unmet expectation.
	Errors []string `json:"errors,omitempty"`

	// Compilation is the result the expectations were checked against.
	Compilation *ir.Compilation `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records an unmet expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
