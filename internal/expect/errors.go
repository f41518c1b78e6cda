package expect

import (
	"fmt"
	"strings"

	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/ir"
)

// AssertionError is reported when an expectation about the compilation is
// not met. The message is self-contained: it lists what was expected, what
// was observed and every diagnostic of the compilation.
type AssertionError struct {
	Check       string            // Assertion that failed, e.g. "error containing"
	Expected    string            // Human-readable expected outcome
	Actual      string            // Human-readable actual outcome
	Constraints []string          // Refinements applied before the failure
	Diagnostics []ir.Diagnostic   // Diagnostics present in the compilation
	Divergence  *equiv.Divergence // Set for structural mismatches
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Constraints) > 0 {
		fmt.Fprintf(&buf, "  Constraints: %s\n", strings.Join(e.Constraints, ", "))
	}
	if e.Divergence != nil {
		fmt.Fprintf(&buf, "\n%s\n", e.Divergence)
	}

	if len(e.Diagnostics) == 0 {
		buf.WriteString("\nDiagnostics: none\n")
		return buf.String()
	}
	buf.WriteString("\nDiagnostics:\n")
	for i, d := range e.Diagnostics {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d)
	}
	return buf.String()
}

// UsageError is reported when the assertion chain itself is malformed, for
// example a column constraint without a line or a generated file that does
// not exist.
type UsageError struct {
	Check  string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid assertion %s: %s", e.Check, e.Reason)
}
