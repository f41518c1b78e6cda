package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/cuetest/internal/ir"
)

// FormatDiagnostics renders one "KIND file:line:col message" line per
// diagnostic. Unknown position parts are omitted.
func FormatDiagnostics(diags []ir.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(d.Kind.String())
		if d.Source != "" {
			fmt.Fprintf(&b, " %s", d.Source)
			if d.Line > 0 {
				fmt.Fprintf(&b, ":%d", d.Line)
				if d.Column > 0 {
					fmt.Fprintf(&b, ":%d", d.Column)
				}
			}
		}
		fmt.Fprintf(&b, " %s\n", d.Message)
	}
	return b.String()
}
