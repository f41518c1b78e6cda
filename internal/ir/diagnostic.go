package ir

import (
	"fmt"
	"strings"
)

// Location identifies where a diagnostic points. Zero values mean "unknown":
// an empty Source has no associated file, Line and Column are 1-based.
type Location struct {
	Source string
	Line   int
	Column int
}

// InvalidLocationError is returned when a location violates the
// column-implies-line rule or carries negative coordinates.
type InvalidLocationError struct {
	Location Location
	Reason   string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("invalid diagnostic location %s:%d:%d: %s",
		e.Location.Source, e.Location.Line, e.Location.Column, e.Reason)
}

// Validate checks the location invariants.
func (l Location) Validate() error {
	switch {
	case l.Line < 0:
		return &InvalidLocationError{Location: l, Reason: "line must not be negative"}
	case l.Column < 0:
		return &InvalidLocationError{Location: l, Reason: "column must not be negative"}
	case l.Column > 0 && l.Line == 0:
		return &InvalidLocationError{Location: l, Reason: "column requires a line"}
	}
	return nil
}

// Diagnostic is a normalized problem report emitted during compilation.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewDiagnostic builds a diagnostic, rejecting locations that break the
// column-implies-line rule.
func NewDiagnostic(kind Kind, message string, loc Location) (Diagnostic, error) {
	if err := loc.Validate(); err != nil {
		return Diagnostic{}, err
	}
	return Diagnostic{
		Kind:    kind,
		Message: message,
		Source:  loc.Source,
		Line:    loc.Line,
		Column:  loc.Column,
	}, nil
}

// Location returns the diagnostic's position.
func (d Diagnostic) Location() Location {
	return Location{Source: d.Source, Line: d.Line, Column: d.Column}
}

// HasSource reports whether the diagnostic is tied to a file.
func (d Diagnostic) HasSource() bool { return d.Source != "" }

// HasLine reports whether the line is known.
func (d Diagnostic) HasLine() bool { return d.Line > 0 }

// HasColumn reports whether the column is known.
func (d Diagnostic) HasColumn() bool { return d.Column > 0 }

// String renders "source:line:col: KIND: message", omitting unknown parts.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Source != "" {
		b.WriteString(d.Source)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	return b.String()
}
