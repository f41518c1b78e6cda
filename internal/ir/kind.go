package ir

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic by severity.
// Ordered so that a higher value is more severe.
type Kind uint8

const (
	KindOther Kind = iota
	KindNote
	KindWarning
	KindError
)

// Kinds lists every diagnostic kind, most severe first.
var Kinds = []Kind{KindError, KindWarning, KindNote, KindOther}

func (k Kind) String() string {
	switch k {
	case KindError:
		return "ERROR"
	case KindWarning:
		return "WARNING"
	case KindNote:
		return "NOTE"
	case KindOther:
		return "OTHER"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return KindError, nil
	case "WARNING", "WARN":
		return KindWarning, nil
	case "NOTE", "INFO":
		return KindNote, nil
	case "OTHER":
		return KindOther, nil
	}
	return KindOther, fmt.Errorf("unknown diagnostic kind %q", s)
}

// Status is the outcome of a compilation.
type Status uint8

const (
	StatusSucceeded Status = iota
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Origin records where a source artifact came from.
type Origin uint8

const (
	OriginInline Origin = iota
	OriginResource
	OriginGenerated
)

func (o Origin) String() string {
	switch o {
	case OriginInline:
		return "INLINE"
	case OriginResource:
		return "RESOURCE"
	case OriginGenerated:
		return "GENERATED"
	}
	return fmt.Sprintf("Origin(%d)", uint8(o))
}

// MarshalText renders the kind name, so JSON output reads "ERROR" rather
// than a number.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts any spelling ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (o Origin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }
