package compiler

import (
	"fmt"
	"strings"
)

// Recognized compiler options.
const (
	OptionWerror   = "-Werror"
	OptionConcrete = "-concrete"
	OptionProcNone = "-proc:none"

	// ProcessorOptionPrefix introduces a processor option, -Akey or -Akey=value.
	ProcessorOptionPrefix = "-A"
)

// OptionError reports an option string the compiler does not understand.
// It is a usage error of the compiler, returned from Compile rather than
// recorded as a diagnostic.
type OptionError struct {
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid compiler option %q: %s", e.Option, e.Reason)
}

// settings is the parsed form of a compiler option list.
type settings struct {
	werror    bool
	concrete  bool
	procNone  bool
	processor map[string]string
}

func parseOptions(opts []string) (settings, error) {
	s := settings{processor: make(map[string]string)}
	for _, opt := range opts {
		switch {
		case opt == OptionWerror:
			s.werror = true
		case opt == OptionConcrete:
			s.concrete = true
		case opt == OptionProcNone:
			s.procNone = true
		case strings.HasPrefix(opt, ProcessorOptionPrefix):
			key, value, _ := strings.Cut(strings.TrimPrefix(opt, ProcessorOptionPrefix), "=")
			if err := validateOptionKey(key); err != nil {
				return settings{}, &OptionError{Option: opt, Reason: err.Error()}
			}
			s.processor[key] = value
		default:
			return settings{}, &OptionError{Option: opt, Reason: "unrecognized option"}
		}
	}
	return s, nil
}

// validateOptionKey accepts dot-separated names made of letters, digits,
// '-' and '_'.
func validateOptionKey(key string) error {
	if key == "" {
		return fmt.Errorf("missing key")
	}
	for _, part := range strings.Split(key, ".") {
		if part == "" {
			return fmt.Errorf("empty segment in key %q", key)
		}
		for _, r := range part {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				return fmt.Errorf("invalid character %q in key %q", r, key)
			}
		}
	}
	return nil
}
