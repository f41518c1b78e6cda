package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/ir"
	"github.com/roach88/cuetest/internal/processors"
)

// Scenario defines one compile-testing case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sources are compiled together as one instance.
	Sources []SourceFile `yaml:"sources"`

	// Processors lists builtin processor names, in run order.
	Processors []string `yaml:"processors,omitempty"`

	// Options are compiler options such as "-Werror" or "-Akey=value".
	Options []string `yaml:"options,omitempty"`

	// Expect holds the expectations checked after compiling.
	Expect Expectation `yaml:"expect"`

	// ID is an optional fixed compilation ID. Defaults to
	// "test-compilation".
	ID string `yaml:"id,omitempty"`

	// dir resolves relative source paths.
	dir string
}

// SourceFile is a source given inline or by path. Exactly one of Path and
// Content is used; Content may be empty.
type SourceFile struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// Expectation collects what a scenario expects of its compilation.
type Expectation struct {
	// Status is one of "succeeded", "failed" or "without_warnings".
	Status string `yaml:"status"`

	// Exact diagnostic counts; nil means unchecked.
	Errors   *int `yaml:"errors,omitempty"`
	Warnings *int `yaml:"warnings,omitempty"`
	Notes    *int `yaml:"notes,omitempty"`

	Diagnostics []DiagnosticExpectation `yaml:"diagnostics,omitempty"`
	Generated   []SourceFile            `yaml:"generated,omitempty"`

	// Equivalence configures the comparator for Generated.
	Equivalence *Equivalence `yaml:"equivalence,omitempty"`
}

// DiagnosticExpectation matches at least one diagnostic.
type DiagnosticExpectation struct {
	// Kind is error, warning, note, or any (the default).
	Kind     string `yaml:"kind,omitempty"`
	Contains string `yaml:"contains"`
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
	Column   int    `yaml:"column,omitempty"`
}

// Equivalence selects the grammar and normalization options used to
// compare generated sources.
type Equivalence struct {
	Grammar                 string `yaml:"grammar,omitempty"`
	IgnoreFieldOrder        bool   `yaml:"ignore_field_order,omitempty"`
	IgnoreAttributeArgOrder bool   `yaml:"ignore_attribute_arg_order,omitempty"`
}

// Status values.
const (
	StatusSucceeded       = "succeeded"
	StatusFailed          = "failed"
	StatusWithoutWarnings = "without_warnings"
)

// KindAny matches diagnostics of every kind.
const KindAny = "any"

// LoadScenario reads and parses a scenario YAML file. Relative source paths
// resolve against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative source paths
// against dir. Unknown fields and missing required fields are errors.
func ParseScenario(data []byte, dir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = dir

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Dir returns the directory relative source paths resolve against.
func (s *Scenario) Dir() string { return s.dir }

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("sources list is required and must be non-empty")
	}
	for i, src := range s.Sources {
		if err := validateSourceFile(src); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	if _, err := processors.Resolve(s.Processors); err != nil {
		return err
	}

	switch s.Expect.Status {
	case StatusSucceeded, StatusFailed, StatusWithoutWarnings:
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status %q must be one of %s, %s, %s",
			s.Expect.Status, StatusSucceeded, StatusFailed, StatusWithoutWarnings)
	}

	for name, n := range map[string]*int{"errors": s.Expect.Errors, "warnings": s.Expect.Warnings, "notes": s.Expect.Notes} {
		if n != nil && *n < 0 {
			return fmt.Errorf("expect.%s must not be negative", name)
		}
	}

	for i, d := range s.Expect.Diagnostics {
		if err := validateDiagnostic(d); err != nil {
			return fmt.Errorf("expect.diagnostics[%d]: %w", i, err)
		}
	}

	for i, src := range s.Expect.Generated {
		if err := validateSourceFile(src); err != nil {
			return fmt.Errorf("expect.generated[%d]: %w", i, err)
		}
	}

	if eq := s.Expect.Equivalence; eq != nil && eq.Grammar != "" {
		if _, err := equiv.LookupGrammar(eq.Grammar); err != nil {
			return fmt.Errorf("expect.equivalence: %w", err)
		}
	}
	return nil
}

func validateSourceFile(src SourceFile) error {
	switch {
	case src.Name == "" && src.Path == "":
		return fmt.Errorf("name or path is required")
	case src.Path != "" && src.Content != "":
		return fmt.Errorf("path and content are mutually exclusive")
	}
	return nil
}

func validateDiagnostic(d DiagnosticExpectation) error {
	if _, _, err := diagnosticKind(d.Kind); err != nil {
		return err
	}
	switch {
	case d.Contains == "":
		return fmt.Errorf("contains is required")
	case d.Line < 0 || d.Column < 0:
		return fmt.Errorf("line and column must not be negative")
	case d.Line > 0 && d.File == "":
		return fmt.Errorf("line requires file")
	case d.Column > 0 && d.Line == 0:
		return fmt.Errorf("column requires line")
	}
	return nil
}

// diagnosticKind maps an expectation kind to an ir kind. anyKind is set
// for "any" and the empty string.
func diagnosticKind(s string) (kind ir.Kind, anyKind bool, err error) {
	switch strings.ToLower(s) {
	case "", KindAny:
		return ir.KindOther, true, nil
	}
	kind, err = ir.ParseKind(s)
	if err != nil {
		return kind, false, err
	}
	if kind == ir.KindOther {
		return kind, false, fmt.Errorf("kind %q is not matchable; use error, warning, note or any", s)
	}
	return kind, false, nil
}

// Load reads the source, resolving Path against dir. The name defaults to
// the base name of Path.
func (f SourceFile) Load(dir string) (ir.Source, error) {
	if f.Path == "" {
		return ir.FromString(f.Name, f.Content), nil
	}

	p := f.Path
	if !filepath.IsAbs(p) && dir != "" {
		p = filepath.Join(dir, p)
	}
	src, err := ir.FromFile(p)
	if err != nil {
		return ir.Source{}, fmt.Errorf("failed to read source %s: %w", f.Path, err)
	}
	if f.Name != "" {
		src.Name = f.Name
	}
	return src, nil
}

// LoadSources loads every input source of the scenario.
func (s *Scenario) LoadSources() ([]ir.Source, error) {
	return loadAll(s.Sources, s.dir)
}

// LoadGenerated loads the expected generated sources.
func (s *Scenario) LoadGenerated() ([]ir.Source, error) {
	return loadAll(s.Expect.Generated, s.dir)
}

func loadAll(files []SourceFile, dir string) ([]ir.Source, error) {
	out := make([]ir.Source, 0, len(files))
	for _, f := range files {
		src, err := f.Load(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
