// Package processors provides the builtin compilation processors.
package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cuetest/internal/compiler"
)

// builtins maps processor names to constructors. Each lookup returns a
// fresh value so compilations never share processor state.
var builtins = map[string]struct {
	description string
	make        func() compiler.Processor
}{
	NoopName:       {"does nothing; useful to check that processors run", func() compiler.Processor { return Noop{} }},
	DeprecatedName: {"warns about fields marked @deprecated(reason)", func() compiler.Processor { return Deprecated{} }},
	GenerateName:   {"generates #Name definitions from fields marked @generate(Name)", func() compiler.Processor { return Generate{} }},
	RequireDocName: {"reports definitions without a doc comment (-Arequire-doc=strict makes it an error)", func() compiler.Processor { return RequireDoc{} }},
}

// UnknownProcessorError is returned when a name has no builtin processor.
type UnknownProcessorError struct {
	Name string
}

func (e *UnknownProcessorError) Error() string {
	return fmt.Sprintf("unknown processor %q (available: %s)", e.Name, strings.Join(Names(), ", "))
}

// Lookup returns a new instance of the named builtin processor.
func Lookup(name string) (compiler.Processor, bool) {
	b, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return b.make(), true
}

// Resolve looks up every name, preserving order.
func Resolve(names []string) ([]compiler.Processor, error) {
	out := make([]compiler.Processor, 0, len(names))
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, &UnknownProcessorError{Name: name}
		}
		out = append(out, p)
	}
	return out, nil
}

// Names returns the builtin processor names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line description of the named processor.
func Describe(name string) string {
	return builtins[name].description
}
