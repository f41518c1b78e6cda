package equiv

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/roach88/cuetest/internal/ir"
)

// Grammar parses source text into a Node tree. Implementations drop
// trivia and canonicalize literal spellings; reordering is left to the
// comparator so that it can honor Options.
type Grammar interface {
	Name() string
	Parse(src ir.Source) (*Node, error)
}

var grammars = map[string]Grammar{
	"cue": CUE{},
	"hcl": HCL{},
}

// LookupGrammar returns the grammar registered under name.
func LookupGrammar(name string) (Grammar, error) {
	g, ok := grammars[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown grammar %q (available: %s)", name, strings.Join(GrammarNames(), ", "))
	}
	return g, nil
}

// GrammarNames returns the registered grammar names, sorted.
func GrammarNames() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GrammarFor picks a grammar from the source's file extension. HCL is used
// for .hcl and .tf files, CUE for everything else.
func GrammarFor(src ir.Source) Grammar {
	switch path.Ext(src.Filename()) {
	case ".hcl", ".tf":
		return HCL{}
	}
	return CUE{}
}
