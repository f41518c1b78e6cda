package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cuetest/internal/equiv"
	"github.com/roach88/cuetest/internal/ir"
)

// EquivOptions holds flags for the equiv command.
type EquivOptions struct {
	*RootOptions
	Grammar                 string
	IgnoreFieldOrder        bool
	IgnoreAttributeArgOrder bool
}

// EquivResult is the JSON payload of the equiv command.
type EquivResult struct {
	Expected   string          `json:"expected"`
	Actual     string          `json:"actual"`
	Grammar    string          `json:"grammar"`
	Equivalent bool            `json:"equivalent"`
	Divergence *DivergenceJSON `json:"divergence,omitempty"`
}

// DivergenceJSON is the first difference between two sources.
type DivergenceJSON struct {
	Path     []string `json:"path"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
}

// NewEquivCommand creates the equiv command.
func NewEquivCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EquivOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "equiv <expected> <actual>",
		Short: "Compare two sources structurally",
		Long: `Compare two source files by syntax tree, ignoring comments,
whitespace and literal spelling.

The grammar is picked from the expected file's extension (.hcl and .tf
are HCL, everything else CUE) unless --grammar is given.

Exit codes:
  0 - Sources are equivalent
  1 - Sources differ
  2 - Command error (missing file, unparseable source, unknown grammar)

Examples:
  cuetest equiv expected/Person.cue out/Person.cue
  cuetest equiv want.tf got.tf --ignore-field-order`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEquiv(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Grammar, "grammar", "g", "", "grammar to parse with (cue|hcl)")
	cmd.Flags().BoolVar(&opts.IgnoreFieldOrder, "ignore-field-order", false, "treat fields and blocks as unordered")
	cmd.Flags().BoolVar(&opts.IgnoreAttributeArgOrder, "ignore-attribute-arg-order", false, "treat attribute arguments as unordered")

	return cmd
}

func runEquiv(opts *EquivOptions, expectedPath, actualPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config().Equiv

	expected, err := ir.FromFile(expectedPath)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}
	actual, err := ir.FromFile(actualPath)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}

	grammarName := opts.Grammar
	if !cmd.Flags().Changed("grammar") {
		grammarName = cfg.Grammar
	}
	grammar := equiv.GrammarFor(expected)
	if grammarName != "" {
		grammar, err = equiv.LookupGrammar(grammarName)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, err.Error())
		}
	}

	var eqOpts []equiv.Option
	if opts.IgnoreFieldOrder || cfg.IgnoreFieldOrder {
		eqOpts = append(eqOpts, equiv.IgnoreFieldOrder())
	}
	if opts.IgnoreAttributeArgOrder || cfg.IgnoreAttributeArgOrder {
		eqOpts = append(eqOpts, equiv.IgnoreAttributeArgOrder())
	}
	formatter.VerboseLog("Comparing %s and %s as %s", expectedPath, actualPath, grammar.Name())

	r, err := equiv.NewComparator(grammar, eqOpts...).Compare(expected, actual)
	if err != nil {
		var parseErr *equiv.ParseError
		if errors.As(err, &parseErr) {
			return commandError(formatter, ErrCodeParse, err.Error())
		}
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	result := EquivResult{
		Expected:   expectedPath,
		Actual:     actualPath,
		Grammar:    grammar.Name(),
		Equivalent: r.Equivalent,
	}
	if d := r.Divergence; d != nil {
		result.Divergence = &DivergenceJSON{Path: d.Path, Expected: d.Expected, Actual: d.Actual}
	}

	if formatter.JSON() {
		if r.Equivalent {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeNotEquivalent, "sources are not equivalent", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "sources are not equivalent")
	}

	if r.Equivalent {
		formatter.Pass("EQUIVALENT")
		return nil
	}
	formatter.Fail("NOT EQUIVALENT")
	fmt.Fprintln(formatter.Writer, r.Divergence)
	return NewExitError(ExitFailure, "sources are not equivalent")
}
