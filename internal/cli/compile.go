package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
	"github.com/roach88/cuetest/internal/processors"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Processors []string // builtin processor names, in run order
	Options    []string // compiler options
}

// CompileReport is the JSON payload of the compile command.
type CompileReport struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Diagnostics []ir.Diagnostic   `json:"diagnostics"`
	Generated   []GeneratedFile   `json:"generated"`
	Processors  []ir.ProcessorRun `json:"processors"`
}

// GeneratedFile is a generated source in a CompileReport.
type GeneratedFile struct {
	Name    string `json:"name"`
	Hash    string `json:"hash"`
	Content string `json:"content"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file|dir>...",
		Short: "Compile CUE sources with processors",
		Long: `Compile CUE sources as one instance, running processors in rounds
until no new files are generated, then print the diagnostics and the
generated files.

Exit codes:
  0 - Compilation succeeded
  1 - Compilation failed (error diagnostics)
  2 - Command error (missing files, unknown processor, processor crash)

Examples:
  cuetest compile ./schema
  cuetest compile person.cue --processor generate --processor deprecated
  cuetest compile ./schema --option -Werror --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Processors, "processor", "p", nil, "processor to run (repeatable; see 'cuetest processors')")
	cmd.Flags().StringArrayVarP(&opts.Options, "option", "o", nil, "compiler option such as -Werror or -Akey=value (repeatable)")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	names := opts.Processors
	if !cmd.Flags().Changed("processor") {
		names = cfg.Processors
	}
	options := opts.Options
	if !cmd.Flags().Changed("option") {
		options = cfg.Options
	}

	sources, err := LoadSources(paths)
	if err != nil {
		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			return commandError(formatter, srcErr.Code, srcErr.Message)
		}
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Compiling %d source(s)", len(sources))

	procs, err := processors.Resolve(names)
	if err != nil {
		return commandError(formatter, ErrCodeProcessor, err.Error())
	}

	c := compiler.New(
		compiler.WithProcessors(procs...),
		compiler.WithOptions(options...),
		compiler.WithLogger(opts.logger()),
	)
	comp, err := c.Compile(cmd.Context(), sources...)
	if err != nil {
		var optErr *compiler.OptionError
		if errors.As(err, &optErr) {
			return commandError(formatter, ErrCodeConfig, err.Error())
		}
		return commandError(formatter, ErrCodeProcessor, err.Error())
	}

	report := newCompileReport(comp)
	if formatter.JSON() {
		if comp.Succeeded() {
			return formatter.Success(report)
		}
		if err := formatter.Failure(ErrCodeCompileFailed, compileFailedMessage(comp), report); err != nil {
			return err
		}
		return NewExitError(ExitFailure, compileFailedMessage(comp))
	}

	outputCompileText(formatter, comp, len(sources))
	if !comp.Succeeded() {
		return NewExitError(ExitFailure, compileFailedMessage(comp))
	}
	return nil
}

func newCompileReport(comp *ir.Compilation) CompileReport {
	report := CompileReport{
		ID:          comp.ID(),
		Status:      comp.Status().String(),
		Diagnostics: comp.Diagnostics(),
		Generated:   []GeneratedFile{},
		Processors:  comp.ProcessorRuns(),
	}
	for _, src := range comp.Generated() {
		report.Generated = append(report.Generated, GeneratedFile{
			Name:    src.Name,
			Hash:    src.Hash(),
			Content: src.Content,
		})
	}
	return report
}

func compileFailedMessage(comp *ir.Compilation) string {
	return fmt.Sprintf("compilation failed with %d error(s)", len(comp.Errors()))
}

func outputCompileText(formatter *OutputFormatter, comp *ir.Compilation, sourceCount int) {
	w := formatter.Writer

	if comp.Succeeded() {
		formatter.Pass("Compiled %d source(s), %d generated", sourceCount, len(comp.Generated()))
	} else {
		formatter.Fail("Compilation failed: %d error(s), %d warning(s)", len(comp.Errors()), len(comp.Warnings()))
	}

	if diags := comp.Diagnostics(); len(diags) > 0 {
		fmt.Fprintln(w, "\nDiagnostics:")
		for _, d := range diags {
			fmt.Fprintf(w, "  %s\n", colorDiagnostic(d))
		}
	}

	if generated := comp.Generated(); len(generated) > 0 {
		fmt.Fprintln(w, "\nGenerated:")
		for _, src := range generated {
			fmt.Fprintf(w, "--- %s ---\n", src.Filename())
			fmt.Fprint(w, src.Content)
			if !strings.HasSuffix(src.Content, "\n") {
				fmt.Fprintln(w)
			}
		}
	}

	for _, run := range comp.ProcessorRuns() {
		formatter.VerboseLog("processor %s: %d round(s), %d diagnostic(s), generated %v",
			run.Processor, run.Rounds, run.Diagnostics, run.Generated)
	}
}

// colorDiagnostic renders d like ir.Diagnostic.String with the kind
// colored by severity.
func colorDiagnostic(d ir.Diagnostic) string {
	c := noteColor
	switch d.Kind {
	case ir.KindError:
		c = failColor
	case ir.KindWarning:
		c = warnColor
	case ir.KindNote, ir.KindOther:
	}
	plain := d.String()
	kind := d.Kind.String()
	i := strings.LastIndex(plain, kind+": "+d.Message)
	return plain[:i] + c.Sprint(kind) + plain[i+len(kind):]
}

// commandError reports err and returns exit code 2.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
