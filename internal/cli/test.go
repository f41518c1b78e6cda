package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cuetest/internal/harness"
	"github.com/roach88/cuetest/internal/ir"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
	Jobs   int    // scenarios run concurrently; 0 uses config or NumCPU
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// SnapshotHash identifies the compilation snapshot the golden file
	// holds, so runs can be compared without reading goldens.
	SnapshotHash string `json:"snapshot_hash,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run compile-test scenarios",
		Long: `Run YAML scenarios: compile each scenario's sources with its
processors and check the expected status, diagnostics and generated
files. When golden/<scenario>.golden exists next to a scenario file the
compilation snapshot must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  cuetest test ./scenarios
  cuetest test ./scenarios --filter "generate-*"
  cuetest test ./scenarios --update
  cuetest test ./scenarios --jobs 4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "number of scenarios to run in parallel")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return commandError(formatter, ErrCodeScanError, fmt.Sprintf("failed to find scenarios: %v", err))
	}

	if len(scenarioFiles) == 0 {
		if formatter.JSON() {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	jobs := opts.jobs(cmd)
	formatter.VerboseLog("Running %d scenario(s) with %d job(s)", len(scenarioFiles), jobs)

	h := harness.New(harness.WithLogger(opts.logger()))
	results := make([]ScenarioResult, len(scenarioFiles))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(scenarioFiles)))
	for i, file := range scenarioFiles {
		g.Go(func() error {
			results[i] = runScenario(gctx, h, file, opts.Update)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	result := TestResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result, opts.Update)
}

// jobs resolves the parallelism from the flag, then config, then the CPU
// count.
func (o *TestOptions) jobs(cmd *cobra.Command) int {
	if cmd.Flags().Changed("jobs") && o.Jobs > 0 {
		return o.Jobs
	}
	if n := o.config().Jobs; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// findScenarioFiles finds all YAML scenario files in a directory. Files
// under golden/ directories are skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario loads and executes one scenario file and checks it against
// its golden file, if any.
func runScenario(ctx context.Context, h *harness.Harness, scenarioFile string, update bool) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	failed := func(format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, File: scenarioFile, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return failed("failed to load scenario: %v", err)
	}
	name = scenario.Name

	result, err := h.Run(ctx, scenario)
	if err != nil {
		return failed("execution failed: %v", err)
	}
	hash, err := ir.SnapshotHash(result.Compilation)
	if err != nil {
		return failed("failed to hash snapshot: %v", err)
	}

	goldenPath := goldenFilePath(scenarioFile)
	if update {
		if err := updateGoldenFile(scenario, result, goldenPath); err != nil {
			return failed("failed to update golden file: %v", err)
		}
	} else if _, err := os.Stat(goldenPath); err == nil {
		match, err := compareWithGolden(scenario, result, goldenPath)
		if err != nil {
			return failed("golden comparison failed: %v", err)
		}
		if !match {
			result.AddError("compilation snapshot does not match golden file (run with --update to regenerate)")
		}
	}

	return ScenarioResult{
		Name:         name,
		File:         scenarioFile,
		Pass:         result.Pass,
		Errors:       result.Errors,
		SnapshotHash: hash,
	}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current compilation snapshot as the golden
// file.
func updateGoldenFile(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the result snapshot against the golden file.
// A trailing newline in the golden file is ignored.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return bytes.Equal(bytes.TrimSuffix(goldenData, []byte("\n")), currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := formatter.Failure(ErrCodeTestFailed, msg, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// outputTestText prints one line per scenario in file order, then a
// summary.
func outputTestText(formatter *OutputFormatter, result TestResult, updated bool) error {
	w := formatter.Writer

	for _, r := range result.Scenarios {
		if !r.Pass {
			formatter.Fail("%s", r.Name)
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
			}
			continue
		}
		if updated {
			formatter.Pass("%s (golden updated)", r.Name)
		} else {
			formatter.Pass("%s", r.Name)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	formatter.Pass("All scenarios passed")
	return nil
}
