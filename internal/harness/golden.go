package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cuetest/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON: the scenario name,
// whether it passed, and the compilation snapshot (status, diagnostics and
// generated file hashes). The compilation ID is left out.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	m := map[string]any{
		"scenario_name": scenarioName,
		"pass":          result.Pass,
	}
	if result.Compilation != nil {
		m["compilation"] = result.Compilation.Snapshot()
	}
	return ir.MarshalCanonical(m)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
