package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/suql/internal/ir"
)

// Snapshot renders the deterministic part of a result as canonical JSON:
// the scenario name, the SQL per query and the error code. Error messages
// are left out. The output ends with a newline.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	sqlMap := make(map[string]any, len(result.SQL))
	for name, text := range result.SQL {
		sqlMap[name] = text
	}
	doc := map[string]any{
		"scenario_name": scenario.Name,
		"sql":           sqlMap,
	}
	if result.ErrorCode != "" {
		doc["error"] = result.ErrorCode
	}

	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario and compares its snapshot against the golden
// file testdata/golden/<scenario name>.golden.
//
// Golden files are updated with: go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %q: %v", scenario.Name, err)
	}
	AssertGolden(t, scenario, result)
	return result
}

// AssertGolden compares the result snapshot against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		t.Fatalf("scenario %q: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
