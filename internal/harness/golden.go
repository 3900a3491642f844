package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// Snapshot is the golden form of a scenario run: the step trace and the
// final displayed cells of every sheet. It is serialized as canonical JSON
// so byte comparison is stable.
type Snapshot struct {
	ScenarioName string                       `json:"scenario_name"`
	Trace        []TraceEvent                 `json:"trace"`
	State        map[string]map[string]string `json:"state"`
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		State:        result.State,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
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
