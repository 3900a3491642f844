package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/harness"
)

const scenariosDir = "../harness/testdata/scenarios"

func TestRunScenarioText(t *testing.T) {
	out, err := execute(t, "run", filepath.Join(scenariosDir, "formula_chain.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: formula_chain")
	assert.Contains(t, out, "set_code")
	assert.Contains(t, out, "changed: Sheet 1!A1, Sheet 1!B1, Sheet 1!C1")
	assert.Contains(t, out, "  A1 = 9\n  B1 = 10\n  C1 = 20\n")
	assert.Contains(t, out, "✓ PASS")
}

func TestRunScenarioJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", filepath.Join(scenariosDir, "python_host.yaml"))
	require.NoError(t, err)

	var result harness.Result
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Pass)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
}

func TestRunFailingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: wrong
steps:
  - action: set_value
    cell: A1
    value: "1"
assertions:
  - type: display
    cell: A1
    value: "2"
`), 0644))

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ FAIL")
	assert.Contains(t, out, "assertions[0]")
}

func TestRunMissingScenario(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}
