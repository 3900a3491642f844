package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValueAndFormula(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "set", "--db", db, "A1", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Sheet 1!A1 = 5")
	assert.Contains(t, out, "1 transaction(s) saved")

	out, err = execute(t, "--format", "json", "set", "--db", db, "Sheet 1!B1", "A1 * 2", "--language", "formula")
	require.NoError(t, err)

	var result SetResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Sheet 1!B1", result.Cell)
	assert.Equal(t, "10", result.Display)
	assert.Contains(t, result.Changed, "Sheet 1!B1")
	assert.Equal(t, 1, result.Saved)
	assert.Empty(t, result.Waiting)
}

func TestSetRecomputesDependents(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "set", "--db", db, "A1", "1")
	require.NoError(t, err)
	_, err = execute(t, "set", "--db", db, "B1", "A1 + 1", "--language", "formula")
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "set", "--db", db, "A1", "41")
	require.NoError(t, err)

	var result SetResult
	decode(t, out, &result)
	assert.Equal(t, []string{"Sheet 1!A1", "Sheet 1!B1"}, result.Changed)
}

func TestSetPythonWithoutHost(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--format", "json", "set", "--db", db, "A1", "1 + 1", "--language", "python")
	require.NoError(t, err)

	var result SetResult
	decode(t, out, &result)
	assert.Equal(t, "ERROR", result.Display)
	assert.Empty(t, result.Waiting)
}

func TestSetErrors(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "set", "--db", db, "Nope!A1", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "set", "--db", db, "A1", "1", "--language", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid language")

	_, err = execute(t, "set", "--db", db, "A1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}
