package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithAssertions(t *testing.T, assertions ...Assertion) *Result {
	t.Helper()
	scenario := &Scenario{
		Name: "assertions",
		Steps: []Step{
			{Action: ActionSetValues, Cell: "A1", Rows: [][]string{{"1", "2"}, {"3"}}},
		},
		Assertions: assertions,
	}
	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestAssertions_Pass(t *testing.T) {
	result := runWithAssertions(t,
		Assertion{Type: AssertDisplay, Cell: "B1", Value: "2"},
		Assertion{Type: AssertRange, Range: "A1:B2", Rows: [][]string{{"1", "2"}, {"3", ""}}},
		Assertion{Type: AssertHistory, Undo: boolPtr(true)},
		Assertion{Type: AssertSuspended, Count: 0},
		Assertion{Type: AssertDispatched, Count: 0},
		Assertion{Type: AssertReplay},
	)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertions_DisplayMismatch(t *testing.T) {
	result := runWithAssertions(t, Assertion{Type: AssertDisplay, Cell: "A1", Value: "9"})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, `assertions[0]: assertion failed: display: expected A1 = "9", got "1"`, result.Errors[0])
}

func TestAssertions_RangeMismatch(t *testing.T) {
	result := runWithAssertions(t, Assertion{Type: AssertRange, Range: "A1:B1", Rows: [][]string{{"1"}}})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `B1="2" (want "")`)
}

func TestAssertions_CodeErrorWithoutCode(t *testing.T) {
	result := runWithAssertions(t, Assertion{Type: AssertCodeError, Cell: "A1", Kind: "runtime"})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no code cell")
}

func TestAssertions_History(t *testing.T) {
	result := runWithAssertions(t, Assertion{Type: AssertHistory, Redo: boolPtr(true)})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected redo=true, got redo=false")
}

func TestAssertions_Counts(t *testing.T) {
	result := runWithAssertions(t,
		Assertion{Type: AssertSuspended, Count: 2},
		Assertion{Type: AssertDispatched, Count: 1},
	)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected 2 parked, got 0 parked")
	assert.Contains(t, result.Errors[1], "expected 1 host requests, got 0 host requests")
}

func TestAssertions_UnknownSheet(t *testing.T) {
	result := runWithAssertions(t, Assertion{Type: AssertDisplay, Sheet: "Nope", Cell: "A1"})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `sheet "Nope" not found`)
}

func TestAssertions_ReplayRefusesParked(t *testing.T) {
	scenario := &Scenario{
		Name: "parked",
		Steps: []Step{
			{Action: ActionSetCode, Cell: "A1", Language: "Python", Code: "1"},
		},
		Assertions: []Assertion{{Type: AssertReplay}},
	}
	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "1 transactions still waiting on the host")
}
