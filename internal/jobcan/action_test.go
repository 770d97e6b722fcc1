package jobcan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionTable(t *testing.T) {
	table := []struct {
		action         Action
		wire           string
		expectedToken  string
		expectedStatus WorkingStatus
	}{
		{action: ClockIn, wire: "work_start", expectedToken: "working", expectedStatus: Working},
		{action: ClockOut, wire: "work_end", expectedToken: "returned_home", expectedStatus: NotWorking},
		{action: StartBreak, wire: "rest_start", expectedToken: "resting", expectedStatus: Resting},
		{action: EndBreak, wire: "rest_end", expectedToken: "working", expectedStatus: Working},
	}

	require.Len(t, table, len(Actions))

	for _, row := range table {
		// read twice, the lookup has no hidden state
		for i := 0; i < 2; i++ {
			require.Equal(t, row.wire, row.action.WireParam())
			require.Equal(t, row.expectedToken, row.action.ExpectedStatusToken())
			require.Equal(t, row.expectedStatus, row.action.ExpectedStatus())
		}
	}
}

func TestActionWireParamsAreDistinct(t *testing.T) {
	seen := map[string]Action{}
	for _, a := range Actions {
		_, dup := seen[a.WireParam()]
		require.False(t, dup, "duplicate wire param %s", a.WireParam())
		seen[a.WireParam()] = a
	}
}

func TestInvalidActionPanics(t *testing.T) {
	require.Panics(t, func() { Action(42).WireParam() })
	require.Equal(t, "Action(42)", Action(42).String())
}

func TestParseAction(t *testing.T) {
	table := []struct {
		input    string
		expected Action
	}{
		{input: "clock-in", expected: ClockIn},
		{input: "ClockIn", expected: ClockIn},
		{input: "work-start", expected: ClockIn},
		{input: "work_end", expected: ClockOut},
		{input: "clock-out", expected: ClockOut},
		{input: "start-break", expected: StartBreak},
		{input: "RestStart", expected: StartBreak},
		{input: "end-break", expected: EndBreak},
		{input: " rest_end ", expected: EndBreak},
	}

	for _, row := range table {
		action, err := ParseAction(row.input)
		require.NoError(t, err, row.input)
		require.Equal(t, row.expected, action, row.input)
	}

	_, err := ParseAction("lunch")
	require.Error(t, err)
}

func TestWorkingStatusString(t *testing.T) {
	require.Equal(t, "Working", Working.String())
	require.Equal(t, "Resting", Resting.String())
	require.Equal(t, "Not working", NotWorking.String())
}

func TestAliasParsesBack(t *testing.T) {
	for _, a := range Actions {
		parsed, err := ParseAction(a.Alias())
		require.NoError(t, err)
		require.Equal(t, a, parsed)
		require.NotEqual(t, a.String(), a.Alias())
	}
}
