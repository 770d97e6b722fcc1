package jobcan

import (
	"fmt"
	"strings"
)

// Action is a stamp the account can submit.
type Action int

const (
	ClockIn Action = iota
	ClockOut
	StartBreak
	EndBreak
)

// Actions lists every Action in declaration order.
var Actions = []Action{ClockIn, ClockOut, StartBreak, EndBreak}

type actionInfo struct {
	name string
	// alternate spelling used by the newer generation of the attendance UI
	alias string
	// value of the `adit_item` form field
	wire string
	// value of `current_status` the stamp endpoint answers with on success
	expected string
}

var actionTable = [...]actionInfo{
	ClockIn:    {name: "ClockIn", alias: "WorkStart", wire: "work_start", expected: tokenWorking},
	ClockOut:   {name: "ClockOut", alias: "WorkEnd", wire: "work_end", expected: tokenReturnedHome},
	StartBreak: {name: "StartBreak", alias: "RestStart", wire: "rest_start", expected: tokenResting},
	EndBreak:   {name: "EndBreak", alias: "RestEnd", wire: "rest_end", expected: tokenWorking},
}

func (a Action) info() actionInfo {
	if a < 0 || int(a) >= len(actionTable) {
		panic(fmt.Sprintf("jobcan: invalid action %d", int(a)))
	}
	return actionTable[a]
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionTable) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionTable[a].name
}

// Alias is the name the newer generation of the attendance UI uses.
func (a Action) Alias() string {
	return a.info().alias
}

// WireParam is the `adit_item` value the stamp endpoint expects.
func (a Action) WireParam() string {
	return a.info().wire
}

// ExpectedStatusToken is the `current_status` the stamp endpoint reports
// right after the action was accepted.
func (a Action) ExpectedStatusToken() string {
	return a.info().expected
}

// ExpectedStatus is ExpectedStatusToken interpreted as a WorkingStatus.
func (a Action) ExpectedStatus() WorkingStatus {
	return statusTokens[a.info().expected]
}

func normalizeActionName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return strings.TrimSpace(name)
}

// ParseAction accepts both naming generations ("clock-in", "ClockIn",
// "work-start", "work_start", ...).
func ParseAction(name string) (Action, error) {
	normalized := normalizeActionName(name)
	for _, a := range Actions {
		info := a.info()
		if normalized == normalizeActionName(info.name) ||
			normalized == normalizeActionName(info.alias) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown stamp action %q", name)
}
