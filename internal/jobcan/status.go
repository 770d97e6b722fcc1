package jobcan

import "fmt"

// WorkingStatus is the attendance state the site reports for the account.
type WorkingStatus int

const (
	NotWorking WorkingStatus = iota
	Working
	Resting
)

func (s WorkingStatus) String() string {
	switch s {
	case Working:
		return "Working"
	case Resting:
		return "Resting"
	case NotWorking:
		return "Not working"
	}
	return fmt.Sprintf("WorkingStatus(%d)", int(s))
}

// status tokens as they appear in `var current_status = "...";` and in the
// json body returned by the stamp endpoint
const (
	tokenWorking         = "working"
	tokenResting         = "resting"
	tokenReturnedHome    = "returned_home"
	tokenHavingBreakfast = "having_breakfast"
)

var statusTokens = map[string]WorkingStatus{
	tokenWorking:         Working,
	tokenResting:         Resting,
	tokenReturnedHome:    NotWorking,
	tokenHavingBreakfast: NotWorking,
}

// ParseStatusToken maps a raw status token to a WorkingStatus.
func ParseStatusToken(token string) (WorkingStatus, error) {
	status, ok := statusTokens[token]
	if !ok {
		return NotWorking, &UnexpectedResponseError{
			Message: fmt.Sprintf("unknown working status %q", token),
		}
	}
	return status, nil
}
