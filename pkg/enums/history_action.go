package enums

import "fmt"

// HistoryAction maps to the history_action enum in Postgres.
type HistoryAction string

const (
	HistoryActionAssign HistoryAction = "assign"
	HistoryActionMove   HistoryAction = "move"
	HistoryActionReturn HistoryAction = "return"
)

var validHistoryActions = []HistoryAction{
	HistoryActionAssign,
	HistoryActionMove,
	HistoryActionReturn,
}

// IsValid checks whether the action matches the canonical enum.
func (a HistoryAction) IsValid() bool {
	for _, candidate := range validHistoryActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseHistoryAction converts raw strings into HistoryAction.
func ParseHistoryAction(value string) (HistoryAction, error) {
	for _, candidate := range validHistoryActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history action %q", value)
}
