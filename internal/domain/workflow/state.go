package workflow

import (
	"fmt"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// State represents a workflow state in the expense approval lifecycle.
// The three pending states carry the approval step that is currently due.
type State string

const (
	StatePendingManager  State = "PENDING_MANAGER"
	StatePendingFinance  State = "PENDING_FINANCE"
	StatePendingDirector State = "PENDING_DIRECTOR"
	StateApproved        State = "APPROVED"
	StateRejected        State = "REJECTED"
)

var validStates = map[State]bool{
	StatePendingManager:  true,
	StatePendingFinance:  true,
	StatePendingDirector: true,
	StateApproved:        true,
	StateRejected:        true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is terminal (no further transitions allowed).
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid workflow state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

var stateByStep = map[entity.ApprovalStep]State{
	entity.StepManager:  StatePendingManager,
	entity.StepFinance:  StatePendingFinance,
	entity.StepDirector: StatePendingDirector,
}

// StateFor maps an expense's persisted status and step onto a workflow state.
func StateFor(status entity.ApprovalStatus, step entity.ApprovalStep) (State, error) {
	switch status {
	case entity.StatusApproved:
		return StateApproved, nil
	case entity.StatusRejected:
		return StateRejected, nil
	case entity.StatusPending:
		if s, ok := stateByStep[step]; ok {
			return s, nil
		}
		return "", fmt.Errorf("%w: unknown approval step %q", ErrInvalidState, step)
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
}

// StatusStep is the inverse of StateFor. For terminal states the step is
// empty; callers freeze the expense's last step themselves.
func (s State) StatusStep() (entity.ApprovalStatus, entity.ApprovalStep) {
	switch s {
	case StatePendingManager:
		return entity.StatusPending, entity.StepManager
	case StatePendingFinance:
		return entity.StatusPending, entity.StepFinance
	case StatePendingDirector:
		return entity.StatusPending, entity.StepDirector
	case StateApproved:
		return entity.StatusApproved, ""
	case StateRejected:
		return entity.StatusRejected, ""
	}
	return "", ""
}
