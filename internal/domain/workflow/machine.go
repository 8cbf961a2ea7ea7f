package workflow

import "fmt"

// StateMachine tracks the current state of one expense and validates
// transitions against the configured approval chain.
type StateMachine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// expenseTransitions is the full transition table for the approval chain.
// Rejection is permitted at every pending step; auto-approval can
// short-circuit the chain from any pending step.
var expenseTransitions = map[State]map[Trigger]State{
	StatePendingManager: {
		TriggerApprove:     StatePendingFinance,
		TriggerAutoApprove: StateApproved,
		TriggerReject:      StateRejected,
	},
	StatePendingFinance: {
		TriggerApprove:     StatePendingDirector,
		TriggerAutoApprove: StateApproved,
		TriggerReject:      StateRejected,
	},
	StatePendingDirector: {
		TriggerApprove:     StateApproved,
		TriggerAutoApprove: StateApproved,
		TriggerReject:      StateRejected,
	},
	// APPROVED and REJECTED are terminal - no outgoing transitions.
}

// NewExpenseMachine creates a state machine for the expense approval chain,
// positioned at the given initial state.
func NewExpenseMachine(initial State) *StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &StateMachine{
		current:     initial,
		transitions: expenseTransitions,
	}
}

// State returns the current state.
func (m *StateMachine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state.
func (m *StateMachine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed.
func (m *StateMachine) Fire(trigger Trigger) error {
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current state.
func (m *StateMachine) PermittedTriggers() []Trigger {
	outgoing := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(outgoing))
	for trigger := range outgoing {
		triggers = append(triggers, trigger)
	}
	return triggers
}
