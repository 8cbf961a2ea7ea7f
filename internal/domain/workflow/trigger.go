package workflow

// Trigger represents an event that can cause a state transition.
type Trigger string

const (
	// TriggerApprove advances the expense one step along the chain, or to
	// APPROVED from the final step.
	TriggerApprove Trigger = "APPROVE"

	// TriggerAutoApprove short-circuits the remaining chain when the
	// company's conditional rule is satisfied.
	TriggerAutoApprove Trigger = "AUTO_APPROVE"

	// TriggerReject ends the workflow at any pending step.
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
