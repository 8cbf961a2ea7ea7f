package entity

import "time"

// Company owns the base currency and the conditional approval rule that
// applies to every expense submitted by its users.
type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ApprovalRule is a company's conditional auto-approval configuration.
// When Active is false the rule never triggers, regardless of type.
type ApprovalRule struct {
	Type              RuleType `json:"type"`
	Percentage        int      `json:"percentage,omitempty"`
	SpecificApprovers []string `json:"specific_approvers,omitempty"`
	Active            bool     `json:"active"`
}

// UsesPercentage returns true if the rule's percentage threshold applies.
func (r *ApprovalRule) UsesPercentage() bool {
	return r.Type == RulePercentage || r.Type == RuleHybrid
}

// UsesSpecificApprovers returns true if the rule's approver set applies.
func (r *ApprovalRule) UsesSpecificApprovers() bool {
	return r.Type == RuleSpecific || r.Type == RuleHybrid
}
