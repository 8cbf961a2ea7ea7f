package entity

// ApprovalStatus is the lifecycle status of an expense or of a single decision.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// IsValid returns true if the status is a known approval status.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s ApprovalStatus) String() string {
	return string(s)
}

// ApprovalStep is one step of the sequential approval chain.
type ApprovalStep string

const (
	StepManager  ApprovalStep = "manager"
	StepFinance  ApprovalStep = "finance"
	StepDirector ApprovalStep = "director"
)

// ApprovalChain is the ordered sequence of steps an expense passes through.
var ApprovalChain = []ApprovalStep{StepManager, StepFinance, StepDirector}

// IsValid returns true if the step is part of the approval chain.
func (s ApprovalStep) IsValid() bool {
	switch s {
	case StepManager, StepFinance, StepDirector:
		return true
	}
	return false
}

// String returns the string representation of the step.
func (s ApprovalStep) String() string {
	return string(s)
}

// UserRole is the base role of a user.
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RoleAdmin    UserRole = "admin"
)

// RuleType selects how a company's conditional approval rule is evaluated.
type RuleType string

const (
	RulePercentage RuleType = "percentage"
	RuleSpecific   RuleType = "specific"
	RuleHybrid     RuleType = "hybrid"
)

// IsValid returns true if the rule type is known.
func (t RuleType) IsValid() bool {
	switch t {
	case RulePercentage, RuleSpecific, RuleHybrid:
		return true
	}
	return false
}

// Rule-engine auto-approvals are attributed to the system rather than a user.
const (
	SystemApproverID   = "system"
	SystemApproverName = "System"
)

// SuggestedCategories is the fixed suggestion set shown at submission time.
// Category itself remains free-form.
var SuggestedCategories = []string{
	"Travel",
	"Meals",
	"Office Supplies",
	"Entertainment",
	"Transportation",
	"Accommodation",
	"Training",
	"Software",
	"Hardware",
	"Other",
}
