// Package policy decides whether an actor may act on an expense at its
// current approval step. It gates the approve and reject operations and is
// also used to filter an approver's pending queue.
package policy

import "github.com/expenseflow/expense-approval/internal/domain/entity"

// CanAct reports whether the user is permitted to approve or reject the
// expense at its current step.
//
// Admins may act at every step. A manager role covers the manager step; the
// finance and director steps are gated by the corresponding capability
// flags. Any manager may act at the manager step - the submitter's own
// manager is not singled out.
func CanAct(user *entity.User, expense *entity.Expense) bool {
	if user == nil || expense == nil {
		return false
	}
	if expense.Status != entity.StatusPending {
		return false
	}
	if user.Role == entity.RoleAdmin {
		return true
	}

	switch expense.CurrentStep {
	case entity.StepManager:
		return user.Role == entity.RoleManager
	case entity.StepFinance:
		return user.IsFinance
	case entity.StepDirector:
		return user.IsDirector
	}
	return false
}
