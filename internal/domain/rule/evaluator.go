// Package rule evaluates a company's conditional approval rule against an
// expense's accumulated approval history. Evaluation is pure: it reads only
// its arguments and never mutates them.
package rule

import "github.com/expenseflow/expense-approval/internal/domain/entity"

// Evaluate reports whether the approval history satisfies the company's
// conditional rule, in which case the expense is auto-approved ahead of the
// remaining chain steps.
//
// The percentage threshold is measured against the full three-step chain,
// not the steps taken so far: "60%" means 60% of the whole chain has signed
// off. The specific-approver condition is met as soon as any listed approver
// has an approved record in the history. Hybrid is the OR of the two.
func Evaluate(r *entity.ApprovalRule, approvals []entity.ApprovalRecord) bool {
	if r == nil || !r.Active {
		return false
	}

	switch r.Type {
	case entity.RulePercentage:
		return percentageMet(r, approvals)
	case entity.RuleSpecific:
		return specificApproverMet(r, approvals)
	case entity.RuleHybrid:
		return percentageMet(r, approvals) || specificApproverMet(r, approvals)
	}
	return false
}

func percentageMet(r *entity.ApprovalRule, approvals []entity.ApprovalRecord) bool {
	if !r.UsesPercentage() || r.Percentage <= 0 {
		return false
	}

	approved := 0
	for _, rec := range approvals {
		if rec.Status == entity.StatusApproved {
			approved++
		}
	}

	total := len(entity.ApprovalChain)
	return float64(approved)/float64(total)*100 >= float64(r.Percentage)
}

func specificApproverMet(r *entity.ApprovalRule, approvals []entity.ApprovalRecord) bool {
	if !r.UsesSpecificApprovers() || len(r.SpecificApprovers) == 0 {
		return false
	}

	listed := make(map[string]bool, len(r.SpecificApprovers))
	for _, id := range r.SpecificApprovers {
		listed[id] = true
	}

	for _, rec := range approvals {
		if rec.Status == entity.StatusApproved && listed[rec.ApproverID] {
			return true
		}
	}
	return false
}
