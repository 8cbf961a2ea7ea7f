package entity

import "time"

// Expense is a single expense report moving through the approval chain.
// Amount is always expressed in the company base currency and is the
// authoritative figure for all business logic. OriginalAmount and
// OriginalCurrency are populated only when the submission currency differed
// from the base currency.
type Expense struct {
	ID               string           `json:"id"`
	CompanyID        string           `json:"company_id"`
	UserID           string           `json:"user_id"`
	UserName         string           `json:"user_name"`
	Amount           float64          `json:"amount"`
	OriginalAmount   *float64         `json:"original_amount,omitempty"`
	OriginalCurrency string           `json:"original_currency,omitempty"`
	Category         string           `json:"category"`
	Description      string           `json:"description"`
	Date             string           `json:"date"`
	ReceiptURL       string           `json:"receipt_url,omitempty"`
	Status           ApprovalStatus   `json:"status"`
	CurrentStep      ApprovalStep     `json:"current_step"`
	Approvals        []ApprovalRecord `json:"approvals"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsTerminal returns true once the expense has reached a final decision.
// Terminal expenses accept no further approval records.
func (e *Expense) IsTerminal() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}

// ApprovalRecord is one decision event in an expense's history. Records are
// append-only: once written they are never mutated or deleted.
type ApprovalRecord struct {
	ID           int64          `json:"id,omitempty"`
	ExpenseID    string         `json:"expense_id,omitempty"`
	Step         ApprovalStep   `json:"step"`
	ApproverID   string         `json:"approver_id"`
	ApproverName string         `json:"approver_name,omitempty"`
	Status       ApprovalStatus `json:"status"`
	Comment      string         `json:"comment,omitempty"`
	Date         time.Time      `json:"date"`
}
