// Package port defines the interfaces through which the application layer
// reaches persistence. Implementations live under internal/infrastructure.
package port

import (
	"context"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// ExpenseRepository persists expenses together with their append-only
// approval history.
type ExpenseRepository interface {
	// Create stores a new expense with an empty approval history.
	Create(ctx context.Context, expense *entity.Expense) error

	// GetByID loads an expense including its ordered approval records.
	// Returns nil without error when no expense matches.
	GetByID(ctx context.Context, id string) (*entity.Expense, error)

	// ListByUser returns all expenses submitted by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error)

	// ListPending returns all expenses still awaiting a decision.
	ListPending(ctx context.Context) ([]*entity.Expense, error)

	// ApplyDecision appends the approval records in order and updates the
	// expense's status, current step and updated-at timestamp. The write
	// must be atomic: no reader may observe a record without the
	// corresponding step update.
	ApplyDecision(ctx context.Context, expense *entity.Expense, records ...*entity.ApprovalRecord) error
}

// UserRepository reads actor identities.
type UserRepository interface {
	// GetByID returns nil without error when no user matches.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error)
}

// CompanyRepository reads and updates company configuration.
type CompanyRepository interface {
	// GetByID returns nil without error when no company matches.
	GetByID(ctx context.Context, id string) (*entity.Company, error)

	// GetApprovalRule returns nil without error when the company has no
	// rule configured.
	GetApprovalRule(ctx context.Context, companyID string) (*entity.ApprovalRule, error)
	UpdateApprovalRule(ctx context.Context, companyID string, rule *entity.ApprovalRule) error
}

// RateRepository reads the exchange-rate table for a base currency.
// Rates are expressed as units of the keyed currency per one unit of base.
type RateRepository interface {
	GetRates(ctx context.Context, baseCurrency string) (map[string]float64, error)
}

// TransactionManager executes a function within a database transaction.
// Repository calls made with the derived context join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
