package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository on SQLite. Approval
// records live in a child table and are always loaded in insertion order.
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new expense with an empty approval history.
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			id, company_id, user_id, user_name, amount, original_amount,
			original_currency, category, description, expense_date,
			receipt_url, status, current_step, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var originalAmount sql.NullFloat64
	if expense.OriginalAmount != nil {
		originalAmount = sql.NullFloat64{Float64: *expense.OriginalAmount, Valid: true}
	}

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		expense.ID,
		expense.CompanyID,
		expense.UserID,
		expense.UserName,
		expense.Amount,
		originalAmount,
		expense.OriginalCurrency,
		expense.Category,
		expense.Description,
		expense.Date,
		expense.ReceiptURL,
		expense.Status,
		expense.CurrentStep,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err), zap.String("expense_id", expense.ID))
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense with its approval history. Returns nil
// without error when no expense matches.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := selectExpenses + ` WHERE id = ?`

	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.String("expense_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := r.loadApprovals(ctx, map[string]*entity.Expense{expense.ID: expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListByUser returns the user's expenses, newest first.
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	query := selectExpenses + ` WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListPending returns all expenses still awaiting a decision, oldest first
// so approvers work the queue in submission order.
func (r *ExpenseRepository) ListPending(ctx context.Context) ([]*entity.Expense, error) {
	query := selectExpenses + ` WHERE status = ? ORDER BY created_at ASC`
	return r.list(ctx, query, entity.StatusPending)
}

// ApplyDecision appends the approval records and updates the expense's
// status, step and timestamp. Callers run this inside a transaction so the
// record append and the step update land atomically.
func (r *ExpenseRepository) ApplyDecision(ctx context.Context, expense *entity.Expense, records ...*entity.ApprovalRecord) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	insert := `
		INSERT INTO approval_records (
			expense_id, step, approver_id, approver_name, status, comment, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, record := range records {
		result, err := exec.ExecContext(ctx, insert,
			expense.ID,
			record.Step,
			record.ApproverID,
			record.ApproverName,
			record.Status,
			record.Comment,
			record.Date,
		)
		if err != nil {
			r.logger.Error("Failed to append approval record", zap.Error(err), zap.String("expense_id", expense.ID))
			return fmt.Errorf("failed to append approval record: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			record.ID = id
			record.ExpenseID = expense.ID
		}
	}

	update := `UPDATE expenses SET status = ?, current_step = ?, updated_at = ? WHERE id = ?`
	result, err := exec.ExecContext(ctx, update,
		expense.Status,
		expense.CurrentStep,
		expense.UpdatedAt,
		expense.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update expense state", zap.Error(err), zap.String("expense_id", expense.ID))
		return fmt.Errorf("failed to update expense state: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s vanished during decision", expense.ID)
	}
	return nil
}

const selectExpenses = `
	SELECT id, company_id, user_id, user_name, amount, original_amount,
		original_currency, category, description, expense_date,
		receipt_url, status, current_step, created_at, updated_at
	FROM expenses
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	var originalAmount sql.NullFloat64

	err := row.Scan(
		&expense.ID,
		&expense.CompanyID,
		&expense.UserID,
		&expense.UserName,
		&expense.Amount,
		&originalAmount,
		&expense.OriginalCurrency,
		&expense.Category,
		&expense.Description,
		&expense.Date,
		&expense.ReceiptURL,
		&expense.Status,
		&expense.CurrentStep,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if originalAmount.Valid {
		expense.OriginalAmount = &originalAmount.Float64
	}
	expense.Approvals = []entity.ApprovalRecord{}
	return &expense, nil
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	byID := make(map[string]*entity.Expense)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := r.loadApprovals(ctx, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadApprovals attaches the ordered approval history to each expense.
func (r *ExpenseRepository) loadApprovals(ctx context.Context, byID map[string]*entity.Expense) error {
	if len(byID) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(byID))
	args := make([]interface{}, 0, len(byID))
	for id := range byID {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT id, expense_id, step, approver_id, approver_name, status, comment, decided_at
		FROM approval_records
		WHERE expense_id IN (%s)
		ORDER BY id ASC
	`, strings.Join(placeholders, ", "))

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to load approval records", zap.Error(err))
		return fmt.Errorf("failed to load approval records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record entity.ApprovalRecord
		err := rows.Scan(
			&record.ID,
			&record.ExpenseID,
			&record.Step,
			&record.ApproverID,
			&record.ApproverName,
			&record.Status,
			&record.Comment,
			&record.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to scan approval record: %w", err)
		}
		if expense, ok := byID[record.ExpenseID]; ok {
			expense.Approvals = append(expense.Approvals, record)
		}
	}
	return rows.Err()
}
