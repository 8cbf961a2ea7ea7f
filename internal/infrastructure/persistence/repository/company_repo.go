package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/sqlite"
)

// CompanyRepository implements port.CompanyRepository on SQLite. The
// approval rule is stored denormalized on the company row; the approver set
// is serialized as JSON.
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID returns nil without error when no company matches.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, base_currency, country, created_at, updated_at
		FROM companies
		WHERE id = ?
	`

	var company entity.Company
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.BaseCurrency,
		&company.Country,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company", zap.String("company_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// GetApprovalRule returns nil without error when the company has no rule
// configured.
func (r *CompanyRepository) GetApprovalRule(ctx context.Context, companyID string) (*entity.ApprovalRule, error) {
	query := `
		SELECT rule_type, rule_percentage, rule_approvers, rule_active
		FROM companies
		WHERE id = ?
	`

	var ruleType sql.NullString
	var percentage sql.NullInt64
	var approversJSON sql.NullString
	var active sql.NullBool

	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, companyID).Scan(
		&ruleType, &percentage, &approversJSON, &active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval rule", zap.String("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval rule: %w", err)
	}

	if !ruleType.Valid || ruleType.String == "" {
		return nil, nil
	}

	rule := &entity.ApprovalRule{
		Type:       entity.RuleType(ruleType.String),
		Percentage: int(percentage.Int64),
		Active:     active.Bool,
	}
	if approversJSON.Valid && approversJSON.String != "" {
		if err := json.Unmarshal([]byte(approversJSON.String), &rule.SpecificApprovers); err != nil {
			return nil, fmt.Errorf("failed to decode rule approvers: %w", err)
		}
	}
	return rule, nil
}

// UpdateApprovalRule replaces the company's rule configuration.
func (r *CompanyRepository) UpdateApprovalRule(ctx context.Context, companyID string, rule *entity.ApprovalRule) error {
	approversJSON, err := json.Marshal(rule.SpecificApprovers)
	if err != nil {
		return fmt.Errorf("failed to encode rule approvers: %w", err)
	}

	query := `
		UPDATE companies
		SET rule_type = ?, rule_percentage = ?, rule_approvers = ?, rule_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		rule.Type,
		rule.Percentage,
		string(approversJSON),
		rule.Active,
		time.Now().UTC(),
		companyID,
	)
	if err != nil {
		r.logger.Error("Failed to update approval rule", zap.String("company_id", companyID), zap.Error(err))
		return fmt.Errorf("failed to update approval rule: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("company %s not found", companyID)
	}
	return nil
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
