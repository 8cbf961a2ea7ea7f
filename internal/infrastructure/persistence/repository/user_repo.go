package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository on SQLite.
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const selectUsers = `
	SELECT id, name, email, role, company_id, manager_id,
		is_finance, is_director, created_at, updated_at
	FROM users
`

// GetByID returns nil without error when no user matches.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, selectUsers+` WHERE id = ?`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByCompany returns the company's users ordered by name.
func (r *UserRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error) {
	query := selectUsers + ` WHERE company_id = ? ORDER BY name ASC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list users", zap.String("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var managerID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.CompanyID,
		&managerID,
		&user.IsFinance,
		&user.IsDirector,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if managerID.Valid {
		user.ManagerID = managerID.String
	}
	return &user, nil
}
