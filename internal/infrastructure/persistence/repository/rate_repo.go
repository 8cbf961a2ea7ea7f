package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/sqlite"
)

// RateRepository implements port.RateRepository on SQLite. Each row holds
// one rate relative to a base currency; the base always maps to 1.
type RateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRateRepository creates a new exchange-rate repository
func NewRateRepository(db *sql.DB, logger *zap.Logger) port.RateRepository {
	return &RateRepository{
		db:     db,
		logger: logger,
	}
}

// GetRates returns the rate table for the base currency. The base itself is
// always present with a rate of 1 so same-base conversions never miss.
func (r *RateRepository) GetRates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	query := `SELECT code, rate FROM exchange_rates WHERE base = ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, baseCurrency)
	if err != nil {
		r.logger.Error("Failed to load exchange rates", zap.String("base", baseCurrency), zap.Error(err))
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange rates: %w", err)
	}

	rates[baseCurrency] = 1
	return rates, nil
}
