package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

func TestWriteUserReport(t *testing.T) {
	original := 92.0
	expenses := []entity.Expense{
		{
			ID:          "e1",
			Amount:      100,
			Category:    "Meals",
			Description: "Team lunch",
			Date:        "2024-03-01",
			Status:      entity.StatusApproved,
			CurrentStep: entity.StepDirector,
		},
		{
			ID:               "e2",
			Amount:           100,
			OriginalAmount:   &original,
			OriginalCurrency: "EUR",
			Category:         "Travel",
			Description:      "Train ticket",
			Date:             "2024-03-05",
			Status:           entity.StatusPending,
			CurrentStep:      entity.StepFinance,
		},
		{
			ID:          "e3",
			Amount:      40,
			Category:    "Software",
			Description: "License",
			Date:        "2024-03-08",
			Status:      entity.StatusRejected,
			CurrentStep: entity.StepManager,
		},
	}
	user := &entity.User{ID: "u1", Name: "Alice Chen"}
	company := &entity.Company{ID: "c1", Name: "Demo Company", BaseCurrency: "USD"}

	var buf bytes.Buffer
	rw := NewReportWriter(zap.NewNop())
	require.NoError(t, rw.WriteUserReport(&buf, user, company, expenses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(sheetName, cell)
		require.NoError(t, err)
		return v
	}

	assert.Contains(t, get("A1"), "Alice Chen")
	assert.Contains(t, get("A2"), "USD")
	assert.Equal(t, "Date", get("A3"))
	assert.Equal(t, "Team lunch", get("C4"))
	assert.Equal(t, "100.00", get("D4"))
	// converted expense carries its submitted amount
	assert.Equal(t, "92.00 EUR", get("E5"))
	assert.Equal(t, "pending", get("F5"))
	assert.Equal(t, "finance", get("G5"))
	// terminal expenses show no current step
	assert.Equal(t, "", get("G4"))
	assert.Equal(t, "", get("G6"))
	// only the approved expense counts toward the total
	assert.Equal(t, "Total approved", get("C8"))
	assert.Equal(t, "100.00", get("D8"))
}
