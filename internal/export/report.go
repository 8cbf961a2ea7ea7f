// Package export renders expense data into downloadable report files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// Report layout
const (
	sheetName = "Expenses"

	headerRow    = 3
	dataRowStart = 4

	colDate        = "A"
	colCategory    = "B"
	colDescription = "C"
	colAmount      = "D"
	colOriginal    = "E"
	colStatus      = "F"
	colStep        = "G"
)

// ReportWriter builds Excel expense reports
type ReportWriter struct {
	logger *zap.Logger
}

// NewReportWriter creates a new ReportWriter
func NewReportWriter(logger *zap.Logger) *ReportWriter {
	return &ReportWriter{logger: logger}
}

// WriteUserReport writes one user's expense history as an xlsx workbook.
// Amounts are shown in the company base currency; converted expenses also
// carry the originally submitted amount.
func (rw *ReportWriter) WriteUserReport(w io.Writer, user *entity.User, company *entity.Company, expenses []entity.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to set sheet name: %w", err)
	}

	rw.setCell(f, "A1", fmt.Sprintf("Expense Report - %s", user.Name))
	rw.setCell(f, "A2", fmt.Sprintf("%s (amounts in %s)", company.Name, company.BaseCurrency))

	headers := map[string]string{
		colDate:        "Date",
		colCategory:    "Category",
		colDescription: "Description",
		colAmount:      "Amount",
		colOriginal:    "Original Amount",
		colStatus:      "Status",
		colStep:        "Current Step",
	}
	for col, title := range headers {
		rw.setCell(f, fmt.Sprintf("%s%d", col, headerRow), title)
	}

	total := 0.0
	row := dataRowStart
	for _, exp := range expenses {
		rw.setCell(f, fmt.Sprintf("%s%d", colDate, row), exp.Date)
		rw.setCell(f, fmt.Sprintf("%s%d", colCategory, row), exp.Category)
		rw.setCell(f, fmt.Sprintf("%s%d", colDescription, row), exp.Description)
		rw.setCell(f, fmt.Sprintf("%s%d", colAmount, row), fmt.Sprintf("%.2f", exp.Amount))
		if exp.OriginalAmount != nil {
			rw.setCell(f, fmt.Sprintf("%s%d", colOriginal, row),
				fmt.Sprintf("%.2f %s", *exp.OriginalAmount, exp.OriginalCurrency))
		}
		rw.setCell(f, fmt.Sprintf("%s%d", colStatus, row), string(exp.Status))
		if !exp.IsTerminal() {
			rw.setCell(f, fmt.Sprintf("%s%d", colStep, row), string(exp.CurrentStep))
		}
		if exp.Status == entity.StatusApproved {
			total += exp.Amount
		}
		row++
	}

	rw.setCell(f, fmt.Sprintf("%s%d", colDescription, row+1), "Total approved")
	rw.setCell(f, fmt.Sprintf("%s%d", colAmount, row+1), fmt.Sprintf("%.2f", total))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	rw.logger.Info("Expense report written",
		zap.String("user_id", user.ID),
		zap.Int("expenses", len(expenses)))
	return nil
}

func (rw *ReportWriter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		rw.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
