package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expenseflow/expense-approval/internal/application/service"
	"github.com/expenseflow/expense-approval/internal/currency"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
	"github.com/expenseflow/expense-approval/internal/export"
	"github.com/expenseflow/expense-approval/internal/receipt"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenseService service.ExpenseService
	companyService service.CompanyService
	extractor      receipt.Extractor
	reportWriter   *export.ReportWriter
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	expenseService service.ExpenseService,
	companyService service.CompanyService,
	extractor receipt.Extractor,
	reportWriter *export.ReportWriter,
	logger Logger,
) *Handlers {
	return &Handlers{
		expenseService: expenseService,
		companyService: companyService,
		extractor:      extractor,
		reportWriter:   reportWriter,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitExpenseRequest is the body of POST /api/v1/expenses
type SubmitExpenseRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	ReceiptURL  string  `json:"receipt_url"`
}

// DecisionRequest is the body of the approve and reject endpoints
type DecisionRequest struct {
	ApproverID string `json:"approver_id" binding:"required"`
	Comment    string `json:"comment"`
}

// UpdateRuleRequest is the body of PUT /api/v1/companies/:id/approval-rule
type UpdateRuleRequest struct {
	ActorID           string   `json:"actor_id" binding:"required"`
	Type              string   `json:"type" binding:"required"`
	Percentage        int      `json:"percentage"`
	SpecificApprovers []string `json:"specific_approvers"`
	Active            bool     `json:"active"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitExpense handles POST /api/v1/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	expense, err := h.expenseService.SubmitExpense(c.Request.Context(), service.SubmitExpenseInput{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		ReceiptURL:  req.ReceiptURL,
	})
	if err != nil {
		h.serviceError(c, err, "failed to submit expense")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: expense})
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err, "failed to get expense")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ApproveExpense handles POST /api/v1/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	expense, err := h.expenseService.ApproveExpense(c.Request.Context(), c.Param("id"), req.ApproverID, req.Comment)
	if err != nil {
		h.serviceError(c, err, "failed to approve expense")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// RejectExpense handles POST /api/v1/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	expense, err := h.expenseService.RejectExpense(c.Request.Context(), c.Param("id"), req.ApproverID, req.Comment)
	if err != nil {
		h.serviceError(c, err, "failed to reject expense")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ListUserExpenses handles GET /api/v1/users/:id/expenses
func (h *Handlers) ListUserExpenses(c *gin.Context) {
	expenses, err := h.expenseService.GetUserExpenses(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err, "failed to list expenses")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// ListPendingApprovals handles GET /api/v1/approvals/pending?approver_id=
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	approverID := c.Query("approver_id")
	if approverID == "" {
		h.badRequest(c, "approver_id is required", nil)
		return
	}

	expenses, err := h.expenseService.GetPendingApprovals(c.Request.Context(), approverID)
	if err != nil {
		h.serviceError(c, err, "failed to list pending approvals")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// GetCompany handles GET /api/v1/companies/:id
func (h *Handlers) GetCompany(c *gin.Context) {
	company, err := h.companyService.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err, "failed to get company")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: company})
}

// ListCompanyUsers handles GET /api/v1/companies/:id/users
func (h *Handlers) ListCompanyUsers(c *gin.Context) {
	users, err := h.companyService.ListUsers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// GetApprovalRule handles GET /api/v1/companies/:id/approval-rule
func (h *Handlers) GetApprovalRule(c *gin.Context) {
	rule, err := h.companyService.GetApprovalRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err, "failed to get approval rule")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rule})
}

// UpdateApprovalRule handles PUT /api/v1/companies/:id/approval-rule
func (h *Handlers) UpdateApprovalRule(c *gin.Context) {
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	rule := &entity.ApprovalRule{
		Type:              entity.RuleType(req.Type),
		Percentage:        req.Percentage,
		SpecificApprovers: req.SpecificApprovers,
		Active:            req.Active,
	}
	if err := h.companyService.UpdateApprovalRule(c.Request.Context(), c.Param("id"), req.ActorID, rule); err != nil {
		h.serviceError(c, err, "failed to update approval rule")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rule})
}

// GetExchangeRates handles GET /api/v1/exchange-rates?base=
func (h *Handlers) GetExchangeRates(c *gin.Context) {
	base := strings.ToUpper(c.Query("base"))
	rates, err := h.companyService.GetExchangeRates(c.Request.Context(), base)
	if err != nil {
		h.serviceError(c, err, "failed to get exchange rates")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"base": base, "rates": rates}})
}

// ExtractReceipt handles POST /api/v1/receipts/extract. The uploaded file
// is written to a temp path, read by the extractor and removed.
func (h *Handlers) ExtractReceipt(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "receipt extraction is not configured",
		})
		return
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		h.badRequest(c, "receipt file is required", err)
		return
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("receipt-%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		h.logger.Error("Failed to save uploaded receipt", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to save uploaded file"})
		return
	}
	defer os.Remove(tmpPath)

	draft, err := h.extractor.Extract(c.Request.Context(), tmpPath)
	if err != nil {
		h.logger.Error("Receipt extraction failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: "failed to read receipt"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// ExportUserExpenses handles GET /api/v1/users/:id/expenses/export
func (h *Handlers) ExportUserExpenses(c *gin.Context) {
	if h.reportWriter == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "export is not configured",
		})
		return
	}

	ctx := c.Request.Context()
	userID := c.Param("id")

	user, err := h.companyService.GetUser(ctx, userID)
	if err != nil {
		h.serviceError(c, err, "failed to export expenses")
		return
	}
	company, err := h.companyService.GetCompany(ctx, user.CompanyID)
	if err != nil {
		h.serviceError(c, err, "failed to export expenses")
		return
	}
	list, err := h.expenseService.GetUserExpenses(ctx, userID)
	if err != nil {
		h.serviceError(c, err, "failed to export expenses")
		return
	}

	expenses := make([]entity.Expense, 0, len(list))
	for _, e := range list {
		expenses = append(expenses, *e)
	}

	filename := fmt.Sprintf("expenses-%s-%s.xlsx", userID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.reportWriter.WriteUserReport(c.Writer, user, company, expenses); err != nil {
		h.logger.Error("Failed to write expense report", "error", err, "user_id", userID)
		c.Status(http.StatusInternalServerError)
	}
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err)
	}
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// serviceError maps application errors onto HTTP status codes.
func (h *Handlers) serviceError(c *gin.Context, err error, fallback string) {
	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, currency.ErrRateUnavailable):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallback})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
