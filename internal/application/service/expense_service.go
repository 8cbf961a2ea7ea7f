package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/currency"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
	"github.com/expenseflow/expense-approval/internal/domain/policy"
	"github.com/expenseflow/expense-approval/internal/domain/rule"
	"github.com/expenseflow/expense-approval/internal/domain/workflow"
	"github.com/expenseflow/expense-approval/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitExpenseInput carries a new expense submission. Currency is the
// submission currency; when it differs from the company base currency the
// amount is converted at submission time and the original values preserved.
type SubmitExpenseInput struct {
	UserID      string
	Amount      float64
	Currency    string
	Category    string
	Description string
	Date        string
	ReceiptURL  string
}

// ExpenseService owns the expense lifecycle: submission, approval,
// rejection and the queries the presentation layer reads from.
type ExpenseService interface {
	SubmitExpense(ctx context.Context, input SubmitExpenseInput) (*entity.Expense, error)
	ApproveExpense(ctx context.Context, expenseID, approverID, comment string) (*entity.Expense, error)
	RejectExpense(ctx context.Context, expenseID, approverID, comment string) (*entity.Expense, error)
	GetExpense(ctx context.Context, id string) (*entity.Expense, error)
	GetUserExpenses(ctx context.Context, userID string) ([]*entity.Expense, error)
	GetPendingApprovals(ctx context.Context, approverID string) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	rateRepo    port.RateRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	rateRepo port.RateRepository,
	txManager port.TransactionManager,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		rateRepo:    rateRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// SubmitExpense validates the submission, converts the amount into the
// company base currency when needed and stores the expense at the start of
// the approval chain.
func (s *expenseServiceImpl) SubmitExpense(ctx context.Context, input SubmitExpenseInput) (*entity.Expense, error) {
	if strings.TrimSpace(input.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if err := utils.ValidateDate(input.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.Currency != "" {
		if err := utils.ValidateCurrencyCode(input.Currency); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if err := utils.ValidateAmount(input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, input.UserID)
	}

	company, err := s.companyRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %s", ErrNotFound, user.CompanyID)
	}

	amount := input.Amount
	var originalAmount *float64
	originalCurrency := ""

	if input.Currency != "" && input.Currency != company.BaseCurrency {
		rates, err := s.rateRepo.GetRates(ctx, company.BaseCurrency)
		if err != nil {
			return nil, err
		}
		converted, err := currency.Convert(input.Amount, input.Currency, company.BaseCurrency, rates)
		if err != nil {
			return nil, err
		}
		submitted := input.Amount
		amount = converted
		originalAmount = &submitted
		originalCurrency = input.Currency
	}

	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive after conversion", ErrValidation)
	}

	now := time.Now().UTC()
	expense := &entity.Expense{
		ID:               uuid.NewString(),
		CompanyID:        company.ID,
		UserID:           user.ID,
		UserName:         user.Name,
		Amount:           amount,
		OriginalAmount:   originalAmount,
		OriginalCurrency: originalCurrency,
		Category:         input.Category,
		Description:      input.Description,
		Date:             input.Date,
		ReceiptURL:       input.ReceiptURL,
		Status:           entity.StatusPending,
		CurrentStep:      entity.StepManager,
		Approvals:        []entity.ApprovalRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		s.logger.Error("Failed to create expense", "error", err, "user_id", user.ID)
		return nil, err
	}

	s.logger.Info("Expense submitted",
		"expense_id", expense.ID,
		"user_id", user.ID,
		"amount", expense.Amount,
		"original_currency", originalCurrency,
	)
	return expense, nil
}

// ApproveExpense records an approval at the expense's current step, then
// either auto-approves via the company's conditional rule or advances the
// chain one step. The rule always sees a history that includes the decision
// that just occurred.
func (s *expenseServiceImpl) ApproveExpense(ctx context.Context, expenseID, approverID, comment string) (*entity.Expense, error) {
	expense, approver, err := s.loadForDecision(ctx, expenseID, approverID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &entity.ApprovalRecord{
		ExpenseID:    expense.ID,
		Step:         expense.CurrentStep,
		ApproverID:   approver.ID,
		ApproverName: approver.Name,
		Status:       entity.StatusApproved,
		Comment:      comment,
		Date:         now,
	}

	machine := workflow.NewExpenseMachine(mustState(expense))
	history := append(expense.Approvals, *record)

	approvalRule, err := s.companyRepo.GetApprovalRule(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}

	records := []*entity.ApprovalRecord{record}
	trigger := workflow.TriggerApprove
	if rule.Evaluate(approvalRule, history) {
		trigger = workflow.TriggerAutoApprove
		system := &entity.ApprovalRecord{
			ExpenseID:    expense.ID,
			Step:         expense.CurrentStep,
			ApproverID:   entity.SystemApproverID,
			ApproverName: entity.SystemApproverName,
			Status:       entity.StatusApproved,
			Comment:      "Auto-approved by company approval rule",
			Date:         now,
		}
		records = append(records, system)
		history = append(history, *system)
	}

	if err := machine.Fire(trigger); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	s.applyState(expense, machine.State(), history, now)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.expenseRepo.ApplyDecision(txCtx, expense, records...)
	})
	if err != nil {
		s.logger.Error("Failed to record approval", "error", err, "expense_id", expense.ID)
		return nil, err
	}

	s.logger.Info("Expense approval recorded",
		"expense_id", expense.ID,
		"approver_id", approver.ID,
		"status", expense.Status,
		"current_step", expense.CurrentStep,
		"auto_approved", trigger == workflow.TriggerAutoApprove,
	)
	return expense, nil
}

// RejectExpense records a rejection at the current step and ends the
// workflow. The comment is mandatory; an empty comment fails validation
// before any record is written.
func (s *expenseServiceImpl) RejectExpense(ctx context.Context, expenseID, approverID, comment string) (*entity.Expense, error) {
	expense, approver, err := s.loadForDecision(ctx, expenseID, approverID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: rejection comment is required", ErrValidation)
	}

	now := time.Now().UTC()
	record := &entity.ApprovalRecord{
		ExpenseID:    expense.ID,
		Step:         expense.CurrentStep,
		ApproverID:   approver.ID,
		ApproverName: approver.Name,
		Status:       entity.StatusRejected,
		Comment:      comment,
		Date:         now,
	}

	machine := workflow.NewExpenseMachine(mustState(expense))
	if err := machine.Fire(workflow.TriggerReject); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	s.applyState(expense, machine.State(), append(expense.Approvals, *record), now)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.expenseRepo.ApplyDecision(txCtx, expense, record)
	})
	if err != nil {
		s.logger.Error("Failed to record rejection", "error", err, "expense_id", expense.ID)
		return nil, err
	}

	s.logger.Info("Expense rejected",
		"expense_id", expense.ID,
		"approver_id", approver.ID,
		"step", record.Step,
	)
	return expense, nil
}

// GetExpense retrieves a single expense with its approval history.
func (s *expenseServiceImpl) GetExpense(ctx context.Context, id string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %s", ErrNotFound, id)
	}
	return expense, nil
}

// GetUserExpenses returns all expenses submitted by the user.
func (s *expenseServiceImpl) GetUserExpenses(ctx context.Context, userID string) ([]*entity.Expense, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return s.expenseRepo.ListByUser(ctx, userID)
}

// GetPendingApprovals returns the pending expenses the approver is
// authorized to act on at their current step.
func (s *expenseServiceImpl) GetPendingApprovals(ctx context.Context, approverID string) ([]*entity.Expense, error) {
	approver, err := s.userRepo.GetByID(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if approver == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, approverID)
	}

	pending, err := s.expenseRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	actionable := make([]*entity.Expense, 0, len(pending))
	for _, expense := range pending {
		if policy.CanAct(approver, expense) {
			actionable = append(actionable, expense)
		}
	}
	return actionable, nil
}

// loadForDecision fetches the expense and approver and runs the shared
// preconditions for approve and reject: the expense must exist and be
// non-terminal, and the approver must be authorized for its current step.
func (s *expenseServiceImpl) loadForDecision(ctx context.Context, expenseID, approverID string) (*entity.Expense, *entity.User, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if expense == nil {
		return nil, nil, fmt.Errorf("%w: expense %s", ErrNotFound, expenseID)
	}
	if expense.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: expense %s is already %s", ErrInvalidTransition, expenseID, expense.Status)
	}

	approver, err := s.userRepo.GetByID(ctx, approverID)
	if err != nil {
		return nil, nil, err
	}
	if approver == nil {
		return nil, nil, fmt.Errorf("%w: user %s", ErrNotFound, approverID)
	}

	if !policy.CanAct(approver, expense) {
		return nil, nil, fmt.Errorf("%w: user %s cannot act at step %s", ErrUnauthorized, approverID, expense.CurrentStep)
	}
	return expense, approver, nil
}

// applyState writes the machine's new state back onto the expense. On a
// terminal transition the current step stays frozen at its last value.
func (s *expenseServiceImpl) applyState(expense *entity.Expense, state workflow.State, history []entity.ApprovalRecord, now time.Time) {
	status, step := state.StatusStep()
	expense.Status = status
	if step != "" {
		expense.CurrentStep = step
	}
	expense.Approvals = history
	expense.UpdatedAt = now
}

func mustState(expense *entity.Expense) workflow.State {
	state, err := workflow.StateFor(expense.Status, expense.CurrentStep)
	if err != nil {
		// Persisted expenses always carry a valid status/step pair.
		panic(err)
	}
	return state
}
