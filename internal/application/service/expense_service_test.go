package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expense-approval/internal/currency"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// In-memory fake expense repository. ApplyDecision mirrors the real
// repository's contract: record append and status update land together.
type fakeExpenseRepo struct {
	byID map[string]*entity.Expense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{byID: make(map[string]*entity.Expense)}
}

func (f *fakeExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	f.byID[expense.ID] = expense
	return nil
}

func (f *fakeExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	return f.byID[id], nil
}

func (f *fakeExpenseRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range f.byID {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) ListPending(ctx context.Context) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range f.byID {
		if e.Status == entity.StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) ApplyDecision(ctx context.Context, expense *entity.Expense, records ...*entity.ApprovalRecord) error {
	f.byID[expense.ID] = expense
	return nil
}

type mockUserRepo struct {
	users map[string]*entity.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range m.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockCompanyRepo struct {
	company *entity.Company
	rule    *entity.ApprovalRule
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	if m.company != nil && m.company.ID == id {
		return m.company, nil
	}
	return nil, nil
}

func (m *mockCompanyRepo) GetApprovalRule(ctx context.Context, companyID string) (*entity.ApprovalRule, error) {
	return m.rule, nil
}

func (m *mockCompanyRepo) UpdateApprovalRule(ctx context.Context, companyID string, rule *entity.ApprovalRule) error {
	m.rule = rule
	return nil
}

type mockRateRepo struct {
	rates map[string]float64
	err   error
}

func (m *mockRateRepo) GetRates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	return m.rates, m.err
}

type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type fixture struct {
	service     ExpenseService
	expenseRepo *fakeExpenseRepo
	companyRepo *mockCompanyRepo
}

func newFixture(rule *entity.ApprovalRule) *fixture {
	expenseRepo := newFakeExpenseRepo()
	companyRepo := &mockCompanyRepo{
		company: &entity.Company{ID: "c1", Name: "Demo Company", BaseCurrency: "USD"},
		rule:    rule,
	}
	userRepo := &mockUserRepo{users: map[string]*entity.User{
		"employee": {ID: "employee", Name: "Employee User", Role: entity.RoleEmployee, CompanyID: "c1"},
		"manager":  {ID: "manager", Name: "Manager User", Role: entity.RoleManager, CompanyID: "c1"},
		"finance":  {ID: "finance", Name: "Finance User", Role: entity.RoleManager, IsFinance: true, CompanyID: "c1"},
		"director": {ID: "director", Name: "Director User", Role: entity.RoleManager, IsDirector: true, CompanyID: "c1"},
		"admin":    {ID: "admin", Name: "Admin User", Role: entity.RoleAdmin, CompanyID: "c1"},
	}}
	rateRepo := &mockRateRepo{rates: map[string]float64{"USD": 1, "EUR": 0.92, "GBP": 0.79}}

	return &fixture{
		service: NewExpenseService(
			expenseRepo, userRepo, companyRepo, rateRepo, passthroughTxManager{}, nopLogger{},
		),
		expenseRepo: expenseRepo,
		companyRepo: companyRepo,
	}
}

func (f *fixture) submit(t *testing.T) *entity.Expense {
	t.Helper()
	expense, err := f.service.SubmitExpense(context.Background(), SubmitExpenseInput{
		UserID:      "employee",
		Amount:      120.50,
		Currency:    "USD",
		Category:    "Travel",
		Description: "Client visit",
		Date:        "2026-08-20",
	})
	require.NoError(t, err)
	return expense
}

func TestSubmitExpense_SameCurrency(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)

	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, entity.StatusPending, expense.Status)
	assert.Equal(t, entity.StepManager, expense.CurrentStep)
	assert.Equal(t, 120.50, expense.Amount)
	assert.Nil(t, expense.OriginalAmount)
	assert.Empty(t, expense.OriginalCurrency)
	assert.Empty(t, expense.Approvals)
	assert.Equal(t, "Employee User", expense.UserName)
}

func TestSubmitExpense_ConvertsToBaseCurrency(t *testing.T) {
	f := newFixture(nil)
	expense, err := f.service.SubmitExpense(context.Background(), SubmitExpenseInput{
		UserID:      "employee",
		Amount:      92,
		Currency:    "EUR",
		Category:    "Meals",
		Description: "Team dinner",
		Date:        "2026-08-21",
	})
	require.NoError(t, err)

	assert.InDelta(t, 100, expense.Amount, 1e-9)
	require.NotNil(t, expense.OriginalAmount)
	assert.Equal(t, 92.0, *expense.OriginalAmount)
	assert.Equal(t, "EUR", expense.OriginalCurrency)
}

func TestSubmitExpense_RateUnavailable(t *testing.T) {
	f := newFixture(nil)
	_, err := f.service.SubmitExpense(context.Background(), SubmitExpenseInput{
		UserID:      "employee",
		Amount:      50,
		Currency:    "CHF",
		Category:    "Travel",
		Description: "Train ticket",
		Date:        "2026-08-22",
	})
	assert.ErrorIs(t, err, currency.ErrRateUnavailable)
	assert.Empty(t, f.expenseRepo.byID, "nothing should be persisted on conversion failure")
}

func TestSubmitExpense_Validation(t *testing.T) {
	valid := SubmitExpenseInput{
		UserID:      "employee",
		Amount:      10,
		Currency:    "USD",
		Category:    "Travel",
		Description: "Taxi",
		Date:        "2026-08-23",
	}

	tests := []struct {
		name   string
		mutate func(in *SubmitExpenseInput)
	}{
		{"missing category", func(in *SubmitExpenseInput) { in.Category = "" }},
		{"missing description", func(in *SubmitExpenseInput) { in.Description = "  " }},
		{"missing date", func(in *SubmitExpenseInput) { in.Date = "" }},
		{"malformed date", func(in *SubmitExpenseInput) { in.Date = "23/08/2026" }},
		{"malformed currency", func(in *SubmitExpenseInput) { in.Currency = "usd" }},
		{"zero amount", func(in *SubmitExpenseInput) { in.Amount = 0 }},
		{"negative amount", func(in *SubmitExpenseInput) { in.Amount = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			in := valid
			tt.mutate(&in)
			_, err := f.service.SubmitExpense(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, f.expenseRepo.byID)
		})
	}
}

func TestSubmitExpense_UnknownUser(t *testing.T) {
	f := newFixture(nil)
	_, err := f.service.SubmitExpense(context.Background(), SubmitExpenseInput{
		UserID:      "ghost",
		Amount:      10,
		Currency:    "USD",
		Category:    "Travel",
		Description: "Taxi",
		Date:        "2026-08-23",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveExpense_SequentialChain(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)
	ctx := context.Background()

	updated, err := f.service.ApproveExpense(ctx, expense.ID, "manager", "looks fine")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status)
	assert.Equal(t, entity.StepFinance, updated.CurrentStep)

	updated, err = f.service.ApproveExpense(ctx, expense.ID, "finance", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status)
	assert.Equal(t, entity.StepDirector, updated.CurrentStep)

	updated, err = f.service.ApproveExpense(ctx, expense.ID, "director", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status)
	assert.Equal(t, entity.StepDirector, updated.CurrentStep, "step stays frozen at its last value")

	require.Len(t, updated.Approvals, 3)
	wantSteps := []entity.ApprovalStep{entity.StepManager, entity.StepFinance, entity.StepDirector}
	for i, rec := range updated.Approvals {
		assert.Equal(t, entity.StatusApproved, rec.Status)
		assert.Equal(t, wantSteps[i], rec.Step)
	}
}

func TestRejectExpense_TerminatesImmediately(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)
	ctx := context.Background()

	updated, err := f.service.RejectExpense(ctx, expense.ID, "manager", "missing receipt")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, updated.Status)
	assert.Equal(t, entity.StepManager, updated.CurrentStep)
	require.Len(t, updated.Approvals, 1)
	assert.Equal(t, entity.StatusRejected, updated.Approvals[0].Status)
	assert.Equal(t, "missing receipt", updated.Approvals[0].Comment)

	// Terminal expenses accept no further decisions.
	_, err = f.service.ApproveExpense(ctx, expense.ID, "admin", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.service.RejectExpense(ctx, expense.ID, "admin", "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectExpense_RequiresComment(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)

	_, err := f.service.RejectExpense(context.Background(), expense.ID, "manager", "  ")
	assert.ErrorIs(t, err, ErrValidation)

	stored := f.expenseRepo.byID[expense.ID]
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Empty(t, stored.Approvals, "no record may be appended on validation failure")
}

func TestApproveExpense_PercentageRuleShortCircuits(t *testing.T) {
	f := newFixture(&entity.ApprovalRule{
		Type:       entity.RulePercentage,
		Percentage: 60,
		Active:     true,
	})
	expense := f.submit(t)
	ctx := context.Background()

	updated, err := f.service.ApproveExpense(ctx, expense.ID, "manager", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status, "1 of 3 is below 60 percent")

	// Second approval reaches 2/3 = 66.7% >= 60%: auto-approved without the
	// director acting.
	updated, err = f.service.ApproveExpense(ctx, expense.ID, "finance", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status)

	require.Len(t, updated.Approvals, 3)
	last := updated.Approvals[2]
	assert.Equal(t, entity.SystemApproverID, last.ApproverID)
	assert.Equal(t, entity.SystemApproverName, last.ApproverName)
	assert.Equal(t, entity.StatusApproved, last.Status)
}

func TestApproveExpense_SpecificApproverRule(t *testing.T) {
	f := newFixture(&entity.ApprovalRule{
		Type:              entity.RuleSpecific,
		SpecificApprovers: []string{"manager"},
		Active:            true,
	})
	expense := f.submit(t)

	updated, err := f.service.ApproveExpense(context.Background(), expense.ID, "manager", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status, "listed approver at manager step auto-approves")
	assert.Equal(t, entity.StepManager, updated.CurrentStep)
}

func TestApproveExpense_HybridRuleIsOr(t *testing.T) {
	f := newFixture(&entity.ApprovalRule{
		Type:              entity.RuleHybrid,
		Percentage:        90,
		SpecificApprovers: []string{"manager"},
		Active:            true,
	})
	expense := f.submit(t)

	// A single sign-off from the listed approver suffices even though 90
	// percent of the chain has not acted.
	updated, err := f.service.ApproveExpense(context.Background(), expense.ID, "manager", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status)
}

func TestApproveExpense_InactiveRuleDoesNotShortCircuit(t *testing.T) {
	f := newFixture(&entity.ApprovalRule{
		Type:       entity.RulePercentage,
		Percentage: 1,
		Active:     false,
	})
	expense := f.submit(t)

	updated, err := f.service.ApproveExpense(context.Background(), expense.ID, "manager", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status)
	assert.Equal(t, entity.StepFinance, updated.CurrentStep)
}

func TestApproveExpense_RuleNeverConsultedOnRejection(t *testing.T) {
	f := newFixture(&entity.ApprovalRule{
		Type:              entity.RuleSpecific,
		SpecificApprovers: []string{"manager"},
		Active:            true,
	})
	expense := f.submit(t)

	updated, err := f.service.RejectExpense(context.Background(), expense.ID, "manager", "not a business cost")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, updated.Status, "rule must not override an explicit rejection")
}

func TestApproveExpense_Unauthorized(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)
	ctx := context.Background()

	_, err := f.service.ApproveExpense(ctx, expense.ID, "employee", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A plain manager cannot act once the expense sits at the finance step.
	_, err = f.service.ApproveExpense(ctx, expense.ID, "manager", "")
	require.NoError(t, err)
	_, err = f.service.ApproveExpense(ctx, expense.ID, "manager", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestApproveExpense_AdminActsAtEveryStep(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)
	ctx := context.Background()

	for _, step := range []entity.ApprovalStep{entity.StepManager, entity.StepFinance, entity.StepDirector} {
		stored := f.expenseRepo.byID[expense.ID]
		require.Equal(t, step, stored.CurrentStep)
		_, err := f.service.ApproveExpense(ctx, expense.ID, "admin", "")
		require.NoError(t, err)
	}
	assert.Equal(t, entity.StatusApproved, f.expenseRepo.byID[expense.ID].Status)
}

func TestApproveExpense_NotFound(t *testing.T) {
	f := newFixture(nil)
	expense := f.submit(t)

	_, err := f.service.ApproveExpense(context.Background(), "no-such-expense", "manager", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.ApproveExpense(context.Background(), expense.ID, "no-such-user", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPendingApprovals_FiltersByPolicy(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first := f.submit(t)
	second := f.submit(t)
	_, err := f.service.ApproveExpense(ctx, second.ID, "manager", "")
	require.NoError(t, err)

	managerQueue, err := f.service.GetPendingApprovals(ctx, "manager")
	require.NoError(t, err)
	require.Len(t, managerQueue, 1)
	assert.Equal(t, first.ID, managerQueue[0].ID)

	financeQueue, err := f.service.GetPendingApprovals(ctx, "finance")
	require.NoError(t, err)
	require.Len(t, financeQueue, 1)
	assert.Equal(t, second.ID, financeQueue[0].ID)

	employeeQueue, err := f.service.GetPendingApprovals(ctx, "employee")
	require.NoError(t, err)
	assert.Empty(t, employeeQueue)

	adminQueue, err := f.service.GetPendingApprovals(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, adminQueue, 2)
}

func TestGetExpense_NotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := f.service.GetExpense(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
