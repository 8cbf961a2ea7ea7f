package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

func newCompanyFixture() (CompanyService, *mockCompanyRepo) {
	companyRepo := &mockCompanyRepo{
		company: &entity.Company{ID: "c1", Name: "Demo Company", BaseCurrency: "USD"},
	}
	userRepo := &mockUserRepo{users: map[string]*entity.User{
		"admin":    {ID: "admin", Name: "Admin User", Role: entity.RoleAdmin, CompanyID: "c1"},
		"manager":  {ID: "manager", Name: "Manager User", Role: entity.RoleManager, CompanyID: "c1"},
		"employee": {ID: "employee", Name: "Employee User", Role: entity.RoleEmployee, CompanyID: "c1"},
	}}
	rateRepo := &mockRateRepo{rates: map[string]float64{"USD": 1, "EUR": 0.92}}
	return NewCompanyService(companyRepo, userRepo, rateRepo, nopLogger{}), companyRepo
}

func TestUpdateApprovalRule_AdminOnly(t *testing.T) {
	svc, repo := newCompanyFixture()
	rule := &entity.ApprovalRule{Type: entity.RulePercentage, Percentage: 60, Active: true}

	for _, actor := range []string{"manager", "employee"} {
		err := svc.UpdateApprovalRule(context.Background(), "c1", actor, rule)
		assert.ErrorIs(t, err, ErrUnauthorized, "actor %s", actor)
	}
	assert.Nil(t, repo.rule)

	require.NoError(t, svc.UpdateApprovalRule(context.Background(), "c1", "admin", rule))
	assert.Equal(t, rule, repo.rule)
}

func TestUpdateApprovalRule_Validation(t *testing.T) {
	svc, _ := newCompanyFixture()

	tests := []struct {
		name string
		rule *entity.ApprovalRule
	}{
		{"nil rule", nil},
		{"unknown type", &entity.ApprovalRule{Type: entity.RuleType("quorum"), Active: true}},
		{"percentage below range", &entity.ApprovalRule{Type: entity.RulePercentage, Percentage: 0, Active: true}},
		{"percentage above range", &entity.ApprovalRule{Type: entity.RulePercentage, Percentage: 101, Active: true}},
		{"specific without approvers", &entity.ApprovalRule{Type: entity.RuleSpecific, Active: true}},
		{"hybrid without approvers", &entity.ApprovalRule{Type: entity.RuleHybrid, Percentage: 50, Active: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateApprovalRule(context.Background(), "c1", "admin", tt.rule)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateApprovalRule_UnknownCompany(t *testing.T) {
	svc, _ := newCompanyFixture()
	rule := &entity.ApprovalRule{Type: entity.RulePercentage, Percentage: 60, Active: true}
	err := svc.UpdateApprovalRule(context.Background(), "nope", "admin", rule)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetApprovalRule(t *testing.T) {
	svc, repo := newCompanyFixture()

	rule, err := svc.GetApprovalRule(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, rule, "no rule configured yet")

	repo.rule = &entity.ApprovalRule{Type: entity.RuleSpecific, SpecificApprovers: []string{"cfo"}, Active: true}
	rule, err = svc.GetApprovalRule(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, repo.rule, rule)

	_, err = svc.GetApprovalRule(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUser(t *testing.T) {
	svc, _ := newCompanyFixture()

	user, err := svc.GetUser(context.Background(), "manager")
	require.NoError(t, err)
	assert.Equal(t, "Manager User", user.Name)

	_, err = svc.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetExchangeRates(t *testing.T) {
	svc, _ := newCompanyFixture()

	rates, err := svc.GetExchangeRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.92, rates["EUR"])

	_, err = svc.GetExchangeRates(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
