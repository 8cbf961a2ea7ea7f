package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expense-approval/internal/application/port"
	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// CompanyService exposes company-scoped configuration: the conditional
// approval rule, the user directory and the exchange-rate table.
type CompanyService interface {
	GetCompany(ctx context.Context, id string) (*entity.Company, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	ListUsers(ctx context.Context, companyID string) ([]*entity.User, error)
	GetApprovalRule(ctx context.Context, companyID string) (*entity.ApprovalRule, error)
	UpdateApprovalRule(ctx context.Context, companyID, actorID string, rule *entity.ApprovalRule) error
	GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error)
}

type companyServiceImpl struct {
	companyRepo port.CompanyRepository
	userRepo    port.UserRepository
	rateRepo    port.RateRepository
	logger      Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(
	companyRepo port.CompanyRepository,
	userRepo port.UserRepository,
	rateRepo port.RateRepository,
	logger Logger,
) CompanyService {
	return &companyServiceImpl{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		rateRepo:    rateRepo,
		logger:      logger,
	}
}

func (s *companyServiceImpl) GetCompany(ctx context.Context, id string) (*entity.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %s", ErrNotFound, id)
	}
	return company, nil
}

func (s *companyServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

func (s *companyServiceImpl) ListUsers(ctx context.Context, companyID string) ([]*entity.User, error) {
	return s.userRepo.ListByCompany(ctx, companyID)
}

func (s *companyServiceImpl) GetApprovalRule(ctx context.Context, companyID string) (*entity.ApprovalRule, error) {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %s", ErrNotFound, companyID)
	}
	return s.companyRepo.GetApprovalRule(ctx, companyID)
}

// UpdateApprovalRule replaces the company's conditional rule. Only admins
// may configure rules; the rule is validated at this boundary so nothing
// downstream has to trust its shape.
func (s *companyServiceImpl) UpdateApprovalRule(ctx context.Context, companyID, actorID string, rule *entity.ApprovalRule) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, actorID)
	}
	if actor.Role != entity.RoleAdmin {
		return fmt.Errorf("%w: only admins may update approval rules", ErrUnauthorized)
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("%w: company %s", ErrNotFound, companyID)
	}

	if err := validateRule(rule); err != nil {
		return err
	}

	if err := s.companyRepo.UpdateApprovalRule(ctx, companyID, rule); err != nil {
		s.logger.Error("Failed to update approval rule", "error", err, "company_id", companyID)
		return err
	}

	s.logger.Info("Approval rule updated",
		"company_id", companyID,
		"actor_id", actorID,
		"rule_type", rule.Type,
		"active", rule.Active,
	)
	return nil
}

func (s *companyServiceImpl) GetExchangeRates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	if baseCurrency == "" {
		return nil, fmt.Errorf("%w: base currency is required", ErrValidation)
	}
	return s.rateRepo.GetRates(ctx, baseCurrency)
}

func validateRule(rule *entity.ApprovalRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is required", ErrValidation)
	}
	if !rule.Type.IsValid() {
		return fmt.Errorf("%w: unknown rule type %q", ErrValidation, rule.Type)
	}
	if rule.UsesPercentage() && (rule.Percentage < 1 || rule.Percentage > 100) {
		return fmt.Errorf("%w: percentage must be between 1 and 100", ErrValidation)
	}
	if rule.UsesSpecificApprovers() && len(rule.SpecificApprovers) == 0 {
		return fmt.Errorf("%w: specific approvers are required for %s rules", ErrValidation, rule.Type)
	}
	return nil
}
