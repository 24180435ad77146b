package services

import (
	"context"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
)

// CreateRuleInput carries the fields an admin provides when creating a rule
type CreateRuleInput struct {
	Name           string   `json:"name"`
	RuleType       string   `json:"rule_type"`
	ConditionValue *float64 `json:"condition_value"`
	ApproverRole   *string  `json:"approver_role"`
	ApproverID     *uint    `json:"approver_id"`
	ApprovalLevel  int      `json:"approval_level"`
	Department     *string  `json:"department"`
}

// RuleService handles approval rule configuration
type RuleService struct {
	repo     repository.RuleRepository
	userRepo repository.UserRepository
	auditSvc *AuditService
}

// NewRuleService creates a new rule service
func NewRuleService(repo repository.RuleRepository, userRepo repository.UserRepository, auditSvc *AuditService) *RuleService {
	return &RuleService{repo: repo, userRepo: userRepo, auditSvc: auditSvc}
}

// FindActive returns the active rule set ordered by approval level
func (s *RuleService) FindActive(ctx context.Context) ([]models.ApprovalRule, error) {
	rules, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return rules, nil
}

// FindAll returns every rule, including deactivated ones
func (s *RuleService) FindAll(ctx context.Context) ([]models.ApprovalRule, error) {
	rules, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return rules, nil
}

// Create validates and persists a new approval rule
func (s *RuleService) Create(ctx context.Context, actorID uint, input CreateRuleInput) (*models.ApprovalRule, error) {
	if input.Name == "" {
		return nil, validationError("rule name is required")
	}
	if !models.ValidRuleType(input.RuleType) {
		return nil, validationError("unknown rule type: %s", input.RuleType)
	}
	if input.ApprovalLevel < 1 {
		return nil, validationError("approval level must be positive")
	}

	switch input.RuleType {
	case models.RuleTypeAmountThreshold:
		if input.ConditionValue == nil {
			return nil, validationError("amount_threshold rules require a condition value (use %v for no upper bound)", models.UnboundedAmount)
		}
		if *input.ConditionValue <= 0 && *input.ConditionValue != models.UnboundedAmount {
			return nil, validationError("condition value must be positive or the unbounded sentinel")
		}
	case models.RuleTypeSpecificApprover:
		if input.ApproverID == nil {
			return nil, validationError("specific_approver rules require approver_id")
		}
	}

	// Exactly one approver designation per role/identity rule.
	if input.ApproverID != nil && input.ApproverRole != nil {
		return nil, validationError("set approver_role or approver_id, not both")
	}
	if input.ApproverID != nil {
		if _, err := s.userRepo.FindByID(ctx, *input.ApproverID); err != nil {
			return nil, validationError("approver %d does not exist", *input.ApproverID)
		}
	}
	if input.ApproverRole != nil && !models.ValidRole(*input.ApproverRole) {
		return nil, validationError("unknown approver role: %s", *input.ApproverRole)
	}

	rule := &models.ApprovalRule{
		Name:           input.Name,
		RuleType:       input.RuleType,
		ConditionValue: input.ConditionValue,
		ApproverRole:   input.ApproverRole,
		ApproverID:     input.ApproverID,
		ApprovalLevel:  input.ApprovalLevel,
		Department:     input.Department,
		Active:         true,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, wrapStorageErr(err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "ApprovalRule", rule.ID, rule.Name, "", "")
	}
	return rule, nil
}

// Deactivate soft-deletes a rule so future plans stop using it
func (s *RuleService) Deactivate(ctx context.Context, actorID, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return wrapStorageErr(err)
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return wrapStorageErr(err)
	}
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "ApprovalRule", id, "deactivated", "", "")
	}
	return nil
}
