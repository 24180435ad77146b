package repository

import (
	"context"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
)

// RuleRepository defines the interface for approval rule data access.
// Rules are never physically deleted; deactivation preserves traceability of
// past routing decisions.
type RuleRepository interface {
	FindActive(ctx context.Context) ([]models.ApprovalRule, error)
	FindByID(ctx context.Context, id uint) (*models.ApprovalRule, error)
	FindAll(ctx context.Context) ([]models.ApprovalRule, error)
	Create(ctx context.Context, rule *models.ApprovalRule) error
	Deactivate(ctx context.Context, id uint) error
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new approval rule repository
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) FindActive(ctx context.Context) ([]models.ApprovalRule, error) {
	var rules []models.ApprovalRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("approval_level ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) FindByID(ctx context.Context, id uint) (*models.ApprovalRule, error) {
	var rule models.ApprovalRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) FindAll(ctx context.Context) ([]models.ApprovalRule, error) {
	var rules []models.ApprovalRule
	err := r.db.WithContext(ctx).
		Order("approval_level ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) Create(ctx context.Context, rule *models.ApprovalRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ApprovalRule{}).
		Where("id = ?", id).
		Update("active", false).Error
}
