package services

import (
	"context"
	"testing"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type stubRuleStore struct {
	repository.RuleRepository
	created *models.ApprovalRule
}

func (m *stubRuleStore) Create(ctx context.Context, rule *models.ApprovalRule) error {
	m.created = rule
	return nil
}

type ruleUserRepo struct {
	repository.UserRepository
	users map[uint]*models.User
}

func (m *ruleUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newRuleService() (*RuleService, *stubRuleStore) {
	store := &stubRuleStore{}
	users := &ruleUserRepo{users: map[uint]*models.User{
		1: {ID: 1, Role: models.RoleAdmin, Status: models.StatusActive},
	}}
	return NewRuleService(store, users, nil), store
}

func TestRuleService_Create_AmountThreshold(t *testing.T) {
	svc, store := newRuleService()

	value := 500.0
	role := models.RoleManager
	rule, err := svc.Create(context.Background(), 1, CreateRuleInput{
		Name:           "Mid-range purchases",
		RuleType:       models.RuleTypeAmountThreshold,
		ConditionValue: &value,
		ApproverRole:   &role,
		ApprovalLevel:  1,
	})
	assert.NoError(t, err)
	assert.True(t, rule.Active)
	assert.Equal(t, store.created, rule)
}

func TestRuleService_Create_UnboundedSentinelAccepted(t *testing.T) {
	svc, _ := newRuleService()

	value := models.UnboundedAmount
	role := models.RoleAdmin
	_, err := svc.Create(context.Background(), 1, CreateRuleInput{
		Name:           "Everything else",
		RuleType:       models.RuleTypeAmountThreshold,
		ConditionValue: &value,
		ApproverRole:   &role,
		ApprovalLevel:  2,
	})
	assert.NoError(t, err)
}

func TestRuleService_Create_Validation(t *testing.T) {
	svc, _ := newRuleService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateRuleInput{RuleType: models.RuleTypeAmountThreshold, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation) // missing name

	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: "made_up", ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeAmountThreshold, ApprovalLevel: 0})
	assert.ErrorIs(t, err, ErrValidation)

	// amount_threshold without a condition value
	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeAmountThreshold, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// negative non-sentinel condition value
	bad := -5.0
	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeAmountThreshold, ConditionValue: &bad, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// specific_approver without approver_id
	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeSpecificApprover, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// both role and id set
	role := models.RoleAdmin
	id := uint(1)
	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeSpecificApprover, ApproverID: &id, ApproverRole: &role, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// dangling approver reference
	missing := uint(404)
	_, err = svc.Create(ctx, 1, CreateRuleInput{Name: "x", RuleType: models.RuleTypeSpecificApprover, ApproverID: &missing, ApprovalLevel: 1})
	assert.ErrorIs(t, err, ErrValidation)
}
