package workflow

import (
	"context"
	"testing"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockDirectory struct {
	users  map[uint]*models.User
	byRole map[string][]models.User
}

func (m *mockDirectory) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectory) FindActiveByRole(ctx context.Context, role string) ([]models.User, error) {
	return m.byRole[role], nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrUint(v uint) *uint        { return &v }

// admin(1) <- manager(2) <- employee(3), employee in Engineering
func orgDirectory() (*mockDirectory, *models.User) {
	engineering := "Engineering"
	admin := &models.User{ID: 1, Role: models.RoleAdmin, Status: models.StatusActive}
	manager := &models.User{ID: 2, Role: models.RoleManager, ManagerID: ptrUint(1), Status: models.StatusActive}
	employee := &models.User{ID: 3, Role: models.RoleEmployee, ManagerID: ptrUint(2), Department: &engineering, Status: models.StatusActive}

	dir := &mockDirectory{
		users: map[uint]*models.User{1: admin, 2: manager, 3: employee},
		byRole: map[string][]models.User{
			models.RoleAdmin:   {*admin},
			models.RoleManager: {*manager},
		},
	}
	return dir, employee
}

func bandedRules() []models.ApprovalRule {
	managerRole := models.RoleManager
	adminRole := models.RoleAdmin
	return []models.ApprovalRule{
		{ID: 1, RuleType: models.RuleTypeAmountThreshold, ConditionValue: ptrFloat(100), ApproverRole: &managerRole, ApprovalLevel: 1, Active: true},
		{ID: 2, RuleType: models.RuleTypeAmountThreshold, ConditionValue: ptrFloat(1000), ApproverRole: &managerRole, ApprovalLevel: 1, Active: true},
		{ID: 3, RuleType: models.RuleTypeAmountThreshold, ConditionValue: ptrFloat(models.UnboundedAmount), ApproverRole: &adminRole, ApprovalLevel: 2, Active: true},
	}
}

func TestBuildPlan_SmallAmount_SingleManagerLevel(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 45.50}, bandedRules())

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, 1, plan.Levels[0].Number)
	assert.Equal(t, []uint{2}, plan.Levels[0].ApproverIDs)
}

func TestBuildPlan_MidAmount_ManagerLevel(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 500}, bandedRules())

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, []uint{2}, plan.Levels[0].ApproverIDs)
}

func TestBuildPlan_LargeAmount_ManagerThenAdmin(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 1500}, bandedRules())

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 2)
	assert.Equal(t, 1, plan.Levels[0].Number)
	assert.Equal(t, []uint{2}, plan.Levels[0].ApproverIDs)
	assert.Equal(t, 2, plan.Levels[1].Number)
	assert.Equal(t, []uint{1}, plan.Levels[1].ApproverIDs)
}

func TestBuildPlan_BoundaryAmountStaysInBand(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 1000}, bandedRules())

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, 1, plan.Levels[0].Number)
}

func TestBuildPlan_LevelsAscendingNoDuplicates(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 9999}, bandedRules())

	assert.NoError(t, err)
	prev := 0
	for _, level := range plan.Levels {
		assert.Greater(t, level.Number, prev)
		prev = level.Number
	}
}

func TestBuildPlan_NoRulesFallsBackToDirectManager(t *testing.T) {
	dir, employee := orgDirectory()
	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, nil)

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, 1, plan.Levels[0].Number)
	assert.Equal(t, []uint{2}, plan.Levels[0].ApproverIDs)
}

func TestBuildPlan_NoRulesNoManager_Unroutable(t *testing.T) {
	dir, _ := orgDirectory()
	orphan := &models.User{ID: 9, Role: models.RoleEmployee, Status: models.StatusActive}
	dir.users[9] = orphan

	_, err := NewEvaluator(dir).BuildPlan(context.Background(), orphan,
		&models.Expense{Amount: 50}, nil)

	assert.ErrorIs(t, err, ErrUnroutable)
}

func TestBuildPlan_InactiveManagerSkipped(t *testing.T) {
	dir, employee := orgDirectory()
	dir.users[2].Status = models.StatusInactive

	_, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, nil)

	assert.ErrorIs(t, err, ErrUnroutable)
}

func TestBuildPlan_SpecificApproverDepartmentFilter(t *testing.T) {
	dir, employee := orgDirectory()
	finance := "Finance"
	engineering := "Engineering"
	rules := []models.ApprovalRule{
		{ID: 10, RuleType: models.RuleTypeSpecificApprover, ApproverID: ptrUint(1), ApprovalLevel: 2, Department: &finance, Active: true},
		{ID: 11, RuleType: models.RuleTypeSpecificApprover, ApproverID: ptrUint(1), ApprovalLevel: 3, Department: &engineering, Active: true},
	}

	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, rules)

	assert.NoError(t, err)
	// Finance-scoped rule skipped; engineering rule matched; level 1 backfilled.
	assert.Len(t, plan.Levels, 2)
	assert.Equal(t, 1, plan.Levels[0].Number)
	assert.Equal(t, 3, plan.Levels[1].Number)
	assert.Equal(t, []uint{1}, plan.Levels[1].ApproverIDs)
}

func TestBuildPlan_DepartmentRuleRequiresMatch(t *testing.T) {
	dir, employee := orgDirectory()
	finance := "Finance"
	rules := []models.ApprovalRule{
		{ID: 20, RuleType: models.RuleTypeDepartmentRule, ApproverID: ptrUint(1), ApprovalLevel: 2, Department: &finance, Active: true},
	}

	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, rules)

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, 1, plan.Levels[0].Number)
}

func TestBuildPlan_SameLevelRulesMergeApprovers(t *testing.T) {
	dir, employee := orgDirectory()
	rules := []models.ApprovalRule{
		{ID: 30, RuleType: models.RuleTypeSpecificApprover, ApproverID: ptrUint(1), ApprovalLevel: 1, Active: true},
		{ID: 31, RuleType: models.RuleTypeSpecificApprover, ApproverID: ptrUint(2), ApprovalLevel: 1, Active: true},
	}

	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, rules)

	assert.NoError(t, err)
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, []uint{1, 2}, plan.Levels[0].ApproverIDs)
	assert.True(t, plan.Levels[0].Eligible(1))
	assert.True(t, plan.Levels[0].Eligible(2))
	assert.False(t, plan.Levels[0].Eligible(3))
}

func TestBuildPlan_MissingSpecificApproverIgnored(t *testing.T) {
	dir, employee := orgDirectory()
	rules := []models.ApprovalRule{
		{ID: 40, RuleType: models.RuleTypeSpecificApprover, ApproverID: ptrUint(999), ApprovalLevel: 2, Active: true},
	}

	plan, err := NewEvaluator(dir).BuildPlan(context.Background(), employee,
		&models.Expense{Amount: 50}, rules)

	assert.NoError(t, err)
	// Dangling approver reference contributes nothing; manager backstop remains.
	assert.Len(t, plan.Levels, 1)
	assert.Equal(t, 1, plan.Levels[0].Number)
}

func TestMatchAmountBand_SkipsRulesWithoutConditionValue(t *testing.T) {
	role := models.RoleManager
	rules := []models.ApprovalRule{
		{ID: 1, RuleType: models.RuleTypeAmountThreshold, ApproverRole: &role, ApprovalLevel: 1},
		{ID: 2, RuleType: models.RuleTypeAmountThreshold, ConditionValue: ptrFloat(100), ApproverRole: &role, ApprovalLevel: 1},
	}

	matched := matchAmountBand(50, rules)
	assert.Len(t, matched, 1)
	assert.Equal(t, uint(2), matched[0].ID)
}

func TestPlan_HighestLevelAndLookup(t *testing.T) {
	plan := &Plan{Levels: []Level{
		{Number: 1, ApproverIDs: []uint{2}},
		{Number: 2, ApproverIDs: []uint{1}},
	}}

	assert.Equal(t, 2, plan.HighestLevel())
	level, ok := plan.LevelFor(1)
	assert.True(t, ok)
	assert.Equal(t, uint(2), level.Primary())
	_, ok = plan.LevelFor(5)
	assert.False(t, ok)
}
