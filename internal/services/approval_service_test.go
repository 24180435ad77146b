package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	repository.UserRepository
	users  map[uint]*models.User
	byRole map[string][]models.User
}

func (m *stubUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *stubUserRepo) FindActiveByRole(ctx context.Context, role string) ([]models.User, error) {
	return m.byRole[role], nil
}

type stubRuleRepo struct {
	repository.RuleRepository
	rules []models.ApprovalRule
}

func (m *stubRuleRepo) FindActive(ctx context.Context) ([]models.ApprovalRule, error) {
	return m.rules, nil
}

type stubExpenseRepo struct {
	repository.ExpenseRepository
	expenses map[uint]*models.Expense
	nextID   uint
}

func (m *stubExpenseRepo) Create(ctx context.Context, expense *models.Expense) error {
	m.nextID++
	expense.ID = m.nextID
	m.expenses[expense.ID] = expense
	return nil
}

func (m *stubExpenseRepo) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	if e, ok := m.expenses[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *stubExpenseRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Expense, error) {
	return m.FindByID(ctx, id)
}

func (m *stubExpenseRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	if e, ok := m.expenses[id]; ok {
		e.Status = status
	}
	return nil
}

func (m *stubExpenseRepo) Delete(ctx context.Context, id uint) error {
	delete(m.expenses, id)
	return nil
}

type stubApprovalRepo struct {
	repository.ApprovalRepository
	records []models.ApprovalRecord
	nextID  uint
}

func (m *stubApprovalRepo) CreateBatch(ctx context.Context, records []models.ApprovalRecord) ([]models.ApprovalRecord, error) {
	for i := range records {
		m.nextID++
		records[i].ID = m.nextID
		m.records = append(m.records, records[i])
	}
	return records, nil
}

func (m *stubApprovalRepo) FindByExpense(ctx context.Context, expenseID uint) ([]models.ApprovalRecord, error) {
	var out []models.ApprovalRecord
	for _, rec := range m.records {
		if rec.ExpenseID == expenseID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovalLevel < out[j].ApprovalLevel })
	return out, nil
}

func (m *stubApprovalRepo) DeleteByExpense(ctx context.Context, expenseID uint) error {
	var kept []models.ApprovalRecord
	for _, rec := range m.records {
		if rec.ExpenseID != expenseID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *stubApprovalRepo) Resolve(ctx context.Context, id uint, status string, comments *string, approverID uint, resolvedAt time.Time) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Status = status
			m.records[i].Comments = comments
			m.records[i].ApproverID = approverID
			m.records[i].ResolvedAt = &resolvedAt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type harness struct {
	svc       *ApprovalService
	repos     *repository.Repositories
	users     *stubUserRepo
	expenses  *stubExpenseRepo
	approvals *stubApprovalRepo
	rules     *stubRuleRepo
}

// admin(1) <- manager(2) <- employee(3), with the banded rule set:
// up to 100 and up to 1000 route to the manager at level 1, anything above
// escalates to the admin at level 2.
func newHarness() *harness {
	managerRole := models.RoleManager
	adminRole := models.RoleAdmin
	under100 := 100.0
	under1000 := 1000.0
	unbounded := models.UnboundedAmount
	managerID := uint(2)
	adminID := uint(1)

	admin := &models.User{ID: 1, Role: models.RoleAdmin, Status: models.StatusActive}
	manager := &models.User{ID: 2, Role: models.RoleManager, ManagerID: &adminID, Status: models.StatusActive}
	employee := &models.User{ID: 3, Role: models.RoleEmployee, ManagerID: &managerID, Status: models.StatusActive}

	users := &stubUserRepo{
		users: map[uint]*models.User{1: admin, 2: manager, 3: employee},
		byRole: map[string][]models.User{
			models.RoleAdmin:   {*admin},
			models.RoleManager: {*manager},
		},
	}
	expenses := &stubExpenseRepo{expenses: make(map[uint]*models.Expense)}
	approvals := &stubApprovalRepo{}
	rules := &stubRuleRepo{rules: []models.ApprovalRule{
		{ID: 1, RuleType: models.RuleTypeAmountThreshold, ConditionValue: &under100, ApproverRole: &managerRole, ApprovalLevel: 1, Active: true},
		{ID: 2, RuleType: models.RuleTypeAmountThreshold, ConditionValue: &under1000, ApproverRole: &managerRole, ApprovalLevel: 1, Active: true},
		{ID: 3, RuleType: models.RuleTypeAmountThreshold, ConditionValue: &unbounded, ApproverRole: &adminRole, ApprovalLevel: 2, Active: true},
	}}

	repos := &repository.Repositories{
		User:     users,
		Expense:  expenses,
		Approval: approvals,
		Rule:     rules,
	}

	return &harness{
		svc:       NewApprovalService(repos, nil, nil, 0),
		repos:     repos,
		users:     users,
		expenses:  expenses,
		approvals: approvals,
		rules:     rules,
	}
}

// addDelegateReviewer gives level 1 a second eligible approver alongside the
// direct manager, via a specific_approver rule.
func addDelegateReviewer(h *harness) uint {
	reviewerID := uint(4)
	h.users.users[reviewerID] = &models.User{ID: reviewerID, Role: models.RoleManager, Status: models.StatusActive}
	h.rules.rules = append(h.rules.rules, models.ApprovalRule{
		ID:            4,
		RuleType:      models.RuleTypeSpecificApprover,
		ApproverID:    &reviewerID,
		ApprovalLevel: 1,
		Active:        true,
	})
	return reviewerID
}

func submitInput(amount float64) SubmitExpenseInput {
	return SubmitExpenseInput{
		Amount:      amount,
		Category:    models.CategoryTravel,
		Description: "client visit",
		ExpenseDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSubmit_SmallAmount_SingleLevelPlan(t *testing.T) {
	h := newHarness()

	expense, err := h.svc.Submit(context.Background(), 3, submitInput(45.50))
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusInReview, expense.Status)

	records, _ := h.approvals.FindByExpense(context.Background(), expense.ID)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ApprovalLevel)
	assert.Equal(t, uint(2), records[0].ApproverID)
	assert.Equal(t, models.ApprovalStatusPending, records[0].Status)
}

func TestSubmit_LargeAmount_TwoLevelPlan(t *testing.T) {
	h := newHarness()

	expense, err := h.svc.Submit(context.Background(), 3, submitInput(1500))
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusInReview, expense.Status)

	records, _ := h.approvals.FindByExpense(context.Background(), expense.ID)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ApprovalLevel)
	assert.Equal(t, uint(2), records[0].ApproverID)
	assert.Equal(t, 2, records[1].ApprovalLevel)
	assert.Equal(t, uint(1), records[1].ApproverID)
}

func TestSubmit_ValidationFailures(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Submit(context.Background(), 3, submitInput(0))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.Submit(context.Background(), 3, submitInput(-10))
	assert.ErrorIs(t, err, ErrValidation)

	bad := submitInput(50)
	bad.Category = "Yachts"
	_, err = h.svc.Submit(context.Background(), 3, bad)
	assert.ErrorIs(t, err, ErrValidation)

	noDate := submitInput(50)
	noDate.ExpenseDate = time.Time{}
	_, err = h.svc.Submit(context.Background(), 3, noDate)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmit_FailureLeavesNoExpense(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Submit(context.Background(), 3, submitInput(-1))
	assert.Error(t, err)
	assert.Empty(t, h.expenses.expenses)
	assert.Empty(t, h.approvals.records)
}

func TestSubmit_Unroutable(t *testing.T) {
	h := newHarness()
	h.rules.rules = nil
	orphan := &models.User{ID: 9, Role: models.RoleEmployee, Status: models.StatusActive}
	h.users.users[9] = orphan

	_, err := h.svc.Submit(context.Background(), 9, submitInput(50))
	assert.ErrorIs(t, err, ErrUnroutableExpense)
}

func TestResolve_ApproveAdvancesToNextLevel(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	updated, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusInReview, updated.Status)

	records, _ := h.approvals.FindByExpense(context.Background(), expense.ID)
	assert.Equal(t, models.ApprovalStatusApproved, records[0].Status)
	assert.NotNil(t, records[0].ResolvedAt)
	assert.Equal(t, models.ApprovalStatusPending, records[1].Status)
}

func TestResolve_FinalLevelApprovalFinalizes(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	updated, err := h.svc.Resolve(context.Background(), expense.ID, 1, DecisionApprove, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusApproved, updated.Status)
}

func TestResolve_RejectShortCircuits(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	comment := "no receipt attached"
	updated, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionReject, &comment)
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusRejected, updated.Status)

	records, _ := h.approvals.FindByExpense(context.Background(), expense.ID)
	assert.Equal(t, models.ApprovalStatusRejected, records[0].Status)
	assert.Equal(t, &comment, records[0].Comments)
	// The higher level is closed automatically, never left dangling.
	assert.Equal(t, models.ApprovalStatusRejected, records[1].Status)
	assert.NotNil(t, records[1].Comments)
}

func TestResolve_OutOfOrderApproval(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	// Admin holds level 2 but level 1 is still pending.
	_, err := h.svc.Resolve(context.Background(), expense.ID, 1, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrOutOfOrderApproval)
}

func TestResolve_NotEligibleApprover(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 3, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrNotEligibleApprover)
}

func TestResolve_DuplicateDecision(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	_, err = h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolve_RacedLevel_SecondApproverGetsAlreadyResolved(t *testing.T) {
	h := newHarness()
	reviewer := addDelegateReviewer(h)
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	// The other level-1 approver acts after the manager already resolved the
	// level; the level is gone, not the approver's eligibility.
	_, err = h.svc.Resolve(context.Background(), expense.ID, reviewer, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolve_RacedFinalLevelReportsFinalized(t *testing.T) {
	h := newHarness()
	reviewer := addDelegateReviewer(h)
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(45))

	updated, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusApproved, updated.Status)

	// Losing the race on the highest level means the expense is already
	// terminal, so the loser sees the finalized expense before any record.
	_, err = h.svc.Resolve(context.Background(), expense.ID, reviewer, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrExpenseFinalized)
}

func TestResolve_FinalizedExpense(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(45))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	_, err = h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrExpenseFinalized)
}

func TestResolve_InvalidDecision(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Resolve(context.Background(), 1, 2, "escalate", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolve_UnknownExpense(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Resolve(context.Background(), 404, 2, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_PendingExpenseNotResolvable(t *testing.T) {
	h := newHarness()
	h.expenses.expenses[7] = &models.Expense{ID: 7, EmployeeID: 3, Status: models.ExpenseStatusPending}

	_, err := h.svc.Resolve(context.Background(), 7, 2, DecisionApprove, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}
