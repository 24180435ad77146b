package services

import (
	"context"
	"testing"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func newExpenseService(h *harness) *ExpenseService {
	return NewExpenseService(h.repos, nil)
}

func TestDelete_OwnerWithdrawsBeforeAnyDecision(t *testing.T) {
	h := newHarness()

	expense, err := h.svc.Submit(context.Background(), 3, submitInput(45.50))
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusInReview, expense.Status)

	err = newExpenseService(h).Delete(context.Background(), expense.ID, 3)
	assert.NoError(t, err)
	assert.Empty(t, h.expenses.expenses)
	assert.Empty(t, h.approvals.records)
}

func TestDelete_RefusedOnceApproverActed(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(1500))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	err = newExpenseService(h).Delete(context.Background(), expense.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The decision trail is untouched.
	records, _ := h.approvals.FindByExpense(context.Background(), expense.ID)
	assert.Len(t, records, 2)
}

func TestDelete_RefusedWhenFinalized(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(45))

	_, err := h.svc.Resolve(context.Background(), expense.ID, 2, DecisionApprove, nil)
	assert.NoError(t, err)

	err = newExpenseService(h).Delete(context.Background(), expense.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDelete_NotOwner(t *testing.T) {
	h := newHarness()
	expense, _ := h.svc.Submit(context.Background(), 3, submitInput(45))

	err := newExpenseService(h).Delete(context.Background(), expense.ID, 2)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
