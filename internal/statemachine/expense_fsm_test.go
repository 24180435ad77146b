package statemachine

import (
	"context"
	"testing"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExpenseFSM_SubmitFromPending(t *testing.T) {
	expense := &models.Expense{Status: models.ExpenseStatusPending}
	fsm := NewExpenseFSM(expense)

	err := fsm.Submit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusInReview, expense.Status)
	assert.Equal(t, models.ExpenseStatusInReview, fsm.Current())
}

func TestExpenseFSM_SubmitTwiceFails(t *testing.T) {
	expense := &models.Expense{Status: models.ExpenseStatusPending}
	fsm := NewExpenseFSM(expense)

	assert.NoError(t, fsm.Submit(context.Background()))
	assert.Error(t, fsm.Submit(context.Background()))
	assert.Equal(t, models.ExpenseStatusInReview, expense.Status)
}

func TestExpenseFSM_ApproveFromReview(t *testing.T) {
	expense := &models.Expense{Status: models.ExpenseStatusInReview}
	fsm := NewExpenseFSM(expense)

	err := fsm.Approve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusApproved, expense.Status)
}

func TestExpenseFSM_RejectFromReview(t *testing.T) {
	expense := &models.Expense{Status: models.ExpenseStatusInReview}
	fsm := NewExpenseFSM(expense)

	err := fsm.Reject(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusRejected, expense.Status)
}

func TestExpenseFSM_ApproveFromPendingFails(t *testing.T) {
	expense := &models.Expense{Status: models.ExpenseStatusPending}
	fsm := NewExpenseFSM(expense)

	assert.Error(t, fsm.Approve(context.Background()))
	assert.Equal(t, models.ExpenseStatusPending, expense.Status)
}

func TestExpenseFSM_TerminalStatesAreFinal(t *testing.T) {
	for _, status := range []string{models.ExpenseStatusApproved, models.ExpenseStatusRejected} {
		expense := &models.Expense{Status: status}
		fsm := NewExpenseFSM(expense)

		assert.Error(t, fsm.Submit(context.Background()))
		assert.Error(t, fsm.Approve(context.Background()))
		assert.Error(t, fsm.Reject(context.Background()))
		assert.Equal(t, status, expense.Status)
	}
}

func TestExpenseFSM_Can(t *testing.T) {
	fsm := NewExpenseFSM(&models.Expense{Status: models.ExpenseStatusInReview})

	assert.True(t, fsm.Can("approve"))
	assert.True(t, fsm.Can("reject"))
	assert.False(t, fsm.Can("submit"))
}
