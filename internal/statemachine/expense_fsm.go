package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/expenseflow-api/internal/models"
)

// ExpenseFSM wraps an expense with its state machine
type ExpenseFSM struct {
	expense *models.Expense
	fsm     *fsm.FSM
}

// NewExpenseFSM creates a new expense state machine
func NewExpenseFSM(expense *models.Expense) *ExpenseFSM {
	efsm := &ExpenseFSM{
		expense: expense,
	}

	efsm.fsm = fsm.NewFSM(
		expense.Status,
		fsm.Events{
			// pending → in_review
			{Name: "submit", Src: []string{models.ExpenseStatusPending}, Dst: models.ExpenseStatusInReview},

			// in_review → approved
			{Name: "approve", Src: []string{models.ExpenseStatusInReview}, Dst: models.ExpenseStatusApproved},

			// in_review → rejected
			{Name: "reject", Src: []string{models.ExpenseStatusInReview}, Dst: models.ExpenseStatusRejected},
		},
		fsm.Callbacks{},
	)

	return efsm
}

// Submit transitions expense into review
func (e *ExpenseFSM) Submit(ctx context.Context) error {
	if !e.expense.MaySubmit() {
		return fmt.Errorf("expense cannot enter review in current state: %s", e.expense.Status)
	}

	if err := e.fsm.Event(ctx, "submit"); err != nil {
		return fmt.Errorf("failed to submit expense: %w", err)
	}

	e.expense.Status = e.fsm.Current()
	return nil
}

// Approve transitions expense to approved state
func (e *ExpenseFSM) Approve(ctx context.Context) error {
	if !e.expense.MayResolve() {
		return fmt.Errorf("expense cannot be approved in current state: %s", e.expense.Status)
	}

	if err := e.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve expense: %w", err)
	}

	e.expense.Status = e.fsm.Current()
	return nil
}

// Reject transitions expense to rejected state
func (e *ExpenseFSM) Reject(ctx context.Context) error {
	if !e.expense.MayResolve() {
		return fmt.Errorf("expense cannot be rejected in current state: %s", e.expense.Status)
	}

	if err := e.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject expense: %w", err)
	}

	e.expense.Status = e.fsm.Current()
	return nil
}

// Current returns the current state
func (e *ExpenseFSM) Current() string {
	return e.fsm.Current()
}

// Can checks if a transition is possible
func (e *ExpenseFSM) Can(event string) bool {
	return e.fsm.Can(event)
}
