package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sjperalta/expenseflow-api/internal/jobs"
	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/sjperalta/expenseflow-api/internal/statemachine"
	"github.com/sjperalta/expenseflow-api/internal/workflow"
	"github.com/sjperalta/expenseflow-api/pkg/logger"
)

// Decision constants for Resolve
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// SubmitExpenseInput carries the fields an employee provides at submission
type SubmitExpenseInput struct {
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
}

// ApprovalService orchestrates the expense approval workflow: it ties the
// rule evaluator's plan to the state machine, materializes approval records
// at submission and advances the expense as approvers act.
type ApprovalService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
	worker   *jobs.Worker
	timeout  time.Duration
}

// NewApprovalService creates a new approval orchestrator
func NewApprovalService(repos *repository.Repositories, auditSvc *AuditService, worker *jobs.Worker, timeout time.Duration) *ApprovalService {
	return &ApprovalService{
		repos:    repos,
		auditSvc: auditSvc,
		worker:   worker,
		timeout:  timeout,
	}
}

// Submit validates the claim, computes the routing plan, persists the
// expense with one approval record per plan level and moves it into review.
// Everything runs in a single transaction: a failure leaves no trace.
func (s *ApprovalService) Submit(ctx context.Context, employeeID uint, input SubmitExpenseInput) (*models.Expense, error) {
	if input.Amount <= 0 {
		return nil, validationError("amount must be positive")
	}
	if !models.ValidCategory(input.Category) {
		return nil, validationError("unknown category: %s", input.Category)
	}
	if input.ExpenseDate.IsZero() {
		return nil, validationError("expense_date is required")
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var expense *models.Expense
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		owner, err := tx.User.FindByID(ctx, employeeID)
		if err != nil {
			return wrapStorageErr(err)
		}
		if !owner.IsActive() {
			return fmt.Errorf("%w: employee account is not active", ErrValidation)
		}

		rules, err := tx.Rule.FindActive(ctx)
		if err != nil {
			return wrapStorageErr(err)
		}

		now := time.Now()
		expense = &models.Expense{
			EmployeeID:  employeeID,
			Amount:      input.Amount,
			Currency:    input.Currency,
			Category:    input.Category,
			Description: input.Description,
			ExpenseDate: input.ExpenseDate,
			Status:      models.ExpenseStatusPending,
			SubmittedAt: now,
		}

		plan, err := workflow.NewEvaluator(tx.User).BuildPlan(ctx, owner, expense, rules)
		if err != nil {
			if errors.Is(err, workflow.ErrUnroutable) {
				return fmt.Errorf("%w: %v", ErrUnroutableExpense, err)
			}
			return wrapStorageErr(err)
		}

		if err := tx.Expense.Create(ctx, expense); err != nil {
			return wrapStorageErr(err)
		}

		// The full plan is fixed and visible at submission time: every level
		// gets its record now, assigned to that level's primary approver.
		records := make([]models.ApprovalRecord, 0, len(plan.Levels))
		for _, level := range plan.Levels {
			records = append(records, models.ApprovalRecord{
				ExpenseID:     expense.ID,
				ApproverID:    level.Primary(),
				ApprovalLevel: level.Number,
				Status:        models.ApprovalStatusPending,
			})
		}
		if _, err := tx.Approval.CreateBatch(ctx, records); err != nil {
			return wrapStorageErr(err)
		}

		if err := statemachine.NewExpenseFSM(expense).Submit(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		return wrapStorageErr(tx.Expense.UpdateStatus(ctx, expense.ID, expense.Status))
	})
	if err != nil {
		if !isDomainErr(err) {
			err = wrapStorageErr(err)
		}
		return nil, err
	}

	s.audit(employeeID, models.AuditActionSubmit, "Expense", expense.ID,
		fmt.Sprintf("amount=%.2f %s category=%s", expense.Amount, expense.Currency, expense.Category))

	return s.reload(ctx, expense.ID)
}

// Resolve is the single mutating entry point for approver decisions. It runs
// with the expense row locked so concurrent resolvers serialize: the loser
// observes the already-resolved record.
func (s *ApprovalService) Resolve(ctx context.Context, expenseID, approverID uint, decision string, comments *string) (*models.Expense, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, validationError("unknown decision: %s", decision)
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var resolvedLevel int
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		expense, err := tx.Expense.FindByIDForUpdate(ctx, expenseID)
		if err != nil {
			return wrapStorageErr(err)
		}
		if expense.IsTerminal() {
			return ErrExpenseFinalized
		}
		if !expense.MayResolve() {
			return fmt.Errorf("%w: expense is %s", ErrInvalidState, expense.Status)
		}

		records, err := tx.Approval.FindByExpense(ctx, expenseID)
		if err != nil {
			return wrapStorageErr(err)
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: expense has no approval plan", ErrInvalidState)
		}

		plan, err := s.currentPlan(ctx, tx, expense)
		if err != nil {
			return err
		}

		target, err := locateTarget(records, plan, approverID)
		if err != nil {
			return err
		}

		fsm := statemachine.NewExpenseFSM(expense)
		now := time.Now()

		if decision == DecisionReject {
			if err := tx.Approval.Resolve(ctx, target.ID, models.ApprovalStatusRejected, comments, approverID, now); err != nil {
				return wrapStorageErr(err)
			}
			// Rejection is final: short-circuit the rest of the plan.
			auto := fmt.Sprintf("Closed automatically: expense rejected at level %d", target.ApprovalLevel)
			for _, rec := range records {
				if rec.ID == target.ID || !rec.IsPending() {
					continue
				}
				if err := tx.Approval.Resolve(ctx, rec.ID, models.ApprovalStatusRejected, &auto, rec.ApproverID, now); err != nil {
					return wrapStorageErr(err)
				}
			}
			if err := fsm.Reject(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			resolvedLevel = target.ApprovalLevel
			return wrapStorageErr(tx.Expense.UpdateStatus(ctx, expense.ID, expense.Status))
		}

		if err := tx.Approval.Resolve(ctx, target.ID, models.ApprovalStatusApproved, comments, approverID, now); err != nil {
			return wrapStorageErr(err)
		}
		resolvedLevel = target.ApprovalLevel

		// Approving the highest level finalizes the expense; otherwise the
		// next level's record (already created at submission) is now
		// actionable and the expense stays in review.
		highest := records[len(records)-1].ApprovalLevel
		if target.ApprovalLevel == highest {
			if err := fsm.Approve(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			return wrapStorageErr(tx.Expense.UpdateStatus(ctx, expense.ID, expense.Status))
		}
		return nil
	})
	if err != nil {
		if !isDomainErr(err) {
			err = wrapStorageErr(err)
		}
		return nil, err
	}

	action := models.AuditActionApprove
	if decision == DecisionReject {
		action = models.AuditActionReject
	}
	s.audit(approverID, action, "Expense", expenseID, fmt.Sprintf("level=%d", resolvedLevel))

	return s.reload(ctx, expenseID)
}

// PendingForApprover returns the approval queue for a user
func (s *ApprovalService) PendingForApprover(ctx context.Context, approverID uint) ([]models.ApprovalRecord, error) {
	records, err := s.repos.Approval.FindPendingByApprover(ctx, approverID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return records, nil
}

// HistoryForExpense returns the audit trail of approval records, ordered by
// level then creation time
func (s *ApprovalService) HistoryForExpense(ctx context.Context, expenseID uint) ([]models.ApprovalRecord, error) {
	records, err := s.repos.Approval.FindByExpense(ctx, expenseID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return records, nil
}

// currentPlan recomputes eligibility from the active rules. When routing can
// no longer be computed (e.g. the submitter's manager left), eligibility
// falls back to the approvers recorded at submission time.
func (s *ApprovalService) currentPlan(ctx context.Context, tx *repository.Repositories, expense *models.Expense) (*workflow.Plan, error) {
	owner, err := tx.User.FindByID(ctx, expense.EmployeeID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	rules, err := tx.Rule.FindActive(ctx)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	plan, err := workflow.NewEvaluator(tx.User).BuildPlan(ctx, owner, expense, rules)
	if err != nil {
		if errors.Is(err, workflow.ErrUnroutable) {
			return &workflow.Plan{}, nil
		}
		return nil, wrapStorageErr(err)
	}
	return plan, nil
}

// locateTarget finds the record the actor may resolve, enforcing strict
// level ordering. Eligibility at a level is the union of the recomputed
// predicate and the approver assigned at submission time.
func locateTarget(records []models.ApprovalRecord, plan *workflow.Plan, approverID uint) (*models.ApprovalRecord, error) {
	eligibleAt := func(rec *models.ApprovalRecord) bool {
		if rec.ApproverID == approverID {
			return true
		}
		if level, ok := plan.LevelFor(rec.ApprovalLevel); ok {
			return level.Eligible(approverID)
		}
		return false
	}

	var lowestPending *models.ApprovalRecord
	for i := range records {
		if records[i].IsPending() {
			lowestPending = &records[i]
			break
		}
	}
	if lowestPending == nil {
		// Expense is in review but every record is resolved; the transition
		// that should have finalized it is racing us.
		return nil, ErrAlreadyResolved
	}

	if eligibleAt(lowestPending) {
		return lowestPending, nil
	}

	eligibleSomewhere := false
	for i := range records {
		rec := &records[i]
		if rec.ID == lowestPending.ID || !eligibleAt(rec) {
			continue
		}
		eligibleSomewhere = true
		if rec.IsPending() && rec.ApprovalLevel > lowestPending.ApprovalLevel {
			return nil, ErrOutOfOrderApproval
		}
	}
	if eligibleSomewhere {
		// The actor's own level is already resolved (duplicate action).
		return nil, ErrAlreadyResolved
	}
	return nil, ErrNotEligibleApprover
}

func (s *ApprovalService) reload(ctx context.Context, expenseID uint) (*models.Expense, error) {
	expense, err := s.repos.Expense.FindByID(ctx, expenseID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return expense, nil
}

func (s *ApprovalService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// audit records the action asynchronously; workflow outcomes never depend on
// the audit write.
func (s *ApprovalService) audit(userID uint, action, entity string, entityID uint, details string) {
	if s.worker == nil || s.auditSvc == nil {
		return
	}
	s.worker.Enqueue(func(ctx context.Context) error {
		if err := s.auditSvc.Log(ctx, userID, action, entity, entityID, details, "", ""); err != nil {
			logger.Error("failed to write audit entry", "action", action, "entity", entity, "error", err)
			return err
		}
		return nil
	})
}
