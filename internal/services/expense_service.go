package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
)

// ExpenseService handles expense queries and owner-side operations.
// Submission and resolution go through the ApprovalService.
type ExpenseService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewExpenseService creates a new expense service
func NewExpenseService(repos *repository.Repositories, auditSvc *AuditService) *ExpenseService {
	return &ExpenseService{repos: repos, auditSvc: auditSvc}
}

// FindByID returns an expense with its approval records preloaded
func (s *ExpenseService) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	expense, err := s.repos.Expense.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return expense, nil
}

// FindByEmployee returns an employee's expenses, optionally filtered by status
func (s *ExpenseService) FindByEmployee(ctx context.Context, employeeID uint, status string) ([]models.Expense, error) {
	if status != "" && !validExpenseStatus(status) {
		return nil, validationError("unknown status: %s", status)
	}
	expenses, err := s.repos.Expense.FindByEmployee(ctx, employeeID, status)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return expenses, nil
}

// List returns expenses for admin/manager views with pagination and filters
func (s *ExpenseService) List(ctx context.Context, query *repository.ListQuery) ([]models.Expense, int64, error) {
	expenses, total, err := s.repos.Expense.List(ctx, query)
	if err != nil {
		return nil, 0, wrapStorageErr(err)
	}
	return expenses, total, nil
}

// Delete withdraws an expense. Only the owner may withdraw, and only while no
// approver has acted on it: once any approval record is resolved the expense
// belongs to the decision trail and stays.
func (s *ExpenseService) Delete(ctx context.Context, id, requesterID uint) error {
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		expense, err := tx.Expense.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapStorageErr(err)
		}
		if expense.EmployeeID != requesterID {
			return ErrUnauthorized
		}
		if !expense.MayDelete() {
			return fmt.Errorf("%w: expense is %s", ErrInvalidState, expense.Status)
		}

		records, err := tx.Approval.FindByExpense(ctx, id)
		if err != nil {
			return wrapStorageErr(err)
		}
		for _, rec := range records {
			if !rec.IsPending() {
				return fmt.Errorf("%w: an approver has already acted on this expense", ErrInvalidState)
			}
		}

		if err := tx.Approval.DeleteByExpense(ctx, id); err != nil {
			return wrapStorageErr(err)
		}
		return wrapStorageErr(tx.Expense.Delete(ctx, id))
	})
	if err != nil {
		if !isDomainErr(err) {
			err = wrapStorageErr(err)
		}
		return err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, requesterID, models.AuditActionDelete, "Expense", id, "", "", "")
	}
	return nil
}

func validExpenseStatus(status string) bool {
	switch status {
	case models.ExpenseStatusPending, models.ExpenseStatusInReview,
		models.ExpenseStatusApproved, models.ExpenseStatusRejected:
		return true
	}
	return false
}
