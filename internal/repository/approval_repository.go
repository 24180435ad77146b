package repository

import (
	"context"
	"time"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
)

// ApprovalRepository defines the interface for approval record data access
type ApprovalRepository interface {
	CreateBatch(ctx context.Context, records []models.ApprovalRecord) ([]models.ApprovalRecord, error)
	FindByExpense(ctx context.Context, expenseID uint) ([]models.ApprovalRecord, error)
	FindByExpenseAndLevel(ctx context.Context, expenseID uint, level int) (*models.ApprovalRecord, error)
	FindPendingByApprover(ctx context.Context, approverID uint) ([]models.ApprovalRecord, error)
	// Resolve records a decision: status, comments, resolved_at and the user
	// who actually acted. Resolved records are never deleted.
	Resolve(ctx context.Context, id uint, status string, comments *string, approverID uint, resolvedAt time.Time) error
	// DeleteByExpense removes an expense's approval records. Only owner
	// withdrawal uses it, and the service refuses to withdraw once any
	// record is resolved.
	DeleteByExpense(ctx context.Context, expenseID uint) error
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval record repository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) CreateBatch(ctx context.Context, records []models.ApprovalRecord) ([]models.ApprovalRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *approvalRepository) FindByExpense(ctx context.Context, expenseID uint) ([]models.ApprovalRecord, error) {
	var records []models.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("approval_level ASC, created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *approvalRepository) FindByExpenseAndLevel(ctx context.Context, expenseID uint, level int) (*models.ApprovalRecord, error) {
	var record models.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("expense_id = ? AND approval_level = ?", expenseID, level).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *approvalRepository) FindPendingByApprover(ctx context.Context, approverID uint) ([]models.ApprovalRecord, error) {
	var records []models.ApprovalRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN expenses ON expenses.id = approvals.expense_id").
		Where("approvals.approver_id = ? AND approvals.status = ?", approverID, models.ApprovalStatusPending).
		Where("expenses.status = ?", models.ExpenseStatusInReview).
		Preload("Expense").
		Preload("Expense.Employee").
		Order("approvals.created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *approvalRepository) DeleteByExpense(ctx context.Context, expenseID uint) error {
	return r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Delete(&models.ApprovalRecord{}).Error
}

func (r *approvalRepository) Resolve(ctx context.Context, id uint, status string, comments *string, approverID uint, resolvedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ApprovalRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"comments":    comments,
			"approver_id": approverID,
			"resolved_at": resolvedAt,
		}).Error
}
