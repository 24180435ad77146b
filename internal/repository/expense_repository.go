package repository

import (
	"context"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, id uint) (*models.Expense, error)
	// FindByIDForUpdate locks the expense row for the duration of the
	// surrounding transaction. Resolve races serialize on this lock.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Expense, error)
	FindByEmployee(ctx context.Context, employeeID uint, status string) ([]models.Expense, error)
	List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_level ASC, created_at ASC")
		}).
		Preload("Approvals.Approver").
		First(&expense, id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&expense, id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) FindByEmployee(ctx context.Context, employeeID uint, status string) ([]models.Expense, error) {
	var expenses []models.Expense
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("submitted_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepository) List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Expense{})

	if status, ok := query.Filters["status"]; ok && status != "" {
		db = db.Where("status = ?", status)
	}
	if category, ok := query.Filters["category"]; ok && category != "" {
		db = db.Where("category = ?", category)
	}
	if employee, ok := query.Filters["employee_id"]; ok && employee != "" {
		db = db.Where("employee_id = ?", employee)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Employee").
		Order(query.OrderClause("submitted_at DESC")).
		Limit(query.PerPage).
		Offset((query.Page - 1) * query.PerPage).
		Find(&expenses).Error
	return expenses, total, err
}

func (r *expenseRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Expense{}, id).Error
}
