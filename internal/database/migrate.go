package database

import (
	"fmt"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the database schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.ApprovalRecord{},
		&models.ApprovalRule{},
		&models.RefreshToken{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
