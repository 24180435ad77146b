package database

import (
	"github.com/sjperalta/expenseflow-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed inserts a development data set: an admin, a manager reporting to the
// admin, an employee reporting to the manager, and the banded approval
// rules. It is a no-op when users already exist.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	management := "Management"
	engineering := "Engineering"

	admin := models.User{
		Email:             "admin@company.com",
		EncryptedPassword: string(hashed),
		FullName:          "Alice Admin",
		Role:              models.RoleAdmin,
		Department:        &management,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	manager := models.User{
		Email:             "manager@company.com",
		EncryptedPassword: string(hashed),
		FullName:          "Bob Manager",
		Role:              models.RoleManager,
		ManagerID:         &admin.ID,
		Department:        &engineering,
	}
	if err := db.Create(&manager).Error; err != nil {
		return err
	}

	employee := models.User{
		Email:             "employee@company.com",
		EncryptedPassword: string(hashed),
		FullName:          "Charlie Employee",
		Role:              models.RoleEmployee,
		ManagerID:         &manager.ID,
		Department:        &engineering,
	}
	if err := db.Create(&employee).Error; err != nil {
		return err
	}

	managerRole := models.RoleManager
	adminRole := models.RoleAdmin
	under100 := 100.0
	under1000 := 1000.0
	unbounded := models.UnboundedAmount

	rules := []models.ApprovalRule{
		{
			Name:           "Under $100 - Manager Approval",
			RuleType:       models.RuleTypeAmountThreshold,
			ConditionValue: &under100,
			ApproverRole:   &managerRole,
			ApprovalLevel:  1,
			Active:         true,
		},
		{
			Name:           "$100-$1000 - Manager Approval",
			RuleType:       models.RuleTypeAmountThreshold,
			ConditionValue: &under1000,
			ApproverRole:   &managerRole,
			ApprovalLevel:  1,
			Active:         true,
		},
		{
			Name:           "Over $1000 - Admin Escalation",
			RuleType:       models.RuleTypeAmountThreshold,
			ConditionValue: &unbounded,
			ApproverRole:   &adminRole,
			ApprovalLevel:  2,
			Active:         true,
		},
	}
	return db.Create(&rules).Error
}
