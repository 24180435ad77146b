package services

import (
	"time"

	"github.com/sjperalta/expenseflow-api/internal/config"
	"github.com/sjperalta/expenseflow-api/internal/jobs"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth     *AuthService
	User     *UserService
	Expense  *ExpenseService
	Approval *ApprovalService
	Rule     *RuleService
	Audit    *AuditService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	storageTimeout := time.Duration(cfg.StorageTimeoutSeconds) * time.Second

	return &Services{
		Auth:     NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:     NewUserService(repos.User, auditSvc),
		Expense:  NewExpenseService(repos, auditSvc),
		Approval: NewApprovalService(repos, auditSvc, worker, storageTimeout),
		Rule:     NewRuleService(repos.Rule, repos.User, auditSvc),
		Audit:    auditSvc,
	}
}
