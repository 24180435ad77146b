package handlers

import (
	"github.com/sjperalta/expenseflow-api/internal/jobs"
	"github.com/sjperalta/expenseflow-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	User     *UserHandler
	Expense  *ExpenseHandler
	Approval *ApprovalHandler
	Rule     *RuleHandler
	Audit    *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(worker),
		Auth:     NewAuthHandler(svcs.Auth),
		User:     NewUserHandler(svcs.User),
		Expense:  NewExpenseHandler(svcs.Expense, svcs.Approval),
		Approval: NewApprovalHandler(svcs.Approval),
		Rule:     NewRuleHandler(svcs.Rule),
		Audit:    NewAuditHandler(svcs.Audit),
	}
}
