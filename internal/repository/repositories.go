package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Expense      ExpenseRepository
	Approval     ApprovalRepository
	Rule         RuleRepository
	RefreshToken RefreshTokenRepository

	db *gorm.DB
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Expense:      NewExpenseRepository(db),
		Approval:     NewApprovalRepository(db),
		Rule:         NewRuleRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		db:           db,
	}
}

// Atomic runs fn inside a single database transaction, handing it
// transaction-scoped repositories. Every read and write fn performs commits
// or rolls back as one unit; workflow transitions depend on this to never
// leave an expense and its approval records out of sync.
func (r *Repositories) Atomic(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		// No database wired (unit tests with mock repositories).
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
