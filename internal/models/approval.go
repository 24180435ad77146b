package models

import (
	"time"
)

// ApprovalRecord represents one approval step of an expense's routing plan.
// Records are created in a batch at submission time and never deleted; they
// are the audit trail of who was asked to approve and what they decided.
type ApprovalRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ExpenseID     uint       `gorm:"not null;index:idx_approvals_expense_level" json:"expense_id"`
	ApproverID    uint       `gorm:"not null;index" json:"approver_id"`
	ApprovalLevel int        `gorm:"not null;index:idx_approvals_expense_level" json:"approval_level"`
	Status        string     `gorm:"default:pending;not null;index" json:"status"`
	Comments      *string    `gorm:"type:text" json:"comments"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     time.Time  `json:"created_at"`

	// Associations
	Expense  Expense `gorm:"foreignKey:ExpenseID" json:"-"`
	Approver User    `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// TableName specifies the table name for ApprovalRecord
func (ApprovalRecord) TableName() string {
	return "approvals"
}

// Approval status constants
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// IsPending returns true while the record awaits a decision
func (a *ApprovalRecord) IsPending() bool {
	return a.Status == ApprovalStatusPending
}

// IsResolved returns true once a decision has been recorded
func (a *ApprovalRecord) IsResolved() bool {
	return a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusRejected
}

// ApprovalRecordResponse is the JSON response format for approval records
type ApprovalRecordResponse struct {
	ID            uint       `json:"id"`
	ExpenseID     uint       `json:"expense_id"`
	ApproverID    uint       `json:"approver_id"`
	ApproverName  string     `json:"approver_name,omitempty"`
	ApprovalLevel int        `json:"approval_level"`
	Status        string     `json:"status"`
	Comments      *string    `json:"comments"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     time.Time  `json:"created_at"`

	// Populated on approval-queue listings where the expense is preloaded
	Expense *ExpenseResponse `json:"expense,omitempty"`
}

// ToResponse converts ApprovalRecord to ApprovalRecordResponse
func (a *ApprovalRecord) ToResponse() ApprovalRecordResponse {
	resp := ApprovalRecordResponse{
		ID:            a.ID,
		ExpenseID:     a.ExpenseID,
		ApproverID:    a.ApproverID,
		ApprovalLevel: a.ApprovalLevel,
		Status:        a.Status,
		Comments:      a.Comments,
		ResolvedAt:    a.ResolvedAt,
		CreatedAt:     a.CreatedAt,
	}
	if a.Approver.ID != 0 {
		resp.ApproverName = a.Approver.FullName
	}
	if a.Expense.ID != 0 {
		expense := a.Expense.ToResponse()
		resp.Expense = &expense
	}
	return resp
}
