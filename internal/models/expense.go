package models

import (
	"time"
)

// Expense represents an expense claim submitted by an employee
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EmployeeID  uint      `gorm:"not null;index" json:"employee_id"`
	Amount      float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string    `gorm:"default:USD;not null" json:"currency"`
	Category    string    `gorm:"not null;index" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	ExpenseDate time.Time `gorm:"type:date;not null" json:"expense_date"`
	Status      string    `gorm:"default:pending;not null;index" json:"status"`
	SubmittedAt time.Time `gorm:"index" json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Employee  User             `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Approvals []ApprovalRecord `gorm:"foreignKey:ExpenseID" json:"approvals,omitempty"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Expense status constants
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusInReview = "in_review"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

// Expense category constants
const (
	CategoryOfficeSupplies = "Office Supplies"
	CategorySoftware       = "Software"
	CategoryTravel         = "Travel"
	CategoryMeals          = "Meals"
	CategoryTraining       = "Training"
	CategoryOther          = "Other"
)

// ValidCategory returns true for a recognized expense category
func ValidCategory(category string) bool {
	switch category {
	case CategoryOfficeSupplies, CategorySoftware, CategoryTravel,
		CategoryMeals, CategoryTraining, CategoryOther:
		return true
	}
	return false
}

// MaySubmit returns true if expense can enter review
func (e *Expense) MaySubmit() bool {
	return e.Status == ExpenseStatusPending
}

// MayResolve returns true if an approver may act on this expense
func (e *Expense) MayResolve() bool {
	return e.Status == ExpenseStatusInReview
}

// IsTerminal returns true if expense reached a final state
func (e *Expense) IsTerminal() bool {
	return e.Status == ExpenseStatusApproved || e.Status == ExpenseStatusRejected
}

// MayDelete returns true if the owner may still withdraw the expense.
// Submission moves an expense straight into review, so in_review stays
// withdrawable; whether an approver has already acted is checked against the
// approval records in the service.
func (e *Expense) MayDelete() bool {
	return e.Status == ExpenseStatusPending || e.Status == ExpenseStatusInReview
}

// ExpenseResponse is the JSON response format for expenses
type ExpenseResponse struct {
	ID           uint                     `json:"id"`
	EmployeeID   uint                     `json:"employee_id"`
	EmployeeName string                   `json:"employee_name,omitempty"`
	Amount       float64                  `json:"amount"`
	Currency     string                   `json:"currency"`
	Category     string                   `json:"category"`
	Description  string                   `json:"description"`
	ExpenseDate  time.Time                `json:"expense_date"`
	Status       string                   `json:"status"`
	SubmittedAt  time.Time                `json:"submitted_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Approvals    []ApprovalRecordResponse `json:"approvals,omitempty"`
}

// ToResponse converts Expense to ExpenseResponse
func (e *Expense) ToResponse() ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate,
		Status:      e.Status,
		SubmittedAt: e.SubmittedAt,
		UpdatedAt:   e.UpdatedAt,
	}

	if e.Employee.ID != 0 {
		resp.EmployeeName = e.Employee.FullName
	}

	for _, a := range e.Approvals {
		resp.Approvals = append(resp.Approvals, a.ToResponse())
	}

	return resp
}
