package models

import (
	"time"
)

// ApprovalRule defines one step of the routing configuration. Rules are
// versioned by soft-deactivation only; deactivated rows stay in the table so
// past routing decisions remain traceable.
type ApprovalRule struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	RuleType       string    `gorm:"not null;index" json:"rule_type"`
	ConditionValue *float64  `gorm:"type:decimal(12,2)" json:"condition_value"`
	ApproverRole   *string   `json:"approver_role"`
	ApproverID     *uint     `json:"approver_id"`
	ApprovalLevel  int       `gorm:"not null" json:"approval_level"`
	Department     *string   `json:"department"`
	Active         bool      `gorm:"default:true;index" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// TableName specifies the table name for ApprovalRule
func (ApprovalRule) TableName() string {
	return "approval_rules"
}

// Rule type constants
const (
	RuleTypeAmountThreshold    = "amount_threshold"
	RuleTypeSpecificApprover   = "specific_approver"
	RuleTypeDepartmentRule     = "department_rule"
	RuleTypePercentageApproval = "percentage_approval"
)

// UnboundedAmount is the condition_value sentinel marking an amount band
// with no upper limit. It replaces NULL so "top band" and "misconfigured
// rule" stay distinguishable.
const UnboundedAmount float64 = -1

// ValidRuleType returns true for a recognized rule type
func ValidRuleType(ruleType string) bool {
	switch ruleType {
	case RuleTypeAmountThreshold, RuleTypeSpecificApprover,
		RuleTypeDepartmentRule, RuleTypePercentageApproval:
		return true
	}
	return false
}

// IsUnbounded returns true when the rule's amount band has no upper limit
func (r *ApprovalRule) IsUnbounded() bool {
	return r.ConditionValue != nil && *r.ConditionValue == UnboundedAmount
}

// ApprovalRuleResponse is the JSON response format for approval rules
type ApprovalRuleResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	RuleType       string    `json:"rule_type"`
	ConditionValue *float64  `json:"condition_value"`
	ApproverRole   *string   `json:"approver_role"`
	ApproverID     *uint     `json:"approver_id"`
	ApprovalLevel  int       `json:"approval_level"`
	Department     *string   `json:"department"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse converts ApprovalRule to ApprovalRuleResponse
func (r *ApprovalRule) ToResponse() ApprovalRuleResponse {
	return ApprovalRuleResponse{
		ID:             r.ID,
		Name:           r.Name,
		RuleType:       r.RuleType,
		ConditionValue: r.ConditionValue,
		ApproverRole:   r.ApproverRole,
		ApproverID:     r.ApproverID,
		ApprovalLevel:  r.ApprovalLevel,
		Department:     r.Department,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
	}
}
