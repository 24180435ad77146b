package workflow

import (
	"context"
	"errors"
	"sort"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
)

// ErrUnroutable is returned when no rule applies and the submitter has no
// active direct manager to fall back on.
var ErrUnroutable = errors.New("expense cannot be routed: no applicable rule and no direct manager")

// Directory resolves role-based eligibility predicates against the user store.
// repository.UserRepository satisfies it.
type Directory interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindActiveByRole(ctx context.Context, role string) ([]models.User, error)
}

// Evaluator computes the approval plan for an expense from the active rule
// set. It has no side effects; callers persist the resulting plan.
type Evaluator struct {
	dir Directory
}

// NewEvaluator creates a new rule evaluator
func NewEvaluator(dir Directory) *Evaluator {
	return &Evaluator{dir: dir}
}

// BuildPlan evaluates the active rules against the expense and returns the
// ordered sequence of approval levels with their eligible approvers.
//
// Amount-threshold rules are treated as non-overlapping bands keyed by
// condition_value; the first band covering the amount matches and all of its
// rules apply. The models.UnboundedAmount sentinel marks the top band.
// If the resulting plan has no level 1, the submitter's direct manager fills
// it, matching the manager-then-admin escalation the rules encode.
func (e *Evaluator) BuildPlan(ctx context.Context, owner *models.User, expense *models.Expense, rules []models.ApprovalRule) (*Plan, error) {
	eligible := make(map[int]map[uint]struct{})

	add := func(level int, ids []uint) {
		if len(ids) == 0 {
			return
		}
		set, ok := eligible[level]
		if !ok {
			set = make(map[uint]struct{})
			eligible[level] = set
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	for _, rule := range matchAmountBand(expense.Amount, rules) {
		ids, err := e.resolveApprovers(ctx, owner, &rule)
		if err != nil {
			return nil, err
		}
		add(rule.ApprovalLevel, ids)
	}

	for i := range rules {
		rule := rules[i]
		switch rule.RuleType {
		case models.RuleTypeSpecificApprover:
			if !departmentMatches(owner, rule.Department) {
				continue
			}
		case models.RuleTypeDepartmentRule:
			if rule.Department == nil || owner.Department == nil || *rule.Department != *owner.Department {
				continue
			}
		case models.RuleTypePercentageApproval:
			// Placeholder rule type: no quorum data exists in the schema, so
			// a single eligible approval resolves the level.
		default:
			continue
		}
		ids, err := e.resolveApprovers(ctx, owner, &rule)
		if err != nil {
			return nil, err
		}
		add(rule.ApprovalLevel, ids)
	}

	// Escalation chains always start with the direct manager: fill level 1
	// when no matched rule defined it.
	if _, ok := eligible[1]; !ok {
		manager, err := e.directManager(ctx, owner)
		if err != nil {
			return nil, err
		}
		if manager == nil {
			return nil, ErrUnroutable
		}
		add(1, []uint{manager.ID})
	}

	levels := make([]int, 0, len(eligible))
	for level := range eligible {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	plan := &Plan{Levels: make([]Level, 0, len(levels))}
	for _, level := range levels {
		ids := make([]uint, 0, len(eligible[level]))
		for id := range eligible[level] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		plan.Levels = append(plan.Levels, Level{Number: level, ApproverIDs: ids})
	}
	return plan, nil
}

// matchAmountBand partitions amount_threshold rules into bands by
// condition_value and returns the rules of the first band covering amount.
// Rules without a condition value are skipped as misconfigured.
func matchAmountBand(amount float64, rules []models.ApprovalRule) []models.ApprovalRule {
	bands := make(map[float64][]models.ApprovalRule)
	for _, rule := range rules {
		if rule.RuleType != models.RuleTypeAmountThreshold || rule.ConditionValue == nil {
			continue
		}
		bands[*rule.ConditionValue] = append(bands[*rule.ConditionValue], rule)
	}

	bounds := make([]float64, 0, len(bands))
	for bound := range bands {
		if bound != models.UnboundedAmount {
			bounds = append(bounds, bound)
		}
	}
	sort.Float64s(bounds)

	for _, bound := range bounds {
		if amount <= bound {
			return bands[bound]
		}
	}
	return bands[models.UnboundedAmount]
}

// resolveApprovers turns a rule's approver designation into concrete user
// IDs. Inactive users are never eligible.
func (e *Evaluator) resolveApprovers(ctx context.Context, owner *models.User, rule *models.ApprovalRule) ([]uint, error) {
	if rule.ApproverID != nil {
		user, err := e.dir.FindByID(ctx, *rule.ApproverID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if !user.IsActive() {
			return nil, nil
		}
		return []uint{user.ID}, nil
	}

	if rule.ApproverRole == nil {
		return nil, nil
	}
	role := *rule.ApproverRole

	// The submitter's own manager takes precedence over role membership.
	if role == models.RoleManager {
		manager, err := e.directManager(ctx, owner)
		if err != nil {
			return nil, err
		}
		if manager != nil {
			return []uint{manager.ID}, nil
		}
	}

	users, err := e.dir.FindActiveByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (e *Evaluator) directManager(ctx context.Context, owner *models.User) (*models.User, error) {
	if owner.ManagerID == nil {
		return nil, nil
	}
	manager, err := e.dir.FindByID(ctx, *owner.ManagerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !manager.IsActive() {
		return nil, nil
	}
	return manager, nil
}

func departmentMatches(owner *models.User, department *string) bool {
	if department == nil {
		return true
	}
	return owner.Department != nil && *owner.Department == *department
}
