package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// maxManagerDepth bounds manager-chain walks so a corrupted hierarchy can
// never loop the engine.
const maxManagerDepth = 10

// CreateUserInput carries the fields an admin provides when creating a user
type CreateUserInput struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	ManagerID  *uint   `json:"manager_id"`
	Department *string `json:"department"`
}

// UpdateUserInput carries mutable user fields; nil means unchanged
type UpdateUserInput struct {
	FullName   *string `json:"full_name"`
	Role       *string `json:"role"`
	ManagerID  *uint   `json:"manager_id"`
	Department *string `json:"department"`
}

// UserService handles user management operations
type UserService struct {
	repo     repository.UserRepository
	auditSvc *AuditService
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, auditSvc *AuditService) *UserService {
	return &UserService{repo: repo, auditSvc: auditSvc}
}

// FindByID returns a user by id
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return user, nil
}

// List returns users with pagination and filters
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	users, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, wrapStorageErr(err)
	}
	return users, total, nil
}

// Create registers a new user. The manager link is validated acyclic before
// anything is persisted.
func (s *UserService) Create(ctx context.Context, actorID uint, input CreateUserInput) (*models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, validationError("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}
	if !models.ValidRole(input.Role) {
		return nil, validationError("unknown role: %s", input.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             input.Email,
		EncryptedPassword: string(hashed),
		FullName:          input.FullName,
		Role:              input.Role,
		ManagerID:         input.ManagerID,
		Department:        input.Department,
		Status:            models.StatusActive,
	}

	if input.ManagerID != nil {
		if err := s.validateManagerChain(ctx, 0, *input.ManagerID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicate
		}
		return nil, wrapStorageErr(err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "User", user.ID, user.Email, "", "")
	}
	return user, nil
}

// Update applies the provided field changes. Manager changes are revalidated
// against the hierarchy.
func (s *UserService) Update(ctx context.Context, actorID, id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageErr(err)
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if !models.ValidRole(*input.Role) {
			return nil, validationError("unknown role: %s", *input.Role)
		}
		user.Role = *input.Role
	}
	if input.Department != nil {
		user.Department = input.Department
	}
	if input.ManagerID != nil {
		if err := s.validateManagerChain(ctx, id, *input.ManagerID); err != nil {
			return nil, err
		}
		user.ManagerID = input.ManagerID
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, wrapStorageErr(err)
	}
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "User", user.ID, "", "", "")
	}
	return user, nil
}

// ToggleStatus flips a user between active and inactive
func (s *UserService) ToggleStatus(ctx context.Context, actorID, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	if user.Status == models.StatusActive {
		user.Status = models.StatusInactive
	} else {
		user.Status = models.StatusActive
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, wrapStorageErr(err)
	}
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "User", user.ID, "status="+user.Status, "", "")
	}
	return user, nil
}

// SoftDelete discards a user; their past approvals remain in the audit trail
func (s *UserService) SoftDelete(ctx context.Context, actorID, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return wrapStorageErr(err)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return wrapStorageErr(err)
	}
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "User", id, "", "", "")
	}
	return nil
}

// Restore reinstates a soft-deleted user
func (s *UserService) Restore(ctx context.Context, actorID, id uint) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return wrapStorageErr(err)
	}
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "User", id, "restored", "", "")
	}
	return nil
}

// validateManagerChain walks the prospective manager chain and rejects
// self-references, cycles and chains deeper than maxManagerDepth.
func (s *UserService) validateManagerChain(ctx context.Context, userID, managerID uint) error {
	if managerID == userID {
		return validationError("a user cannot be their own manager")
	}
	seen := map[uint]struct{}{userID: {}}
	current := managerID
	for depth := 0; depth < maxManagerDepth; depth++ {
		if _, ok := seen[current]; ok {
			return validationError("manager hierarchy would form a cycle")
		}
		seen[current] = struct{}{}

		manager, err := s.repo.FindByID(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationError("manager %d does not exist", current)
			}
			return wrapStorageErr(err)
		}
		if manager.ManagerID == nil {
			return nil
		}
		current = *manager.ManagerID
	}
	return validationError("manager hierarchy exceeds maximum depth")
}
