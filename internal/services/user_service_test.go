package services

import (
	"context"
	"testing"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type chainUserRepo struct {
	repository.UserRepository
	users   map[uint]*models.User
	created *models.User
}

func (m *chainUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *chainUserRepo) Create(ctx context.Context, user *models.User) error {
	m.created = user
	return nil
}

func (m *chainUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func validCreateInput() CreateUserInput {
	return CreateUserInput{
		Email:    "new@company.com",
		Password: "supersecret",
		FullName: "New Hire",
		Role:     models.RoleEmployee,
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	repo := &chainUserRepo{users: map[uint]*models.User{}}
	svc := NewUserService(repo, nil)

	input := validCreateInput()
	input.Email = "not-an-email"
	_, err := svc.Create(context.Background(), 1, input)
	assert.ErrorIs(t, err, ErrValidation)

	input = validCreateInput()
	input.Password = "short"
	_, err = svc.Create(context.Background(), 1, input)
	assert.ErrorIs(t, err, ErrValidation)

	input = validCreateInput()
	input.Role = "intern"
	_, err = svc.Create(context.Background(), 1, input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Create_HashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := &chainUserRepo{users: map[uint]*models.User{}}
	svc := NewUserService(repo, nil)

	input := validCreateInput()
	input.Email = "  MixedCase@Company.COM "
	user, err := svc.Create(context.Background(), 1, input)
	assert.NoError(t, err)
	assert.Equal(t, "mixedcase@company.com", user.Email)
	assert.NotEqual(t, input.Password, user.EncryptedPassword)
	assert.NotEmpty(t, user.EncryptedPassword)
}

func TestUserService_Create_SelfManagerRejected(t *testing.T) {
	repo := &chainUserRepo{users: map[uint]*models.User{}}
	svc := NewUserService(repo, nil)

	managerID := uint(0)
	input := validCreateInput()
	input.ManagerID = &managerID
	_, err := svc.Create(context.Background(), 0, input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Create_MissingManagerRejected(t *testing.T) {
	repo := &chainUserRepo{users: map[uint]*models.User{}}
	svc := NewUserService(repo, nil)

	managerID := uint(42)
	input := validCreateInput()
	input.ManagerID = &managerID
	_, err := svc.Create(context.Background(), 1, input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Update_ManagerCycleRejected(t *testing.T) {
	// a(1) reports to b(2); making b report to a would close the loop.
	aManager := uint(2)
	repo := &chainUserRepo{users: map[uint]*models.User{
		1: {ID: 1, Role: models.RoleManager, ManagerID: &aManager},
		2: {ID: 2, Role: models.RoleManager},
	}}
	svc := NewUserService(repo, nil)

	newManager := uint(1)
	_, err := svc.Update(context.Background(), 99, 2, UpdateUserInput{ManagerID: &newManager})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Update_DeepChainRejected(t *testing.T) {
	users := map[uint]*models.User{}
	// Chain of maxManagerDepth+2 users, each reporting to the next.
	for i := uint(1); i <= maxManagerDepth+2; i++ {
		u := &models.User{ID: i, Role: models.RoleManager}
		if i > 1 {
			next := i - 1
			u.ManagerID = &next
		}
		users[i] = u
	}
	repo := &chainUserRepo{users: users}
	svc := NewUserService(repo, nil)

	top := uint(maxManagerDepth + 2)
	_, err := svc.Update(context.Background(), 99, 1, UpdateUserInput{ManagerID: &top})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ToggleStatus(t *testing.T) {
	repo := &chainUserRepo{users: map[uint]*models.User{
		5: {ID: 5, Status: models.StatusActive},
	}}
	svc := NewUserService(repo, nil)

	user, err := svc.ToggleStatus(context.Background(), 1, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusInactive, user.Status)

	user, err = svc.ToggleStatus(context.Background(), 1, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusActive, user.Status)
}
