package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/users/models"
	"github.com/qolzam/natours/users/services"
)

// MockUserService is a mock implementation of services.UserService
type MockUserService struct {
	mock.Mock
}

var _ services.UserService = (*MockUserService)(nil)

func (m *MockUserService) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	return m.user(m.Called(ctx, req))
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return m.user(m.Called(ctx, email, password))
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserService) LookupUser(ctx context.Context, id string) (types.UserContext, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.UserContext), args.Error(1)
}

func (m *MockUserService) CheckPassword(user *models.User, password string) bool {
	return m.Called(user, password).Bool(0)
}

func (m *MockUserService) ChangePassword(ctx context.Context, user *models.User, input *models.PasswordInput) error {
	return m.Called(ctx, user, input).Error(0)
}

func (m *MockUserService) CreatePasswordResetToken(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) ClearPasswordResetToken(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserService) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.user(m.Called(ctx, token))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	return m.user(m.Called(ctx, id, fields))
}

func (m *MockUserService) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
