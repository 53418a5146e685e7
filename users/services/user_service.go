package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/auth/tokens"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/users/models"
)

// DefaultBcryptCost is the work factor used for password hashes.
const DefaultBcryptCost = 12

// profileFields are the only fields a user may change on their own account.
var profileFields = []string{"name", "email"}

// ServiceConfig holds the tunables of the user service.
type ServiceConfig struct {
	BcryptCost int
}

// Service implements UserService over a user collection scoped to active accounts.
type Service struct {
	users  interfaces.Collection[models.User]
	config *ServiceConfig
	now    func() time.Time
}

var _ UserService = (*Service)(nil)

func NewService(users interfaces.Collection[models.User], config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = DefaultBcryptCost
	}
	return &Service{users: users, config: config, now: time.Now}
}

func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Role:     types.RoleUser,
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns interfaces.ErrNoDocuments for an unknown email and
// bcrypt.ErrMismatchedHashAndPassword for a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.CheckPassword(user, password) {
		return nil, bcrypt.ErrMismatchedHashAndPassword
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.FindOne(ctx, map[string]interface{}{
		"email": strings.ToLower(strings.TrimSpace(email)),
	})
}

// LookupUser serves the protect middleware.
func (s *Service) LookupUser(ctx context.Context, id string) (types.UserContext, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return types.UserContext{}, err
	}
	return user.UserContext(), nil
}

func (s *Service) CheckPassword(user *models.User, password string) bool {
	if user == nil || user.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// ChangePassword stamps passwordChangedAt one second in the past so that a
// token issued right after the change is still accepted.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, input *models.PasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return err
	}

	changedAt := s.now().Add(-time.Second).UTC()
	user.Password = hashed
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil

	return s.users.Replace(ctx, user.ID, user)
}

func (s *Service) CreatePasswordResetToken(ctx context.Context, user *models.User) (string, error) {
	token, err := tokens.GenerateResetToken(s.now().UTC())
	if err != nil {
		return "", err
	}

	user.PasswordResetToken = token.HashedToken
	user.PasswordResetExpires = &token.ExpiresAt
	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"passwordResetToken":   token.HashedToken,
		"passwordResetExpires": token.ExpiresAt,
	}); err != nil {
		return "", err
	}
	return token.PlaintextToken, nil
}

func (s *Service) ClearPasswordResetToken(ctx context.Context, user *models.User) error {
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"passwordResetToken":   nil,
		"passwordResetExpires": nil,
	})
}

func (s *Service) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, interfaces.ErrNoDocuments
	}
	return s.users.FindOne(ctx, map[string]interface{}{
		"passwordResetToken":   tokens.HashResetToken(token),
		"passwordResetExpires": map[string]interface{}{"$gt": s.now().UTC()},
	})
}

// UpdateProfile ignores every field other than name and email. The result is
// validated again, so an invalid or taken email is rejected.
func (s *Service) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, name := range profileFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return nil, &apperror.CastError{Path: name, Value: raw, Kind: "string"}
		}
		switch name {
		case "name":
			user.Name = value
		case "email":
			user.Email = value
		}
	}

	if err := s.users.Replace(ctx, user.ID, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(ctx, oid, map[string]interface{}{"active": false})
}

func (s *Service) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
