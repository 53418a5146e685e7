package services

import (
	"context"

	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/users/models"
)

// UserService defines the account operations used by the user and auth handlers.
type UserService interface {
	// Signup validates req, hashes the password and stores the new user.
	Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error)
	// Authenticate returns the user only when email and password match.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	LookupUser(ctx context.Context, id string) (types.UserContext, error)

	// CheckPassword compares a plaintext password with the stored hash.
	CheckPassword(user *models.User, password string) bool
	// ChangePassword sets a new password, stamps passwordChangedAt and clears any reset token.
	ChangePassword(ctx context.Context, user *models.User, input *models.PasswordInput) error

	// CreatePasswordResetToken stores the hash of a fresh reset token and returns the plaintext.
	CreatePasswordResetToken(ctx context.Context, user *models.User) (string, error)
	ClearPasswordResetToken(ctx context.Context, user *models.User) error
	// GetByResetToken finds the user holding an unexpired reset token.
	GetByResetToken(ctx context.Context, token string) (*models.User, error)

	// UpdateProfile applies the name and email of fields.
	UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	Deactivate(ctx context.Context, id string) error
}
