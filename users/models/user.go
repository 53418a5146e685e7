package models

import (
	"strings"
	"time"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/internal/validation"
)

const (
	CollectionName = "users"

	MinPasswordLength = 8
)

// User is an account. Credentials and the active flag never leave the server.
type User struct {
	interfaces.Base      `bson:",inline"`
	Name                 string     `bson:"name" json:"name" validate:"required"`
	Email                string     `bson:"email" json:"email" validate:"required,email"`
	Photo                string     `bson:"photo,omitempty" json:"photo,omitempty"`
	Role                 string     `bson:"role" json:"role" validate:"oneof=user guide lead-guide admin"`
	Password             string     `bson:"password" json:"-" validate:"required"`
	PasswordChangedAt    *time.Time `bson:"passwordChangedAt,omitempty" json:"passwordChangedAt,omitempty"`
	PasswordResetToken   string     `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               *bool      `bson:"active" json:"-"`
}

var messages = validation.Messages{
	"name.required":     "A user must have a name",
	"email.required":    "A user must have an email",
	"email.email":       "Email format is incorrect!",
	"password.required": "A user must have a password",
}

var Schema = interfaces.Schema{
	Fields: map[string]interfaces.FieldKind{
		"name":                 interfaces.KindString,
		"email":                interfaces.KindString,
		"photo":                interfaces.KindString,
		"role":                 interfaces.KindString,
		"passwordChangedAt":    interfaces.KindDate,
		"passwordResetToken":   interfaces.KindString,
		"passwordResetExpires": interfaces.KindDate,
		"active":               interfaces.KindBool,
	},
	Unique: []string{"email"},
	Hidden: []string{"password", "passwordResetToken", "passwordResetExpires", "active"},
}

// ActiveScope hides deactivated accounts from every query.
var ActiveScope = map[string]interface{}{"active": map[string]interface{}{"$ne": false}}

func (u *User) ApplyDefaults() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = types.RoleUser
	}
	if u.Active == nil {
		active := true
		u.Active = &active
	}
}

// Validate checks the stored form of a user. Password length and confirmation
// are checked on the plaintext before hashing, see SignupRequest.
func (u *User) Validate() error {
	return validation.Struct("User", u, messages)
}

// IsActive reports whether the account has not been deactivated.
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// UserContext is the view of u carried by authenticated requests.
func (u *User) UserContext() types.UserContext {
	return types.UserContext{
		UserID:            u.ID.Hex(),
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		PasswordChangedAt: u.PasswordChangedAt,
	}
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// PasswordInput is a new password and its confirmation.
type PasswordInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

var passwordMessages = validation.Messages{
	"name.required":            "A user must have a name",
	"email.required":           "A user must have an email",
	"email.email":              "Email format is incorrect!",
	"password.required":        "A user must have a password",
	"passwordConfirm.required": "A user must confirm the password",
	"passwordConfirm.eqfield":  "Passwords are not the same.",
}

func (r *SignupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.Struct("User", r, passwordMessages)
}

func (p *PasswordInput) Validate() error {
	return validation.Struct("User", p, passwordMessages)
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatePasswordRequest is the body of PATCH /update-my-password.
type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

// ForgotPasswordRequest is the body of POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}
