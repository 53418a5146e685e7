package types

import "time"

// HTTP Header Constants
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
	// TokenCookie carries the session token for browser clients.
	TokenCookie = "jwt"
)

// Roles
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Roles lists every valid role.
var Roles = []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

// Fiber Locals keys
const (
	UserCtxName     = "user"
	RequestTimeName = "requestTime"
)

// UserContext is the authenticated caller, stored under UserCtxName by the protect middleware.
type UserContext struct {
	UserID            string
	Name              string
	Email             string
	Role              string
	PasswordChangedAt *time.Time
}

// ChangedPasswordAfter reports whether the password changed after a token issued at iat.
// Timestamps are compared in whole seconds because token times carry no fraction.
func (u UserContext) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

// HasRole reports whether the caller holds one of roles.
func (u UserContext) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
