package authjwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/auth/tokens"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/types"
)

const (
	msgNotLoggedIn     = "You are not logged in! Please log in to get access."
	msgUserGone        = "The user belonging to this token does no longer exist."
	msgPasswordChanged = "User recently changed password! Please log in again."
)

// UserLookup loads the current state of a token's user.
type UserLookup interface {
	LookupUser(ctx context.Context, id string) (types.UserContext, error)
}

// Config defines the config for the JWT middleware.
type Config struct {
	Issuer *tokens.Issuer
	Users  UserLookup
}

// New returns the protect middleware. It accepts a bearer token or the jwt cookie,
// verifies it, reloads the user and stores a types.UserContext under types.UserCtxName.
// Verification errors are returned unchanged for the error normalizer.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			return apperror.New(msgNotLoggedIn, http.StatusUnauthorized)
		}

		claims, err := cfg.Issuer.ParseToken(tokenString)
		if err != nil {
			return err
		}

		user, err := cfg.Users.LookupUser(c.UserContext(), claims.ID)
		if err != nil {
			var castErr *apperror.CastError
			if errors.Is(err, interfaces.ErrNoDocuments) || errors.As(err, &castErr) {
				return apperror.New(msgUserGone, http.StatusUnauthorized)
			}
			return err
		}

		if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
			return apperror.New(msgPasswordChanged, http.StatusUnauthorized)
		}

		c.Locals(types.UserCtxName, user)
		return c.Next()
	}
}

// ExtractToken reads the Authorization bearer token, falling back to the jwt cookie.
func ExtractToken(c *fiber.Ctx) string {
	authHeader := c.Get(types.HeaderAuthorization)
	if strings.HasPrefix(authHeader, types.BearerPrefix) {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	return c.Cookies(types.TokenCookie)
}

// CurrentUser returns the user stored by New.
func CurrentUser(c *fiber.Ctx) (types.UserContext, bool) {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	return user, ok
}

// TokenCookie builds the session cookie for token.
func TokenCookie(token string, expiresIn time.Duration, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     types.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(expiresIn),
		HTTPOnly: true,
		Secure:   secure,
	}
}
