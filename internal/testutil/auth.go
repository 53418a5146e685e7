package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/auth/tokens"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authjwt"
	"github.com/qolzam/natours/internal/types"
)

const TestJWTSecret = "test-jwt-secret"

// StubUsers resolves token subjects to fixed users, keyed by user id.
type StubUsers map[string]types.UserContext

func (s StubUsers) LookupUser(ctx context.Context, id string) (types.UserContext, error) {
	user, ok := s[id]
	if !ok {
		return types.UserContext{}, interfaces.ErrNoDocuments
	}
	return user, nil
}

// NewTestIssuer signs one hour tokens with TestJWTSecret.
func NewTestIssuer() *tokens.Issuer {
	return tokens.NewIssuer(TestJWTSecret, time.Hour)
}

// NewProtect returns the real protect middleware backed by users.
func NewProtect(issuer *tokens.Issuer, users authjwt.UserLookup) fiber.Handler {
	return authjwt.New(authjwt.Config{Issuer: issuer, Users: users})
}

// MustToken signs a session token for userID.
func MustToken(t *testing.T, issuer *tokens.Issuer, userID string) string {
	t.Helper()
	token, err := issuer.CreateToken(userID)
	require.NoError(t, err)
	return token
}
