package authrole

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/types"
)

func newApp(user *types.UserContext, roles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.NewNormalizer(apperror.ModeRestricted).Handler(),
	})
	if user != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(types.UserCtxName, *user)
			return c.Next()
		})
	}
	app.Get("/", New(roles...), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	return app
}

func TestAuthRole_UnauthorizedWithoutUser(t *testing.T) {
	resp, err := newApp(nil, types.RoleAdmin).Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRole_AuthorizedWithMatchingRole(t *testing.T) {
	app := newApp(&types.UserContext{Role: types.RoleLeadGuide}, types.RoleAdmin, types.RoleLeadGuide)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRole_ForbiddenWithMismatchedRole(t *testing.T) {
	app := newApp(&types.UserContext{Role: types.RoleUser}, types.RoleAdmin)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
