package authrole

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/types"
)

// New allows the request through only when the authenticated user holds one of roles.
// It must run after the protect middleware.
func New(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(types.UserCtxName).(types.UserContext)
		if !ok {
			return apperror.New("You are not logged in! Please log in to get access.", http.StatusUnauthorized)
		}
		if !user.HasRole(roles...) {
			return apperror.Forbidden()
		}
		return c.Next()
	}
}
