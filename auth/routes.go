package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/auth/handlers"
	"github.com/qolzam/natours/internal/middleware/ratelimit"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
)

// AuthHandlers holds all the handlers this router needs.
type AuthHandlers struct {
	AuthHandler *handlers.AuthHandler
}

// RegisterRoutes mounts signup, login and the password routes on /users.
// Signup, login and forgot-password are rate limited per client IP.
func RegisterRoutes(router fiber.Router, handlers *AuthHandlers, protect fiber.Handler, limits platformconfig.RateLimitsConfig) {
	h := handlers.AuthHandler
	group := router.Group("/users")

	group.Post("/signup", ratelimit.NewSignupLimiter(limits.Signup), h.Signup)
	group.Post("/login", ratelimit.NewLoginLimiter(limits.Login), h.Login)
	group.Post("/forgot-password", ratelimit.NewPasswordResetLimiter(limits.PasswordReset), h.ForgotPassword)
	group.Patch("/reset-password/:token", h.ResetPassword)
	group.Patch("/update-my-password", protect, h.UpdateMyPassword)
}
