package users

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/middleware/authrole"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/users/handlers"
)

// UsersHandlers holds all the handlers this router needs.
type UsersHandlers struct {
	UserHandler *handlers.UserHandler
}

// RegisterRoutes mounts the account and admin routes on /users. The auth
// routes share the /users prefix and must be registered first, so that
// PATCH /update-my-password is not taken for PATCH /:id.
func RegisterRoutes(router fiber.Router, handlers *UsersHandlers, protect fiber.Handler) {
	h := handlers.UserHandler
	group := router.Group("/users")

	group.Get("/me", protect, h.GetMe)
	group.Patch("/update-me", protect, h.UpdateMe)
	group.Delete("/delete-me", protect, h.DeleteMe)

	admin := authrole.New(types.RoleAdmin)
	group.Get("/", protect, admin, h.GetAllUsers)
	group.Post("/", h.CreateUser)
	group.Get("/:id", protect, admin, h.GetUser)
	group.Patch("/:id", protect, admin, h.UpdateUser)
	group.Delete("/:id", protect, admin, h.DeleteUser)
}
