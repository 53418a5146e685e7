package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authjwt"
	"github.com/qolzam/natours/internal/resource"
	"github.com/qolzam/natours/users/models"
	"github.com/qolzam/natours/users/services"
)

const (
	msgNoPasswordUpdates = "This route is not for password updates. Please use /update-my-password"
	msgUseSignup         = "This route is not defined! Please use /signup instead"
)

// UserHandler serves the current user's account and the admin user routes.
type UserHandler struct {
	userService services.UserService
	admin       *resource.Handler[models.User]
}

// NewUserHandler creates a new UserHandler. coll backs the admin list, read,
// update and delete routes.
func NewUserHandler(userService services.UserService, coll interfaces.Collection[models.User]) *UserHandler {
	return &UserHandler{
		userService: userService,
		admin:       resource.New[models.User](coll),
	}
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	current, ok := authjwt.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}

	user, err := h.userService.GetByID(c.UserContext(), current.UserID)
	if err != nil {
		return resource.NotFoundOr(err)
	}
	return renderUser(c, http.StatusOK, user)
}

// UpdateMe changes the name and email of the authenticated user. Password
// fields are refused; every other field is ignored.
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	current, ok := authjwt.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}

	body := map[string]interface{}{}
	if err := resource.DecodeBody(c, &body); err != nil {
		return err
	}
	if _, has := body["password"]; has {
		return apperror.BadRequest(msgNoPasswordUpdates)
	}
	if _, has := body["passwordConfirm"]; has {
		return apperror.BadRequest(msgNoPasswordUpdates)
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), current.UserID, body)
	if err != nil {
		return resource.NotFoundOr(err)
	}
	return renderUser(c, http.StatusOK, user)
}

// DeleteMe deactivates the authenticated user. The account stays stored but
// disappears from every query.
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	current, ok := authjwt.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}

	if err := h.userService.Deactivate(c.UserContext(), current.UserID); err != nil {
		return resource.NotFoundOr(err)
	}
	return resource.NoContent(c)
}

// CreateUser points callers at /signup.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	return apperror.New(msgUseSignup, http.StatusInternalServerError)
}

func (h *UserHandler) GetAllUsers(c *fiber.Ctx) error { return h.admin.GetAll(c) }
func (h *UserHandler) GetUser(c *fiber.Ctx) error     { return h.admin.GetOne(c) }

// UpdateUser lets an admin change profile fields and the role. Credentials are
// not part of the JSON form of a user and cannot be set here.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error { return h.admin.UpdateOne(c) }
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error { return h.admin.DeleteOne(c) }

func renderUser(c *fiber.Ctx, statusCode int, user *models.User) error {
	out, err := resource.Render(user, interfaces.Projection{})
	if err != nil {
		return err
	}
	return resource.Success(c, statusCode, "user", out)
}
