package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	gopass "github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/auth/tokens"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authjwt"
	"github.com/qolzam/natours/internal/pkg/log"
	platformemail "github.com/qolzam/natours/internal/platform/email"
	"github.com/qolzam/natours/internal/resource"
	"github.com/qolzam/natours/users/models"
	"github.com/qolzam/natours/users/services"
)

const (
	msgMissingCredentials = "Please provide email and password!"
	msgBadCredentials     = "Incorrect email or password"
	msgNoSuchEmail        = "There is no user with this email address."
	msgEmailFailed        = "There was an error sending the email. Try again later!"
	msgBadResetToken      = "Token is invalid or has expired"
	msgWrongPassword      = "Your current password is wrong."
	msgWeakPassword       = "Password is too weak. Please choose a stronger password."
	msgTokenSent          = "Token sent to email."

	resetSubject = "Your password reset token (valid for 10 mins)"
)

// HandlerConfig holds the settings of the auth handler.
type HandlerConfig struct {
	CookieExpiresIn time.Duration
	SecureCookie    bool
	// PasswordMinScore is the minimum zxcvbn score of a new password. Zero disables the check.
	PasswordMinScore int
}

// AuthHandler handles signup, login and password management.
type AuthHandler struct {
	userService services.UserService
	issuer      *tokens.Issuer
	emailSender platformemail.Sender
	config      HandlerConfig
}

func NewAuthHandler(userService services.UserService, issuer *tokens.Issuer, emailSender platformemail.Sender, config HandlerConfig) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		issuer:      issuer,
		emailSender: emailSender,
		config:      config,
	}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := resource.DecodeBody(c, &req); err != nil {
		return err
	}
	if err := h.checkStrength(req.Password, req.Name, req.Email); err != nil {
		return err
	}

	user, err := h.userService.Signup(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return h.sendToken(c, user, http.StatusCreated)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := resource.DecodeBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperror.BadRequest(msgMissingCredentials)
	}

	user, err := h.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoDocuments) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.Unauthorized(msgBadCredentials)
		}
		return err
	}
	return h.sendToken(c, user, http.StatusOK)
}

// ForgotPassword mails a reset link. When the mail cannot be sent the token is
// withdrawn again.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req models.ForgotPasswordRequest
	if err := resource.DecodeBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoDocuments) {
			return apperror.New(msgNoSuchEmail, http.StatusNotFound)
		}
		return err
	}

	token, err := h.userService.CreatePasswordResetToken(ctx, user)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/reset-password/%s", c.Protocol(), c.Hostname(), token)
	msg := platformemail.Message{
		To:      []string{user.Email},
		Subject: resetSubject,
		Body: fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
			"If you didn't forget your password, please ignore this email!", resetURL),
	}
	if err := h.emailSender.Send(ctx, msg); err != nil {
		log.ErrorWithContext(ctx, "sending reset email to %s: %v", user.Email, err)
		if clearErr := h.userService.ClearPasswordResetToken(ctx, user); clearErr != nil {
			log.ErrorWithContext(ctx, "clearing reset token of %s: %v", user.ID.Hex(), clearErr)
		}
		return apperror.New(msgEmailFailed, http.StatusInternalServerError)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  resource.StatusSuccess,
		"message": msgTokenSent,
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := h.userService.GetByResetToken(ctx, c.Params("token"))
	if err != nil {
		if errors.Is(err, interfaces.ErrNoDocuments) {
			return apperror.BadRequest(msgBadResetToken)
		}
		return err
	}

	var input models.PasswordInput
	if err := resource.DecodeBody(c, &input); err != nil {
		return err
	}
	if err := h.checkStrength(input.Password, user.Name, user.Email); err != nil {
		return err
	}
	if err := h.userService.ChangePassword(ctx, user, &input); err != nil {
		return err
	}
	return h.sendToken(c, user, http.StatusOK)
}

func (h *AuthHandler) UpdateMyPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()

	current, ok := authjwt.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}
	user, err := h.userService.GetByID(ctx, current.UserID)
	if err != nil {
		return resource.NotFoundOr(err)
	}

	var req models.UpdatePasswordRequest
	if err := resource.DecodeBody(c, &req); err != nil {
		return err
	}
	if !h.userService.CheckPassword(user, req.CurrentPassword) {
		return apperror.Unauthorized(msgWrongPassword)
	}

	input := models.PasswordInput{Password: req.NewPassword, PasswordConfirm: req.NewPasswordConfirm}
	if err := h.checkStrength(input.Password, user.Name, user.Email); err != nil {
		return err
	}
	if err := h.userService.ChangePassword(ctx, user, &input); err != nil {
		return err
	}
	return h.sendToken(c, user, http.StatusOK)
}

// sendToken signs a session token, sets it as the jwt cookie and returns it
// with the user.
func (h *AuthHandler) sendToken(c *fiber.Ctx, user *models.User, statusCode int) error {
	token, err := h.issuer.CreateToken(user.ID.Hex())
	if err != nil {
		return err
	}
	c.Cookie(authjwt.TokenCookie(token, h.config.CookieExpiresIn, h.config.SecureCookie))

	out, err := resource.Render(user, interfaces.Projection{})
	if err != nil {
		return err
	}
	return c.Status(statusCode).JSON(fiber.Map{
		"status": resource.StatusSuccess,
		"token":  token,
		"data":   fiber.Map{"user": out},
	})
}

// checkStrength rejects guessable passwords. Empty passwords are left to model validation.
func (h *AuthHandler) checkStrength(password string, userInputs ...string) error {
	if h.config.PasswordMinScore <= 0 || password == "" {
		return nil
	}
	strength := gopass.PasswordStrength(password, userInputs)
	if strength.Score < h.config.PasswordMinScore {
		weak := &apperror.ValidationError{Model: "User"}
		weak.Add("password", msgWeakPassword)
		return weak
	}
	return nil
}
