package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/testutil"
	"github.com/qolzam/natours/users/models"
	"github.com/qolzam/natours/users/services/mocks"
)

func newTestApp(t *testing.T, svc *mocks.MockUserService, sender *testutil.FakeEmailSender) *testutil.HTTPHelper {
	t.Helper()
	h := NewAuthHandler(svc, testutil.NewTestIssuer(), sender, HandlerConfig{CookieExpiresIn: time.Hour})

	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.NewNormalizer(apperror.ModeRestricted).Handler(),
	})
	app.Post("/login", h.Login)
	app.Post("/forgot-password", h.ForgotPassword)
	app.Patch("/reset-password/:token", h.ResetPassword)
	return testutil.NewHTTPHelper(t, app)
}

func testUser() *models.User {
	return &models.User{
		Base:  interfaces.Base{ID: primitive.NewObjectID()},
		Name:  "Leo Gillespie",
		Email: "leo@example.com",
	}
}

func TestLogin_StoreFailureIsNotLeaked(t *testing.T) {
	svc := new(mocks.MockUserService)
	svc.On("Authenticate", mock.Anything, "leo@example.com", "pass1234").
		Return(nil, errors.New("connection reset by peer"))

	resp, body := newTestApp(t, svc, testutil.NewFakeEmailSender()).
		NewRequest(http.MethodPost, "/login", map[string]string{"email": "leo@example.com", "password": "pass1234"}).
		SendJSON()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apperror.GenericMessage, body["message"])
	svc.AssertExpectations(t)
}

func TestLogin_MissingCredentialsSkipsLookup(t *testing.T) {
	svc := new(mocks.MockUserService)

	resp, body := newTestApp(t, svc, testutil.NewFakeEmailSender()).
		NewRequest(http.MethodPost, "/login", map[string]string{"email": "leo@example.com"}).
		SendJSON()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgMissingCredentials, body["message"])
	svc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPassword_TokenFailureSendsNothing(t *testing.T) {
	user := testUser()
	svc := new(mocks.MockUserService)
	svc.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	svc.On("CreatePasswordResetToken", mock.Anything, user).Return("", errors.New("write conflict"))
	sender := testutil.NewFakeEmailSender()

	resp, _ := newTestApp(t, svc, sender).
		NewRequest(http.MethodPost, "/forgot-password", map[string]string{"email": user.Email}).
		SendJSON()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, sender.Outbox())
	svc.AssertExpectations(t)
}

func TestForgotPassword_EmailFailureWithdrawsToken(t *testing.T) {
	user := testUser()
	svc := new(mocks.MockUserService)
	svc.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	svc.On("CreatePasswordResetToken", mock.Anything, user).Return("deadbeef", nil)
	svc.On("ClearPasswordResetToken", mock.Anything, user).Return(errors.New("write conflict"))
	sender := testutil.NewFakeEmailSender()
	sender.Fail(errors.New("smtp down"))

	resp, body := newTestApp(t, svc, sender).
		NewRequest(http.MethodPost, "/forgot-password", map[string]string{"email": user.Email}).
		SendJSON()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, msgEmailFailed, body["message"])
	svc.AssertExpectations(t)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	svc := new(mocks.MockUserService)
	svc.On("GetByResetToken", mock.Anything, "nope").Return(nil, interfaces.ErrNoDocuments)

	resp, body := newTestApp(t, svc, testutil.NewFakeEmailSender()).
		NewRequest(http.MethodPatch, "/reset-password/nope", map[string]string{
			"password": "newpass123", "passwordConfirm": "newpass123",
		}).
		SendJSON()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgBadResetToken, body["message"])
	svc.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckStrength(t *testing.T) {
	h := &AuthHandler{config: HandlerConfig{PasswordMinScore: 3}}

	err := h.checkStrength("password1", "Leo", "leo@example.com")
	var valErr *apperror.ValidationError
	if assert.ErrorAs(t, err, &valErr) {
		assert.Equal(t, []string{msgWeakPassword}, valErr.Messages())
	}

	assert.NoError(t, h.checkStrength("Correct-Horse-Battery-Staple-42", "Leo"))
	assert.NoError(t, h.checkStrength("", "Leo"))

	h.config.PasswordMinScore = 0
	assert.NoError(t, h.checkStrength("password1"))
}
