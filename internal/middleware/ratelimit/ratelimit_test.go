package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/platform/config"
	"github.com/qolzam/natours/internal/types"
)

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.NewNormalizer(apperror.ModeRestricted).Handler(),
	})
	app.Use(handler)
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func post(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
	req.Header.Set(types.HeaderContentType, "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRateLimit_Login_RejectsExcessiveRequests(t *testing.T) {
	app := newApp(NewLoginLimiter(config.RateLimitConfig{Enabled: true, Max: 3, Duration: time.Minute}))

	for i := 0; i < 3; i++ {
		resp := post(t, app)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := post(t, app)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Too many login attempts. Please try again later.", body["message"])
}

func TestRateLimit_Disabled(t *testing.T) {
	app := newApp(NewSignupLimiter(config.RateLimitConfig{Enabled: false, Max: 1, Duration: time.Minute}))

	for i := 0; i < 5; i++ {
		resp := post(t, app)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestEndpointType_String(t *testing.T) {
	assert.Equal(t, "password reset", EndpointPasswordReset.String())
	assert.Equal(t, "unknown", EndpointType(42).String())
}
