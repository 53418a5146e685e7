package requestid

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/pkg/log"
	"github.com/qolzam/natours/internal/types"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locals": FromCtx(c),
			"ctx":    log.RequestID(c.UserContext()),
		})
	})
	return app
}

func TestRequestID_Generated(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	id := resp.Header.Get(types.HeaderRequestID)
	_, parseErr := uuid.FromString(id)
	assert.NoError(t, parseErr)
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderRequestID, "abc-123")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(types.HeaderRequestID))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"locals":"abc-123","ctx":"abc-123"}`, string(body))
}

func TestRequestID_OversizedReplaced(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderRequestID, strings.Repeat("x", MaxLength+1))

	resp, err := newApp().Test(req)
	require.NoError(t, err)

	_, parseErr := uuid.FromString(resp.Header.Get(types.HeaderRequestID))
	assert.NoError(t, parseErr)
}
