package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/types"
)

// HTTPHelper provides a robust way to make HTTP requests in tests.
type HTTPHelper struct {
	t   *testing.T
	app *fiber.App
}

// NewHTTPHelper creates a new test helper for a given Fiber app.
func NewHTTPHelper(t *testing.T, app *fiber.App) *HTTPHelper {
	require.NotNil(t, app, "Fiber app provided to HTTPHelper cannot be nil")
	return &HTTPHelper{t: t, app: app}
}

// Request represents a test request under construction.
type Request struct {
	helper  *HTTPHelper
	method  string
	path    string
	body    []byte
	headers http.Header
	cookies []*http.Cookie
}

// NewRequest begins building a request. Non byte bodies are marshaled to JSON.
func (h *HTTPHelper) NewRequest(method, path string, body interface{}) *Request {
	req := &Request{helper: h, method: method, path: path, headers: make(http.Header)}
	if body == nil {
		return req
	}
	switch b := body.(type) {
	case []byte:
		req.body = b
	case string:
		req.body = []byte(b)
	default:
		jsonBytes, err := json.Marshal(body)
		require.NoError(h.t, err, "Failed to marshal request body to JSON")
		req.body = jsonBytes
	}
	req.WithHeader(types.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

// WithHeader adds a header to the request.
func (r *Request) WithHeader(key, value string) *Request {
	r.headers.Add(key, value)
	return r
}

// WithJWTAuth adds token as Authorization: Bearer header.
func (r *Request) WithJWTAuth(token string) *Request {
	return r.WithHeader(types.HeaderAuthorization, types.BearerPrefix+token)
}

// WithCookie attaches a cookie.
func (r *Request) WithCookie(name, value string) *Request {
	r.cookies = append(r.cookies, &http.Cookie{Name: name, Value: value})
	return r
}

// Send executes the request and returns the response.
func (r *Request) Send() *http.Response {
	req := httptest.NewRequest(r.method, r.path, bytes.NewReader(r.body))
	req.Header = r.headers
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	resp, err := r.helper.app.Test(req, int(10*time.Second.Milliseconds()))
	require.NoError(r.helper.t, err, "app.Test should not return an error")
	require.NotNil(r.helper.t, resp, "app.Test response should not be nil")
	return resp
}

// SendJSON executes the request and decodes a JSON object body.
func (r *Request) SendJSON() (*http.Response, map[string]interface{}) {
	resp := r.Send()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(r.helper.t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var body map[string]interface{}
	require.NoError(r.helper.t, json.Unmarshal(raw, &body), "response body: %s", raw)
	return resp, body
}

// Data returns body.data.data, the document or list of a success envelope.
func Data(t *testing.T, body map[string]interface{}) interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "body has no data object: %v", body)
	return data["data"]
}
