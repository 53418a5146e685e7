package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func parseToken(t *testing.T, claims jwt.MapClaims, key []byte) error {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	_, err = jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return key, nil })
	require.Error(t, err)
	return err
}

func TestNew(t *testing.T) {
	t.Run("4xx is fail", func(t *testing.T) {
		e := New("No tour found", http.StatusNotFound)
		assert.Equal(t, StatusFail, e.Status)
		assert.True(t, e.IsOperational())
		assert.Equal(t, "No tour found", e.Error())
		assert.Contains(t, e.Stack(), "TestNew")
	})

	t.Run("5xx is error", func(t *testing.T) {
		assert.Equal(t, StatusError, New("boom", 500).Status)
		assert.Equal(t, StatusError, StatusFor(302))
	})

	t.Run("formatted", func(t *testing.T) {
		e := Newf(http.StatusNotFound, "Can't find %s on this server!", "/nowhere")
		assert.Equal(t, "Can't find /nowhere on this server!", e.Message)
		assert.Equal(t, StatusFail, e.Status)
		assert.Equal(t, http.StatusNotFound, e.StatusCode)
	})
}

func TestClassify(t *testing.T) {
	expired := parseToken(t, jwt.MapClaims{"id": "1", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
	badSig := parseToken(t, jwt.MapClaims{"id": "1"}, []byte("other-secret"))
	_, malformed := jwt.Parse("not.a.token", func(*jwt.Token) (interface{}, error) { return secret, nil })

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"cast", &CastError{Path: "_id", Value: "abc"}, KindCast},
		{"wrapped cast", fmt.Errorf("find: %w", &CastError{Path: "price", Value: "x"}), KindCast},
		{"duplicate", &DuplicateKeyError{Fields: []KeyValue{{"name", "The Forest Hiker"}}}, KindDuplicateKey},
		{"validation", &ValidationError{Errors: []FieldError{{"name", "A tour must have a name"}}}, KindValidation},
		{"expired token", expired, KindTokenExpired},
		{"bad signature", badSig, KindTokenInvalid},
		{"malformed token", malformed, KindTokenInvalid},
		{"app error", New("nope", 404), KindOperational},
		{"fiber error", fiber.ErrMethodNotAllowed, KindOperational},
		{"unknown", errors.New("connection reset"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestNormalizeRestricted(t *testing.T) {
	n := NewNormalizer(ModeRestricted)
	expired := parseToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()}, secret)
	badSig := parseToken(t, jwt.MapClaims{"id": "1"}, []byte("wrong"))

	tests := []struct {
		name    string
		err     error
		code    int
		status  string
		message string
	}{
		{"cast", &CastError{Path: "id", Value: "abc"}, 400, "fail", "Invalid id: abc"},
		{"duplicate", &DuplicateKeyError{Fields: []KeyValue{{"name", "The Sea Explorer"}, {"x", 1}}}, 400, "fail", `Duplicate field value: "The Sea Explorer". Please use another value.`},
		{"duplicate with quotes", &DuplicateKeyError{Fields: []KeyValue{{"name", `The "Best" Tour`}}}, 400, "fail", `Duplicate field value: "The "Best" Tour". Please use another value.`},
		{"duplicate number", &DuplicateKeyError{Fields: []KeyValue{{"price", 497}}}, 400, "fail", `Duplicate field value: "497". Please use another value.`},
		{"validation", &ValidationError{Errors: []FieldError{
			{"name", "A tour name must have less or equal then 40 characters"},
			{"difficulty", "Difficulty is either: easy, medium, difficult"},
		}}, 400, "fail", "A tour name must have less or equal then 40 characters. Difficulty is either: easy, medium, difficult"},
		{"invalid token", badSig, 401, "fail", "Invalid token. Please try to log in again."},
		{"expired token", expired, 401, "fail", "Token expired! Please try to log in again."},
		{"operational", New("Tour not found", 404), 404, "fail", "Tour not found"},
		{"operational 500", New("There was an error sending the email. Try again later!", 500), 500, "error", "There was an error sending the email. Try again later!"},
		{"fiber error", fiber.NewError(413, "Request Entity Too Large"), 413, "fail", "Request Entity Too Large"},
		{"unknown", errors.New("db exploded"), 500, "error", GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := n.Normalize(tt.err)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.message, resp.Message)
			assert.Nil(t, resp.Error)
			assert.Empty(t, resp.Stack)
		})
	}
}

func TestNormalizeVerbose(t *testing.T) {
	n := NewNormalizer(ModeVerbose)

	t.Run("app error keeps code and stack", func(t *testing.T) {
		resp := n.Normalize(New("Please provide email and password!", 400))
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, "fail", resp.Status)
		assert.Equal(t, "Please provide email and password!", resp.Message)
		assert.NotEmpty(t, resp.Stack)
		desc := resp.Error.(map[string]interface{})
		assert.Equal(t, true, desc["isOperational"])
	})

	t.Run("recognised shapes are not reclassified", func(t *testing.T) {
		resp := n.Normalize(&CastError{Path: "_id", Value: "abc", Kind: "ObjectId"})
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "error", resp.Status)
		assert.Contains(t, resp.Message, "Cast to ObjectId failed")
		assert.Equal(t, "CastError", resp.Error.(map[string]interface{})["name"])
	})

	t.Run("unknown error is described", func(t *testing.T) {
		resp := n.Normalize(errors.New("socket hang up"))
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "socket hang up", resp.Message)
		assert.Equal(t, "*errors.errorString", resp.Error.(map[string]interface{})["name"])
	})
}

type panicky struct{}

func (panicky) Error() string { panic("describing this error fails") }

func TestNormalizeNeverPanics(t *testing.T) {
	var typedNil *AppError
	for _, mode := range []Mode{ModeRestricted, ModeVerbose} {
		n := NewNormalizer(mode)
		for _, err := range []error{panicky{}, typedNil, nil} {
			var resp Response
			require.NotPanics(t, func() { resp = n.Normalize(err) })
			assert.Equal(t, 500, resp.StatusCode)
		}
	}
}

func TestObserver(t *testing.T) {
	var kinds []Kind
	var codes []int
	n := NewNormalizer(ModeRestricted, WithObserver(func(k Kind, code int) {
		kinds = append(kinds, k)
		codes = append(codes, code)
	}))

	n.Normalize(&CastError{Path: "id", Value: "1"})
	n.Normalize(errors.New("x"))

	assert.Equal(t, []Kind{KindCast, KindUnknown}, kinds)
	assert.Equal(t, []int{400, 500}, codes)
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeVerbose, ModeFor("development"))
	assert.Equal(t, ModeRestricted, ModeFor("production"))
	assert.Equal(t, ModeRestricted, ModeFor("staging"))
	assert.Equal(t, ModeRestricted, ModeFor(""))
}

func TestHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: NewNormalizer(ModeRestricted).Handler()})
	app.Get("/tours/:id", func(c *fiber.Ctx) error {
		return &CastError{Path: "_id", Value: c.Params("id")}
	})
	app.Get("/crash", func(c *fiber.Ctx) error {
		return errors.New("nil map write")
	})

	t.Run("cast error becomes 400", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tours/abc", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, map[string]interface{}{"status": "fail", "message": "Invalid _id: abc"}, got)
	})

	t.Run("unknown error becomes generic 500", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/crash", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "error", got["status"])
		assert.Equal(t, GenericMessage, got["message"])
	})

	t.Run("unmatched route uses fiber 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestValidationErrorHelpers(t *testing.T) {
	v := &ValidationError{Model: "Tour"}
	assert.NoError(t, v.OrNil())
	v.Add("price", "A tour must have a price")
	require.Error(t, v.OrNil())
	assert.Equal(t, "Tour validation failed: A tour must have a price", v.Error())
}
