package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/qolzam/natours/internal/pkg/log"
)

// GenericMessage is shown for every failure that is not operational in restricted mode.
const GenericMessage = "Something went wrong."

// Mode selects how much of a failure is exposed to the client.
type Mode int

const (
	// ModeRestricted exposes only the message of operational failures.
	ModeRestricted Mode = iota
	// ModeVerbose exposes the described error value and its stack.
	ModeVerbose
)

// ModeFor returns ModeVerbose for "development" and ModeRestricted for anything else.
func ModeFor(env string) Mode {
	if env == "development" {
		return ModeVerbose
	}
	return ModeRestricted
}

// Response is the JSON body of an error reply.
type Response struct {
	StatusCode int         `json:"-"`
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Error      interface{} `json:"error,omitempty"`
	Stack      string      `json:"stack,omitempty"`
}

// Observer is told about every normalized failure.
type Observer func(kind Kind, statusCode int)

type Normalizer struct {
	mode     Mode
	observer Observer
}

type Option func(*Normalizer)

// WithObserver registers a callback, typically a metrics counter.
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		n.observer = o
	}
}

func NewNormalizer(mode Mode, opts ...Option) *Normalizer {
	n := &Normalizer{mode: mode}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Mode() Mode {
	return n.mode
}

// Normalize renders err for the configured mode. It never panics.
func (n *Normalizer) Normalize(err error) Response {
	return n.normalize(context.Background(), err)
}

// Handler adapts the normalizer to fiber's ErrorHandler.
func (n *Normalizer) Handler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		resp := n.normalize(c.UserContext(), err)
		return c.Status(resp.StatusCode).JSON(resp)
	}
}

func (n *Normalizer) normalize(ctx context.Context, err error) (resp Response) {
	kind := KindUnknown
	defer func() {
		if r := recover(); r != nil {
			log.ErrorWithContext(ctx, "error normalizer panicked: %v", r)
			resp = generic()
			kind = KindUnknown
		}
		if n.observer != nil {
			n.observer(kind, resp.StatusCode)
		}
	}()

	kind = Classify(err)
	if n.mode == ModeVerbose {
		return verbose(err)
	}
	return restricted(ctx, err)
}

func verbose(err error) Response {
	statusCode := http.StatusInternalServerError
	status := StatusError

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		statusCode, status = appErr.StatusCode, appErr.Status
	case errors.As(err, &fiberErr):
		statusCode, status = fiberErr.Code, StatusFor(fiberErr.Code)
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	if status == "" {
		status = StatusFor(statusCode)
	}

	message := ""
	if err != nil {
		message = err.Error()
	}
	return Response{
		StatusCode: statusCode,
		Status:     status,
		Message:    message,
		Error:      Describe(err),
		Stack:      stackOf(err),
	}
}

func restricted(ctx context.Context, err error) Response {
	if appErr := Translate(err); appErr != nil {
		statusCode := appErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		status := appErr.Status
		if status == "" {
			status = StatusFor(statusCode)
		}
		return Response{StatusCode: statusCode, Status: status, Message: appErr.Message}
	}

	log.ErrorWithContext(ctx, "ERROR %v", err)
	log.Debug("%s", log.Dump(err))
	return generic()
}

func generic() Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Status:     StatusError,
		Message:    GenericMessage,
	}
}

// Describe returns a JSON friendly view of err for verbose responses.
func Describe(err error) map[string]interface{} {
	if err == nil {
		return map[string]interface{}{"name": "nil"}
	}

	var appErr *AppError
	var castErr *CastError
	var dupErr *DuplicateKeyError
	var valErr *ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &appErr):
		return map[string]interface{}{
			"name":          "AppError",
			"statusCode":    appErr.StatusCode,
			"status":        appErr.Status,
			"isOperational": true,
		}
	case errors.As(err, &castErr):
		return map[string]interface{}{
			"name":  "CastError",
			"path":  castErr.Path,
			"value": castErr.Value,
			"kind":  castErr.Kind,
		}
	case errors.As(err, &dupErr):
		keyValue := make(map[string]interface{}, len(dupErr.Fields))
		for _, f := range dupErr.Fields {
			keyValue[f.Key] = f.Value
		}
		return map[string]interface{}{
			"name":     "MongoServerError",
			"code":     11000,
			"keyValue": keyValue,
		}
	case errors.As(err, &valErr):
		fields := make(map[string]string, len(valErr.Errors))
		for _, fe := range valErr.Errors {
			fields[fe.Field] = fe.Message
		}
		return map[string]interface{}{
			"name":   "ValidationError",
			"errors": fields,
		}
	case errors.As(err, &fiberErr):
		return map[string]interface{}{
			"name":       "HTTPError",
			"statusCode": fiberErr.Code,
		}
	}
	return map[string]interface{}{
		"name": fmt.Sprintf("%T", err),
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func stackOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stack()
	}
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	return ""
}
