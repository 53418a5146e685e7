package resource

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
)

const StatusSuccess = "success"

// Success writes {status:"success", data:{key: value}}.
func Success(c *fiber.Ctx, statusCode int, key string, value interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": StatusSuccess,
		"data":   fiber.Map{key: value},
	})
}

// List writes {status:"success", results:n, data:{key: values}}.
func List(c *fiber.Ctx, key string, values []map[string]interface{}) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  StatusSuccess,
		"results": len(values),
		"data":    fiber.Map{key: values},
	})
}

// NoContent answers 204 with an empty body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

// Render converts doc to its JSON object form and applies the projection.
// Fields tagged json:"-" never appear.
func Render(doc interface{}, p interfaces.Projection) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	p.Apply(out)
	return out, nil
}

// RenderAll renders every document of docs.
func RenderAll[T any](docs []T, p interfaces.Projection) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(docs))
	for i := range docs {
		m, err := Render(&docs[i], p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// DecodeBody unmarshals the JSON request body into out. A value of the wrong
// JSON type is reported as a cast failure on its field.
func DecodeBody(c *fiber.Ctx, out interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}
	err := json.Unmarshal(body, out)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		value, ok := rawField(body, typeErr.Field)
		if !ok {
			value = typeErr.Value
		}
		return &apperror.CastError{Path: typeErr.Field, Value: value, Kind: typeErr.Type.String(), Cause: err}
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		path := "date"
		var doc interface{}
		if json.Unmarshal(body, &doc) == nil {
			if p, ok := pathOf(doc, timeErr.Value, ""); ok {
				path = p
			}
		}
		return &apperror.CastError{Path: path, Value: timeErr.Value, Kind: "date", Cause: err}
	}
	return apperror.BadRequest("Invalid JSON body.")
}

// rawField returns the value the client sent at the dotted JSON path.
func rawField(body []byte, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var cur interface{}
	if err := json.Unmarshal(body, &cur); err != nil {
		return nil, false
	}
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// pathOf finds the object key holding the string target. Array elements report
// the key of their array.
func pathOf(v interface{}, target, prefix string) (string, bool) {
	switch v := v.(type) {
	case string:
		return prefix, prefix != "" && v == target
	case []interface{}:
		for _, item := range v {
			if p, ok := pathOf(item, target, prefix); ok {
				return p, true
			}
		}
	case map[string]interface{}:
		for key, item := range v {
			p := key
			if prefix != "" {
				p = prefix + "." + key
			}
			if found, ok := pathOf(item, target, p); ok {
				return found, true
			}
		}
	}
	return "", false
}

// NotFoundOr maps a missing document to the 404 operational error.
func NotFoundOr(err error) error {
	if errors.Is(err, interfaces.ErrNoDocuments) {
		return apperror.NotFound()
	}
	return err
}
