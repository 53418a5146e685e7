package apperror

import (
	"fmt"
	"strings"
)

// CastError reports a value that could not be converted to the type of its field.
type CastError struct {
	Path  string
	Value interface{}
	Kind  string
	Cause error
}

func (e *CastError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("Cast to %s failed for value %q at path %q", e.Kind, fmt.Sprint(e.Value), e.Path)
	}
	return fmt.Sprintf("Cast failed for value %q at path %q", fmt.Sprint(e.Value), e.Path)
}

func (e *CastError) Unwrap() error {
	return e.Cause
}

// KeyValue is one field of a violated unique index.
type KeyValue struct {
	Key   string
	Value interface{}
}

// DuplicateKeyError reports a unique index violation. Fields keep the index order.
type DuplicateKeyError struct {
	Collection string
	Fields     []KeyValue
	Cause      error
}

func (e *DuplicateKeyError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Key, f.Value))
	}
	return fmt.Sprintf("E11000 duplicate key error collection: %s dup key: { %s }", e.Collection, strings.Join(parts, ", "))
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Cause
}

// FirstValue returns the value of the first duplicated field, or nil.
func (e *DuplicateKeyError) FirstValue() interface{} {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields[0].Value
}

// FieldError is a single failed model rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failed rule of one document, in field order.
type ValidationError struct {
	Model  string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s validation failed: %s", e.Model, e.joined(", "))
	}
	return "Validation failed: " + e.joined(", ")
}

// Messages returns the individual messages in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Message)
	}
	return out
}

func (e *ValidationError) joined(sep string) string {
	return strings.Join(e.Messages(), sep)
}

// Add appends a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no failure was added, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
