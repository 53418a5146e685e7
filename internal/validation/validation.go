// Package validation runs struct tag rules and reports failures as
// *apperror.ValidationError, one message per failed field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/qolzam/natours/internal/apperror"
)

// Messages overrides the default message of a rule, keyed by "field.tag"
// (for example "name.required").
type Messages map[string]string

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// fieldName reports a field by its JSON name, or its BSON name for fields hidden from JSON.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "bson"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// Struct validates s. model names the document in the error text.
func Struct(model string, s interface{}, messages Messages) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &apperror.ValidationError{Model: model}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), messageFor(fe, messages))
	}
	return out.OrNil()
}

func messageFor(fe validator.FieldError, messages Messages) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}

	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Path `%s` is required.", field)
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Path `%s` is shorter than the minimum allowed length (%s).", field, fe.Param())
		}
		return fmt.Sprintf("Path `%s` (%v) is less than minimum allowed value (%s).", field, fe.Value(), fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Path `%s` is longer than the maximum allowed length (%s).", field, fe.Param())
		}
		return fmt.Sprintf("Path `%s` (%v) is more than maximum allowed value (%s).", field, fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid enum value for path `%s`.", fe.Value(), field)
	case "email":
		return fmt.Sprintf("Path `%s` is invalid (%v).", field, fe.Value())
	}
	return fmt.Sprintf("Path `%s` is invalid.", field)
}
