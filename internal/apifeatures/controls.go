package apifeatures

import (
	"errors"
	"strings"

	"github.com/gorilla/schema"

	"github.com/qolzam/natours/internal/pkg/log"
)

const (
	DefaultSort   = "-createdAt"
	DefaultFields = "-__v"
	DefaultPage   = 1
	DefaultLimit  = 100
)

// ControlKeys never reach the filter.
var ControlKeys = []string{"page", "sort", "limit", "fields"}

// controls are the decoded control keys. Page and Limit stay zero when the
// value is missing or not an integer.
type controls struct {
	Page   int64    `schema:"page"`
	Limit  int64    `schema:"limit"`
	Sort   []string `schema:"sort"`
	Fields []string `schema:"fields"`

	pageGiven bool
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// decodeControls reads the control keys. Nested forms such as sort[x]=1 are
// ignored. For page and limit the last value wins; a conversion failure leaves
// the field zero so the default applies.
func decodeControls(req QueryRequest) controls {
	src := map[string][]string{}
	for _, key := range ControlKeys {
		var values []string
		switch v := req[key].(type) {
		case string:
			values = []string{v}
		case []string:
			values = append([]string(nil), v...)
		}
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		if len(values) > 0 {
			src[key] = values
		}
	}

	var c controls
	if err := decoder.Decode(&c, src); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return controls{}
		}
		for key, keyErr := range multi {
			var convErr schema.ConversionError
			if !errors.As(keyErr, &convErr) {
				log.Debug("decoding control %s: %v", key, keyErr)
			}
		}
	}
	c.pageGiven = spaced(src["page"]) != ""
	return c
}

// spaced joins repeated values with commas, then turns the comma list into a
// space separated spec.
func spaced(values []string) string {
	var parts []string
	for _, p := range strings.Split(strings.Join(values, ","), ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
