package interfaces

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/apperror"
)

// FieldKind is the stored type of a document field.
type FieldKind int

const (
	KindString FieldKind = iota + 1
	KindNumber
	KindBool
	KindDate
	KindObjectID
	KindStringArray
	KindDateArray
)

func (k FieldKind) String() string {
	switch k {
	case KindString, KindStringArray:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate, KindDateArray:
		return "date"
	case KindObjectID:
		return "ObjectId"
	}
	return "unknown"
}

// Elem returns the element kind of an array kind, or the kind itself.
func (k FieldKind) Elem() FieldKind {
	switch k {
	case KindStringArray:
		return KindString
	case KindDateArray:
		return KindDate
	}
	return k
}

func (k FieldKind) IsArray() bool {
	return k == KindStringArray || k == KindDateArray
}

// Schema describes the queryable fields of a collection. Filters are cast
// against it before they reach a backend.
type Schema struct {
	Fields map[string]FieldKind
	// Unique lists fields backed by a unique index, in index order.
	Unique []string
	// Hidden fields are never rendered, so clients may not filter or sort on them.
	// Server side lookups through CastFilter still may.
	Hidden []string
}

// Kind returns the kind of path. _id is always an ObjectID; fields missing from the
// schema are reported as strings with known=false.
func (s Schema) Kind(path string) (kind FieldKind, known bool) {
	if path == "_id" {
		return KindObjectID, true
	}
	if k, ok := s.Fields[path]; ok {
		return k, true
	}
	return KindString, false
}

// CheckExposed rejects a client filter or sort that references a hidden field,
// including inside $and, $or and $nor clauses.
func (s Schema) CheckExposed(filter map[string]interface{}, sort []SortField) error {
	if field, ok := s.hiddenIn(filter); ok {
		return apperror.Newf(http.StatusBadRequest, "Filtering on %s is not allowed.", field)
	}
	for _, sf := range sort {
		if s.isHidden(sf.Field) {
			return apperror.Newf(http.StatusBadRequest, "Sorting on %s is not allowed.", sf.Field)
		}
	}
	return nil
}

func (s Schema) hiddenIn(filter map[string]interface{}) (string, bool) {
	for path, value := range filter {
		if !logicalOps[path] {
			if s.isHidden(path) {
				return path, true
			}
			continue
		}
		var clauses []map[string]interface{}
		switch v := value.(type) {
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					clauses = append(clauses, m)
				}
			}
		case []map[string]interface{}:
			clauses = v
		}
		for _, clause := range clauses {
			if field, ok := s.hiddenIn(clause); ok {
				return field, true
			}
		}
	}
	return "", false
}

func (s Schema) isHidden(path string) bool {
	for _, field := range s.Hidden {
		if path == field || strings.HasPrefix(path, field+".") {
			return true
		}
	}
	return false
}

var comparisonOps = map[string]bool{
	"$eq": true, "$ne": true,
	"$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$in": true, "$nin": true,
	"$exists": true,
}

var logicalOps = map[string]bool{"$and": true, "$or": true, "$nor": true}

// CastFilter converts every value of filter to the kind of its field. A value
// that cannot be converted yields *apperror.CastError. Array values on scalar
// fields become $in. The input is not modified.
func (s Schema) CastFilter(filter map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(filter))
	for path, value := range filter {
		if strings.HasPrefix(path, "$") {
			if !logicalOps[path] {
				return nil, &apperror.CastError{Path: path, Value: value, Kind: "operator"}
			}
			clauses, err := s.castClauses(path, value)
			if err != nil {
				return nil, err
			}
			out[path] = clauses
			continue
		}

		cast, err := s.castCondition(path, value)
		if err != nil {
			return nil, err
		}
		out[path] = cast
	}
	return out, nil
}

func (s Schema) castClauses(op string, value interface{}) ([]interface{}, error) {
	var raw []interface{}
	switch v := value.(type) {
	case []interface{}:
		raw = v
	case []map[string]interface{}:
		for _, m := range v {
			raw = append(raw, m)
		}
	default:
		return nil, &apperror.CastError{Path: op, Value: value, Kind: "array"}
	}

	clauses := make([]interface{}, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &apperror.CastError{Path: op, Value: item, Kind: "object"}
		}
		cast, err := s.CastFilter(m)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, cast)
	}
	return clauses, nil
}

func (s Schema) castCondition(path string, value interface{}) (interface{}, error) {
	kind, _ := s.Kind(path)

	switch v := value.(type) {
	case map[string]interface{}:
		return s.castOperators(path, kind, v)
	case []interface{}, []string:
		if kind.IsArray() {
			return castSlice(path, kind.Elem(), v)
		}
		values, err := castSlice(path, kind, v)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"$in": values}, nil
	}
	return CastValue(path, kind.Elem(), value)
}

func (s Schema) castOperators(path string, kind FieldKind, ops map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(ops))
	for op, operand := range ops {
		if !comparisonOps[op] {
			return nil, &apperror.CastError{Path: path, Value: ops, Kind: kind.String()}
		}
		switch op {
		case "$in", "$nin":
			values, err := castSlice(path, kind.Elem(), operand)
			if err != nil {
				return nil, err
			}
			out[op] = values
		case "$exists":
			b, err := CastValue(path, KindBool, operand)
			if err != nil {
				return nil, err
			}
			out[op] = b
		default:
			v, err := CastValue(path, kind.Elem(), operand)
			if err != nil {
				return nil, err
			}
			out[op] = v
		}
	}
	return out, nil
}

func castSlice(path string, kind FieldKind, value interface{}) ([]interface{}, error) {
	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		items = []interface{}{v}
	}

	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		cast, err := CastValue(path, kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, cast)
	}
	return out, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// CastValue converts a single scalar to kind. Values already of the target Go
// type pass through unchanged.
func CastValue(path string, kind FieldKind, value interface{}) (interface{}, error) {
	fail := func() (interface{}, error) {
		return nil, &apperror.CastError{Path: path, Value: value, Kind: kind.String()}
	}
	if value == nil {
		return nil, nil
	}

	switch kind {
	case KindNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case bool:
			if v {
				return float64(1), nil
			}
			return float64(0), nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fail()
			}
			return f, nil
		}
		return fail()

	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case float64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes":
				return true, nil
			case "false", "0", "no":
				return false, nil
			}
		}
		return fail()

	case KindDate:
		switch v := value.(type) {
		case time.Time:
			return v.UTC(), nil
		case primitive.DateTime:
			return v.Time().UTC(), nil
		case float64:
			return time.UnixMilli(int64(v)).UTC(), nil
		case string:
			s := strings.TrimSpace(v)
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) > 4 {
				return time.UnixMilli(ms).UTC(), nil
			}
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC(), nil
				}
			}
		}
		return fail()

	case KindObjectID:
		switch v := value.(type) {
		case primitive.ObjectID:
			return v, nil
		case string:
			oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(v))
			if err != nil {
				return fail()
			}
			return oid, nil
		}
		return fail()

	default:
		switch v := value.(type) {
		case string:
			return v, nil
		case float64, int, int64, bool:
			return fmt.Sprint(v), nil
		case primitive.ObjectID:
			return v.Hex(), nil
		}
		return fail()
	}
}

// ParseObjectID casts a path parameter to an ObjectID, reporting failures on _id.
func ParseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &apperror.CastError{Path: "_id", Value: id, Kind: "ObjectId", Cause: err}
	}
	return oid, nil
}

// MergeFilters returns a new filter holding base then override. Keys of override win.
func MergeFilters(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
