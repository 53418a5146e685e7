package postgresql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// compiler turns cast filters, sort specs and projections into SQL over a
// (id TEXT, data JSONB) table.
type compiler struct {
	schema interfaces.Schema
}

func checkField(path string) error {
	if !fieldNamePattern.MatchString(path) {
		return &apperror.CastError{Path: path, Value: path, Kind: "path"}
	}
	return nil
}

// scalarExpr returns the SQL expression of a scalar field.
func (c compiler) scalarExpr(path string, kind interfaces.FieldKind) string {
	if path == "_id" {
		return "id"
	}
	lit := pq.QuoteLiteral(path)
	switch kind {
	case interfaces.KindNumber:
		return fmt.Sprintf("(data->>%s)::numeric", lit)
	case interfaces.KindBool:
		return fmt.Sprintf("(data->>%s)::boolean", lit)
	case interfaces.KindDate:
		return dateExpr(fmt.Sprintf("data->%s", lit))
	case interfaces.KindObjectID:
		return fmt.Sprintf("data->%s->>'$oid'", lit)
	default:
		return fmt.Sprintf("data->>%s", lit)
	}
}

// dateExpr reads a relaxed extended JSON date. Dates outside the ISO range are stored as
// $numberLong and read back as NULL.
func dateExpr(node string) string {
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(%[1]s->'$date') = 'string' THEN (%[1]s->>'$date')::timestamptz END)", node)
}

func elemExpr(kind interfaces.FieldKind) string {
	if kind == interfaces.KindDate {
		return dateExpr("elem")
	}
	return "elem #>> '{}'"
}

func param(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case time.Time:
		return t.UTC()
	}
	return v
}

func placeholders(values []interface{}) (string, []interface{}) {
	marks := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = param(v)
	}
	return strings.Join(marks, ", "), args
}

// where compiles an already cast filter. The result is nil for an empty filter.
func (c compiler) where(filter map[string]interface{}) (sq.Sqlizer, error) {
	conds, err := c.conditions(filter)
	if err != nil || len(conds) == 0 {
		return nil, err
	}
	return conds, nil
}

func (c compiler) conditions(filter map[string]interface{}) (sq.And, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out sq.And
	for _, path := range keys {
		value := filter[path]
		if strings.HasPrefix(path, "$") {
			cond, err := c.logical(path, value)
			if err != nil {
				return nil, err
			}
			out = append(out, cond)
			continue
		}

		if err := checkField(path); err != nil {
			return nil, err
		}
		ops, isOps := value.(map[string]interface{})
		if !isOps {
			ops = map[string]interface{}{"$eq": value}
		}
		conds, err := c.field(path, ops)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}
	return out, nil
}

func (c compiler) logical(op string, value interface{}) (sq.Sqlizer, error) {
	clauses, _ := value.([]interface{})
	parts := make([]sq.Sqlizer, 0, len(clauses))
	for _, clause := range clauses {
		m, ok := clause.(map[string]interface{})
		if !ok {
			return nil, &apperror.CastError{Path: op, Value: clause, Kind: "object"}
		}
		conds, err := c.conditions(m)
		if err != nil {
			return nil, err
		}
		parts = append(parts, conds)
	}

	switch op {
	case "$and":
		return sq.And(parts), nil
	case "$or":
		return sq.Or(parts), nil
	case "$nor":
		sql, args, err := sq.Or(parts).ToSql()
		if err != nil {
			return nil, err
		}
		return sq.Expr("NOT "+sql, args...), nil
	}
	return nil, &apperror.CastError{Path: op, Value: value, Kind: "operator"}
}

func (c compiler) field(path string, ops map[string]interface{}) ([]sq.Sqlizer, error) {
	kind, _ := c.schema.Kind(path)

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	out := make([]sq.Sqlizer, 0, len(ops))
	for _, op := range names {
		operand := ops[op]
		var cond sq.Sqlizer
		var err error
		if op == "$exists" {
			cond = existsExpr(path, operand == true)
		} else if kind.IsArray() {
			cond, err = c.arrayCond(path, kind.Elem(), op, operand)
		} else {
			cond, err = scalarCond(c.scalarExpr(path, kind), op, operand)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func existsExpr(path string, want bool) sq.Sqlizer {
	if path == "_id" {
		if want {
			return sq.Expr("TRUE")
		}
		return sq.Expr("FALSE")
	}
	expr := fmt.Sprintf("jsonb_exists(data, %s)", pq.QuoteLiteral(path))
	if !want {
		expr = "NOT " + expr
	}
	return sq.Expr(expr)
}

var comparisons = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

func scalarCond(expr, op string, operand interface{}) (sq.Sqlizer, error) {
	switch op {
	case "$eq":
		if operand == nil {
			return sq.Expr(expr + " IS NULL"), nil
		}
		return sq.Expr(expr+" = ?", param(operand)), nil
	case "$ne":
		if operand == nil {
			return sq.Expr(expr + " IS NOT NULL"), nil
		}
		return sq.Expr(expr+" IS DISTINCT FROM ?", param(operand)), nil
	case "$in", "$nin":
		values, _ := operand.([]interface{})
		if len(values) == 0 {
			if op == "$in" {
				return sq.Expr("FALSE"), nil
			}
			return sq.Expr("TRUE"), nil
		}
		marks, args := placeholders(values)
		if op == "$in" {
			return sq.Expr(fmt.Sprintf("%s IN (%s)", expr, marks), args...), nil
		}
		return sq.Expr(fmt.Sprintf("(%[1]s IS NULL OR %[1]s NOT IN (%[2]s))", expr, marks), args...), nil
	}
	if cmp, ok := comparisons[op]; ok {
		return sq.Expr(fmt.Sprintf("%s %s ?", expr, cmp), param(operand)), nil
	}
	return nil, &apperror.CastError{Path: op, Value: operand, Kind: "operator"}
}

// arrayCond matches when any element satisfies the condition, like MongoDB does
// for array fields. $ne and $nin require that no element matches.
func (c compiler) arrayCond(path string, elem interfaces.FieldKind, op string, operand interface{}) (sq.Sqlizer, error) {
	source := fmt.Sprintf("jsonb_array_elements(CASE WHEN jsonb_typeof(data->%[1]s) = 'array' THEN data->%[1]s ELSE '[]'::jsonb END) AS elem", pq.QuoteLiteral(path))
	negate := false
	switch op {
	case "$ne":
		op, negate = "$eq", true
	case "$nin":
		op, negate = "$in", true
	}

	inner, err := scalarCond(elemExpr(elem), op, operand)
	if err != nil {
		return nil, err
	}
	sql, args, err := inner.ToSql()
	if err != nil {
		return nil, err
	}
	prefix := "EXISTS"
	if negate {
		prefix = "NOT EXISTS"
	}
	return sq.Expr(fmt.Sprintf("%s (SELECT 1 FROM %s WHERE %s)", prefix, source, sql), args...), nil
}

// orderBy returns ORDER BY terms. Missing values sort first ascending, as in MongoDB.
func (c compiler) orderBy(spec string) ([]string, error) {
	fields := interfaces.ParseSort(spec)
	out := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if err := checkField(f.Field); err != nil {
			return nil, err
		}
		kind, _ := c.schema.Kind(f.Field)
		expr := fmt.Sprintf("data->%s", pq.QuoteLiteral(f.Field))
		if !kind.IsArray() {
			expr = c.scalarExpr(f.Field, kind)
		}
		if f.Desc {
			out = append(out, expr+" DESC NULLS LAST")
		} else {
			out = append(out, expr+" ASC NULLS FIRST")
		}
	}
	return out, nil
}

// column returns the selected document expression for a projection spec.
func (c compiler) column(spec string) (sq.Sqlizer, error) {
	p, err := interfaces.ParseProjection(spec)
	if err != nil {
		return nil, err
	}
	switch {
	case len(p.Include) > 0:
		keys := append([]string(nil), p.Include...)
		if !p.ExcludeID {
			keys = append(keys, "_id")
		}
		return sq.Expr("(SELECT COALESCE(jsonb_object_agg(key, value), '{}'::jsonb) FROM jsonb_each(data) WHERE key = ANY(?))::text AS data", pq.Array(keys)), nil
	case len(p.Exclude) > 0 || p.ExcludeID:
		keys := append([]string(nil), p.Exclude...)
		if p.ExcludeID {
			keys = append(keys, "_id")
		}
		return sq.Expr("(data - ?::text[])::text AS data", pq.Array(keys)), nil
	}
	return sq.Expr("data::text AS data"), nil
}
