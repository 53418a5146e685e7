package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
)

// Collection is an in-memory interfaces.Collection for handler and service tests.
// Documents are kept as BSON maps so every read decodes a fresh copy. Filters are
// cast with the schema and scoped exactly like the real backends.
type Collection[T any] struct {
	mu     sync.Mutex
	name   string
	schema interfaces.Schema
	opts   interfaces.Options
	docs   []bson.M
}

var _ interfaces.Collection[struct{}] = (*Collection[struct{}])(nil)

func NewCollection[T any](name string, schema interfaces.Schema, opts ...interfaces.Option) *Collection[T] {
	return &Collection[T]{name: name, schema: schema, opts: interfaces.BuildOptions(opts...)}
}

func (c *Collection[T]) Name() string              { return c.name }
func (c *Collection[T]) Schema() interfaces.Schema { return c.schema }

func (c *Collection[T]) Query() interfaces.Query[T] {
	return interfaces.NewQuery[T](c)
}

// Len returns the number of stored documents, ignoring the scope.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection[T]) FindMany(ctx context.Context, spec interfaces.QuerySpec) ([]T, error) {
	filter, err := c.scoped(spec.Filter)
	if err != nil {
		return nil, err
	}
	if _, err := interfaces.ParseProjection(spec.Projection); err != nil {
		return nil, err
	}

	c.mu.Lock()
	matched := make([]bson.M, 0)
	for _, doc := range c.docs {
		if matchFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.mu.Unlock()

	sortDocs(matched, interfaces.ParseSort(spec.Sort))

	if spec.Skip != nil {
		skip := int(*spec.Skip)
		if skip > len(matched) {
			skip = len(matched)
		}
		matched = matched[skip:]
	}
	if spec.Limit != nil && *spec.Limit > 0 && int(*spec.Limit) < len(matched) {
		matched = matched[:*spec.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, m := range matched {
		var doc T
		if err := fromDoc(m, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return c.FindOne(ctx, map[string]interface{}{"_id": oid})
}

func (c *Collection[T]) FindOne(ctx context.Context, filter map[string]interface{}) (*T, error) {
	docs, err := c.Query().Find(filter).Limit(1).Exec(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, interfaces.ErrNoDocuments
	}
	return &docs[0], nil
}

func (c *Collection[T]) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	f, err := c.scoped(filter)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, doc := range c.docs {
		if matchFilter(doc, f) {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T]) Create(ctx context.Context, doc *T) error {
	if _, err := interfaces.Prepare(doc); err != nil {
		return err
	}
	m, err := toDoc(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUnique(m, -1); err != nil {
		return err
	}
	c.docs = append(c.docs, m)
	return nil
}

func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) error {
	for _, doc := range docs {
		if err := c.Create(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	if _, err := interfaces.Prepare(doc); err != nil {
		return err
	}
	m, err := toDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id

	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexOf(id)
	if err != nil {
		return err
	}
	if err := c.checkUnique(m, idx); err != nil {
		return err
	}
	c.docs[idx] = m
	return nil
}

func (c *Collection[T]) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexOf(id)
	if err != nil {
		return err
	}

	updated := bson.M{}
	for k, v := range c.docs[idx] {
		updated[k] = v
	}
	for k, v := range fields {
		updated[k] = v
	}
	if err := c.checkUnique(updated, idx); err != nil {
		return err
	}
	c.docs[idx] = updated
	return nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexOf(oid)
	if err != nil {
		return err
	}
	c.docs = append(c.docs[:idx], c.docs[idx+1:]...)
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, filter map[string]interface{}) (int64, error) {
	f, err := c.schema.CastFilter(filter)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0]
	var n int64
	for _, doc := range c.docs {
		if matchFilter(doc, f) {
			n++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return n, nil
}

func (c *Collection[T]) EnsureIndexes(ctx context.Context) error { return nil }

func (c *Collection[T]) scoped(filter map[string]interface{}) (map[string]interface{}, error) {
	return c.schema.CastFilter(c.opts.Scoped(filter))
}

// indexOf finds a document by id within the scope. Callers hold mu.
func (c *Collection[T]) indexOf(id primitive.ObjectID) (int, error) {
	filter, err := c.scoped(map[string]interface{}{"_id": id})
	if err != nil {
		return -1, err
	}
	for i, doc := range c.docs {
		if matchFilter(doc, filter) {
			return i, nil
		}
	}
	return -1, interfaces.ErrNoDocuments
}

// checkUnique rejects m when a unique field collides with another document. Callers hold mu.
func (c *Collection[T]) checkUnique(m bson.M, self int) error {
	for _, field := range c.schema.Unique {
		value := normalize(m[field])
		if value == nil {
			continue
		}
		for i, doc := range c.docs {
			if i != self && equal(normalize(doc[field]), value) {
				return &apperror.DuplicateKeyError{
					Collection: c.name,
					Fields:     []apperror.KeyValue{{Key: field, Value: m[field]}},
				}
			}
		}
	}
	return nil
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromDoc(m bson.M, out interface{}) error {
	raw, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func lookup(doc bson.M, path string) (interface{}, bool) {
	var current interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(bson.M)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func matchFilter(doc bson.M, filter map[string]interface{}) bool {
	for key, cond := range filter {
		switch key {
		case "$and", "$or", "$nor":
			clauses, _ := cond.([]interface{})
			some := false
			all := true
			for _, clause := range clauses {
				m, _ := clause.(map[string]interface{})
				if matchFilter(doc, m) {
					some = true
				} else {
					all = false
				}
			}
			if (key == "$and" && !all) || (key == "$or" && !some) || (key == "$nor" && some) {
				return false
			}
		default:
			value, present := lookup(doc, key)
			if !matchValue(normalize(value), present, cond) {
				return false
			}
		}
	}
	return true
}

func matchValue(value interface{}, present bool, cond interface{}) bool {
	ops, isOps := cond.(map[string]interface{})
	if !isOps {
		return matchesEq(value, normalize(cond))
	}

	for op, operand := range ops {
		operand = normalize(operand)
		var ok bool
		switch op {
		case "$eq":
			ok = matchesEq(value, operand)
		case "$ne":
			ok = !matchesEq(value, operand)
		case "$gt", "$gte", "$lt", "$lte":
			ok = anyElem(value, func(v interface{}) bool {
				cmp, comparable := compare(v, operand)
				if !comparable {
					return false
				}
				switch op {
				case "$gt":
					return cmp > 0
				case "$gte":
					return cmp >= 0
				case "$lt":
					return cmp < 0
				}
				return cmp <= 0
			})
		case "$in", "$nin":
			list, _ := operand.([]interface{})
			for _, candidate := range list {
				if matchesEq(value, candidate) {
					ok = true
					break
				}
			}
			if op == "$nin" {
				ok = !ok
			}
		case "$exists":
			want, _ := operand.(bool)
			ok = present == want
		}
		if !ok {
			return false
		}
	}
	return true
}

// matchesEq mirrors MongoDB equality: null matches missing fields and arrays match by element.
func matchesEq(value, operand interface{}) bool {
	if operand == nil {
		return value == nil
	}
	return anyElem(value, func(v interface{}) bool { return equal(v, operand) })
}

func anyElem(value interface{}, pred func(interface{}) bool) bool {
	if list, ok := value.([]interface{}); ok {
		for _, v := range list {
			if pred(v) {
				return true
			}
		}
		return false
	}
	return pred(value)
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case primitive.A:
		return normalize([]interface{}(x))
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

func equal(a, b interface{}) bool {
	if cmp, ok := compare(a, b); ok {
		return cmp == 0
	}
	switch a.(type) {
	case []interface{}, map[string]interface{}, bson.M:
		return false
	}
	switch b.(type) {
	case []interface{}, map[string]interface{}, bson.M:
		return false
	}
	return a == b
}

func compare(a, b interface{}) (int, bool) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

func cmpOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// sortDocs orders docs like MongoDB for scalar fields: missing values first when ascending.
func sortDocs(docs []bson.M, fields []interfaces.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, aok := lookup(docs[i], f.Field)
			b, bok := lookup(docs[j], f.Field)
			var cmp int
			switch {
			case !aok && !bok:
				cmp = 0
			case !aok:
				cmp = -1
			case !bok:
				cmp = 1
			default:
				cmp, _ = compare(normalize(a), normalize(b))
			}
			if cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
