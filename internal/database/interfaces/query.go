package interfaces

import "context"

// QuerySpec is the accumulated state of a query, handed to a backend on Exec.
type QuerySpec struct {
	Filter     map[string]interface{}
	Sort       string
	Projection string
	Skip       *int64
	Limit      *int64
}

// Finder runs a QuerySpec. Backends implement it.
type Finder[T any] interface {
	FindMany(ctx context.Context, spec QuerySpec) ([]T, error)
}

// Query is a chainable, lazily executed collection query.
type Query[T any] interface {
	// Find merges filter into the current conditions. Later keys win.
	Find(filter map[string]interface{}) Query[T]
	Sort(spec string) Query[T]
	Select(spec string) Query[T]
	Skip(n int64) Query[T]
	Limit(n int64) Query[T]
	Spec() QuerySpec
	Exec(ctx context.Context) ([]T, error)
}

type query[T any] struct {
	finder Finder[T]
	spec   QuerySpec
}

// NewQuery starts an empty query against finder.
func NewQuery[T any](finder Finder[T]) Query[T] {
	return &query[T]{finder: finder, spec: QuerySpec{Filter: map[string]interface{}{}}}
}

func (q *query[T]) Find(filter map[string]interface{}) Query[T] {
	q.spec.Filter = MergeFilters(q.spec.Filter, filter)
	return q
}

func (q *query[T]) Sort(spec string) Query[T] {
	q.spec.Sort = spec
	return q
}

func (q *query[T]) Select(spec string) Query[T] {
	q.spec.Projection = spec
	return q
}

func (q *query[T]) Skip(n int64) Query[T] {
	q.spec.Skip = &n
	return q
}

func (q *query[T]) Limit(n int64) Query[T] {
	q.spec.Limit = &n
	return q
}

// Spec returns a copy of the accumulated state.
func (q *query[T]) Spec() QuerySpec {
	spec := q.spec
	spec.Filter = MergeFilters(nil, q.spec.Filter)
	return spec
}

func (q *query[T]) Exec(ctx context.Context) ([]T, error) {
	return q.finder.FindMany(ctx, q.Spec())
}
