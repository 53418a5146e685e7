// Package apifeatures applies the filter, sort, field selection and
// pagination parameters of a list request to a collection query.
package apifeatures

import (
	"context"
	"math"

	"github.com/qolzam/natours/internal/database/interfaces"
)

// Features mutates a query step by step. Each step returns the pipeline so
// calls can be chained. Nothing runs until Exec.
type Features[T any] struct {
	query    interfaces.Query[T]
	request  QueryRequest
	controls controls

	filters map[string]interface{}
	sort    string
	fields  string
	page    int64
	limit   int64
	hasPage bool

	err error
}

// New wraps query with the decoded request. The request is copied.
func New[T any](query interfaces.Query[T], request QueryRequest) *Features[T] {
	if request == nil {
		request = QueryRequest{}
	}
	request = request.Clone()
	return &Features[T]{
		query:    query,
		request:  request,
		controls: decodeControls(request),
		page:     DefaultPage,
		limit:    DefaultLimit,
	}
}

// Filter applies every non control key, with comparison words turned into operators.
func (f *Features[T]) Filter() *Features[T] {
	if f.err != nil {
		return f
	}

	raw := make(map[string]interface{}, len(f.request))
	for k, v := range f.request {
		raw[k] = v
	}
	for _, k := range ControlKeys {
		delete(raw, k)
	}

	filters, err := ReplaceOperators(raw)
	if err != nil {
		f.err = err
		return f
	}
	f.filters = filters
	f.query = f.query.Find(filters)
	return f
}

// Sort orders by the comma separated sort parameter, newest first by default.
func (f *Features[T]) Sort() *Features[T] {
	f.sort = spaced(f.controls.Sort)
	if f.sort == "" {
		f.sort = DefaultSort
	}
	f.query = f.query.Sort(f.sort)
	return f
}

// Limit restricts the returned fields to the comma separated fields parameter.
// Without it only the version key is hidden.
func (f *Features[T]) Limit() *Features[T] {
	f.fields = spaced(f.controls.Fields)
	if f.fields == "" {
		f.fields = DefaultFields
	}
	f.query = f.query.Select(f.fields)
	return f
}

// Paginate skips (page-1)*limit documents and caps the result at limit.
// Missing or non positive values fall back to page 1 and limit 100.
func (f *Features[T]) Paginate() *Features[T] {
	if f.controls.Page > 0 {
		f.page = f.controls.Page
	}
	f.hasPage = f.controls.pageGiven
	if f.controls.Limit > 0 {
		f.limit = f.controls.Limit
	}
	f.query = f.query.Skip(f.Offset()).Limit(f.limit)
	return f
}

// Query returns the query with every applied step.
func (f *Features[T]) Query() interfaces.Query[T] {
	return f.query
}

// Err reports a failure recorded by a step.
func (f *Features[T]) Err() error {
	return f.err
}

// Exec runs the query, or returns the recorded failure.
func (f *Features[T]) Exec(ctx context.Context) ([]T, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.query.Exec(ctx)
}

// Filters returns the filter applied by Filter, or nil.
func (f *Features[T]) Filters() map[string]interface{} {
	return f.filters
}

// SortSpec is the space separated sort applied by Sort.
func (f *Features[T]) SortSpec() string { return f.sort }
func (f *Features[T]) Fields() string   { return f.fields }
func (f *Features[T]) Page() int64      { return f.page }
func (f *Features[T]) PerPage() int64   { return f.limit }

// Offset is the number of documents skipped. It saturates at math.MaxInt64
// instead of overflowing for huge pages.
func (f *Features[T]) Offset() int64 {
	if f.page-1 > math.MaxInt64/f.limit {
		return math.MaxInt64
	}
	return (f.page - 1) * f.limit
}

// HasPage reports whether the request named a page explicitly.
func (f *Features[T]) HasPage() bool {
	return f.hasPage
}
