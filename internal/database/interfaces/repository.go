// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package interfaces

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNoDocuments is returned when a lookup by id or filter matches nothing.
	ErrNoDocuments = errors.New("no documents in result")
)

// Collection is the document store seen by handlers and services. Both backends
// implement it with the same casting, scope and error semantics.
type Collection[T any] interface {
	Name() string
	Schema() Schema

	// Query starts a pipeline query. Exec applies the collection scope.
	Query() Query[T]
	FindByID(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, filter map[string]interface{}) (*T, error)
	Count(ctx context.Context, filter map[string]interface{}) (int64, error)

	// Create assigns an id when missing, applies defaults and validates.
	Create(ctx context.Context, doc *T) error
	InsertMany(ctx context.Context, docs []*T) error
	// Replace validates doc and overwrites the stored document.
	Replace(ctx context.Context, id primitive.ObjectID, doc *T) error
	// UpdateFields sets the given top level fields without validation.
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error
	DeleteByID(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter map[string]interface{}) (int64, error)

	EnsureIndexes(ctx context.Context) error
}

// Options shared by both backends.
type Options struct {
	Scope map[string]interface{}
}

type Option func(*Options)

// WithScope adds conditions to every read, update and count. Scope keys win over caller keys.
func WithScope(scope map[string]interface{}) Option {
	return func(o *Options) {
		o.Scope = scope
	}
}

func BuildOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Scoped merges the scope into filter.
func (o Options) Scoped(filter map[string]interface{}) map[string]interface{} {
	if len(o.Scope) == 0 {
		return filter
	}
	return MergeFilters(filter, o.Scope)
}
