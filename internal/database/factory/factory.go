// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package factory

import (
	"context"
	"fmt"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/database/mongodb"
	"github.com/qolzam/natours/internal/database/postgres"
	"github.com/qolzam/natours/internal/database/postgresql"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
)

// Backend is an open connection to the configured document store.
type Backend struct {
	Type     string
	mongo    *mongodb.Client
	postgres *postgres.Client
}

// Connect opens the backend selected by DB_TYPE.
func Connect(ctx context.Context, cfg platformconfig.DatabaseConfig) (*Backend, error) {
	switch cfg.Type {
	case platformconfig.DatabaseTypeMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		return &Backend{Type: cfg.Type, mongo: client}, nil
	case platformconfig.DatabaseTypePostgreSQL:
		client, err := postgres.NewClient(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL backend: %w", err)
		}
		return &Backend{Type: cfg.Type, postgres: client}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// NewCollection binds a collection of T on the backend.
func NewCollection[T any](b *Backend, name string, schema interfaces.Schema, opts ...interfaces.Option) (interfaces.Collection[T], error) {
	switch {
	case b == nil:
		return nil, fmt.Errorf("no backend for collection %s", name)
	case b.mongo != nil:
		return mongodb.NewCollection[T](b.mongo.Database(), name, schema, opts...), nil
	case b.postgres != nil:
		return postgresql.NewCollection[T](b.postgres.DB(), name, schema, opts...), nil
	}
	return nil, fmt.Errorf("backend %q is not connected", b.Type)
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b.mongo != nil:
		return b.mongo.Ping(ctx)
	case b.postgres != nil:
		return b.postgres.Ping(ctx)
	}
	return fmt.Errorf("backend %q is not connected", b.Type)
}

func (b *Backend) Close(ctx context.Context) error {
	switch {
	case b.mongo != nil:
		return b.mongo.Close(ctx)
	case b.postgres != nil:
		return b.postgres.Close()
	}
	return nil
}
