// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/pkg/log"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Collection stores documents of type T as extended JSON in a JSONB column.
type Collection[T any] struct {
	db       *sqlx.DB
	name     string
	table    string
	schema   interfaces.Schema
	opts     interfaces.Options
	compiler compiler
}

var _ interfaces.Collection[struct{}] = (*Collection[struct{}])(nil)

func NewCollection[T any](db *sqlx.DB, name string, schema interfaces.Schema, opts ...interfaces.Option) *Collection[T] {
	return &Collection[T]{
		db:       db,
		name:     name,
		table:    pq.QuoteIdentifier(name),
		schema:   schema,
		opts:     interfaces.BuildOptions(opts...),
		compiler: compiler{schema: schema},
	}
}

func (c *Collection[T]) Name() string              { return c.name }
func (c *Collection[T]) Schema() interfaces.Schema { return c.schema }

func (c *Collection[T]) Query() interfaces.Query[T] {
	return interfaces.NewQuery[T](c)
}

// selectSQL builds the statement for a pipeline query.
func (c *Collection[T]) selectSQL(spec interfaces.QuerySpec) (string, []interface{}, error) {
	column, err := c.compiler.column(spec.Projection)
	if err != nil {
		return "", nil, err
	}
	builder := psql.Select().Column(column).From(c.table)

	where, err := c.where(spec.Filter)
	if err != nil {
		return "", nil, err
	}
	if where != nil {
		builder = builder.Where(where)
	}

	order, err := c.compiler.orderBy(spec.Sort)
	if err != nil {
		return "", nil, err
	}
	if len(order) > 0 {
		builder = builder.OrderBy(order...)
	}
	if spec.Skip != nil && *spec.Skip > 0 {
		builder = builder.Offset(uint64(*spec.Skip))
	}
	if spec.Limit != nil && *spec.Limit > 0 {
		builder = builder.Limit(uint64(*spec.Limit))
	}
	return builder.ToSql()
}

func (c *Collection[T]) FindMany(ctx context.Context, spec interfaces.QuerySpec) ([]T, error) {
	query, args, err := c.selectSQL(spec)
	if err != nil {
		return nil, err
	}
	log.Debug("postgresql: %s %v", query, args)

	var rows []string
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translateError(c.name, err)
	}

	docs := make([]T, 0, len(rows))
	for _, raw := range rows {
		var doc T
		if err := bson.UnmarshalExtJSON([]byte(raw), false, &doc); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return c.FindOne(ctx, map[string]interface{}{"_id": oid})
}

func (c *Collection[T]) FindOne(ctx context.Context, filter map[string]interface{}) (*T, error) {
	limit := int64(1)
	docs, err := c.FindMany(ctx, interfaces.QuerySpec{Filter: filter, Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, interfaces.ErrNoDocuments
	}
	return &docs[0], nil
}

func (c *Collection[T]) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	builder := psql.Select("COUNT(*)").From(c.table)
	where, err := c.where(filter)
	if err != nil {
		return 0, err
	}
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := c.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, translateError(c.name, err)
	}
	return n, nil
}

func (c *Collection[T]) Create(ctx context.Context, doc *T) error {
	return c.InsertMany(ctx, []*T{doc})
}

func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	builder := psql.Insert(c.table).Columns("id", "data")
	for _, doc := range docs {
		id, err := interfaces.Prepare(doc)
		if err != nil {
			return err
		}
		data, err := encode(doc)
		if err != nil {
			return err
		}
		builder = builder.Values(id.Hex(), sq.Expr("?::jsonb", data))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, query, args...)
	return translateError(c.name, err)
}

func (c *Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	if _, err := interfaces.Prepare(doc); err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return err
	}
	return c.update(ctx, id, sq.Expr("?::jsonb", data))
}

func (c *Collection[T]) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	patch, err := encode(bson.M(fields))
	if err != nil {
		return err
	}
	return c.update(ctx, id, sq.Expr("data || ?::jsonb", patch))
}

func (c *Collection[T]) update(ctx context.Context, id primitive.ObjectID, data sq.Sqlizer) error {
	where, err := c.where(map[string]interface{}{"_id": id})
	if err != nil {
		return err
	}
	query, args, err := psql.Update(c.table).Set("data", data).Where(where).ToSql()
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return err
	}
	where, err := c.where(map[string]interface{}{"_id": oid})
	if err != nil {
		return err
	}
	query, args, err := psql.Delete(c.table).Where(where).ToSql()
	if err != nil {
		return err
	}
	return c.exec(ctx, query, args)
}

func (c *Collection[T]) DeleteMany(ctx context.Context, filter map[string]interface{}) (int64, error) {
	cast, err := c.schema.CastFilter(filter)
	if err != nil {
		return 0, err
	}
	where, err := c.compiler.where(cast)
	if err != nil {
		return 0, err
	}
	builder := psql.Delete(c.table)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateError(c.name, err)
	}
	return res.RowsAffected()
}

// exec runs a single row statement and reports ErrNoDocuments when nothing matched.
func (c *Collection[T]) exec(ctx context.Context, query string, args []interface{}) error {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the table and one unique expression index per unique field.
func (c *Collection[T]) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range c.ddl() {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare table %s: %w", c.name, err)
		}
	}
	log.Info("postgresql: ensured table and %d unique indexes on %s", len(c.schema.Unique), c.name)
	return nil
}

func (c *Collection[T]) ddl() []string {
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, data JSONB NOT NULL)", c.table),
	}
	for _, field := range c.schema.Unique {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((data->>%s))",
			pq.QuoteIdentifier(indexName(c.name, field)), c.table, pq.QuoteLiteral(field),
		))
	}
	return stmts
}

func (c *Collection[T]) where(filter map[string]interface{}) (sq.Sqlizer, error) {
	cast, err := c.schema.CastFilter(c.opts.Scoped(filter))
	if err != nil {
		return nil, err
	}
	return c.compiler.where(cast)
}

func encode(doc interface{}) (string, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

func indexName(collection, field string) string {
	return collection + "_" + field + "_key"
}

func translateError(collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.ErrNoDocuments
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return duplicateKeyError(collection, pqErr)
	}
	return err
}
