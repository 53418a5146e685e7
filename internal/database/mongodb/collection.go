// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/pkg/log"
)

// Collection stores documents of type T in one MongoDB collection.
type Collection[T any] struct {
	coll   *mongo.Collection
	name   string
	schema interfaces.Schema
	opts   interfaces.Options
}

var _ interfaces.Collection[struct{}] = (*Collection[struct{}])(nil)

func NewCollection[T any](db *mongo.Database, name string, schema interfaces.Schema, opts ...interfaces.Option) *Collection[T] {
	return &Collection[T]{
		coll:   db.Collection(name),
		name:   name,
		schema: schema,
		opts:   interfaces.BuildOptions(opts...),
	}
}

func (c *Collection[T]) Name() string              { return c.name }
func (c *Collection[T]) Schema() interfaces.Schema { return c.schema }

func (c *Collection[T]) Query() interfaces.Query[T] {
	return interfaces.NewQuery[T](c)
}

// FindMany runs a pipeline query.
func (c *Collection[T]) FindMany(ctx context.Context, spec interfaces.QuerySpec) ([]T, error) {
	filter, err := c.filter(spec.Filter)
	if err != nil {
		return nil, err
	}
	findOptions, err := FindOptions(spec)
	if err != nil {
		return nil, err
	}

	cursor, err := c.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, translateError(c.name, err)
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(c.name, err)
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
	f, err := c.filter(filter)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := c.coll.FindOne(ctx, f).Decode(&doc); err != nil {
		return nil, translateError(c.name, err)
	}
	return &doc, nil
}

func (c *Collection[T]) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	f, err := c.filter(filter)
	if err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, f)
	return n, translateError(c.name, err)
}

func (c *Collection[T]) Create(ctx context.Context, doc *T) error {
	if _, err := interfaces.Prepare(doc); err != nil {
		return err
	}
	_, err := c.coll.InsertOne(ctx, doc)
	return translateError(c.name, err)
}

func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		if _, err := interfaces.Prepare(doc); err != nil {
			return err
		}
		batch = append(batch, doc)
	}
	_, err := c.coll.InsertMany(ctx, batch)
	return translateError(c.name, err)
}

func (c *Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	if _, err := interfaces.Prepare(doc); err != nil {
		return err
	}
	filter, err := c.filter(map[string]interface{}{"_id": id})
	if err != nil {
		return err
	}
	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return translateError(c.name, err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNoDocuments
	}
	return nil
}

func (c *Collection[T]) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	filter, err := c.filter(map[string]interface{}{"_id": id})
	if err != nil {
		return err
	}
	res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return translateError(c.name, err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNoDocuments
	}
	return nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := interfaces.ParseObjectID(id)
	if err != nil {
		return err
	}
	filter, err := c.filter(map[string]interface{}{"_id": oid})
	if err != nil {
		return err
	}
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return translateError(c.name, err)
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNoDocuments
	}
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, filter map[string]interface{}) (int64, error) {
	f, err := c.schema.CastFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.coll.DeleteMany(ctx, bson.M(f))
	if err != nil {
		return 0, translateError(c.name, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates one unique index per unique field.
func (c *Collection[T]) EnsureIndexes(ctx context.Context) error {
	if len(c.schema.Unique) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(c.schema.Unique))
	for _, field := range c.schema.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_1"),
		})
	}
	names, err := c.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", c.name, err)
	}
	log.Info("mongodb: ensured indexes %v on %s", names, c.name)
	return nil
}

func (c *Collection[T]) filter(filter map[string]interface{}) (bson.M, error) {
	cast, err := c.schema.CastFilter(c.opts.Scoped(filter))
	if err != nil {
		return nil, err
	}
	return toBSON(cast), nil
}

// toBSON converts the nested maps and slices produced by casting into driver types.
func toBSON(filter map[string]interface{}) bson.M {
	out := make(bson.M, len(filter))
	for k, v := range filter {
		out[k] = bsonValue(v)
	}
	return out
}

func bsonValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return toBSON(t)
	case []interface{}:
		arr := make(bson.A, 0, len(t))
		for _, item := range t {
			arr = append(arr, bsonValue(item))
		}
		return arr
	}
	return v
}

// FindOptions translates sort, projection and paging into driver options.
func FindOptions(spec interfaces.QuerySpec) (*options.FindOptions, error) {
	findOptions := options.Find()

	if sortFields := interfaces.ParseSort(spec.Sort); len(sortFields) > 0 {
		sort := make(bson.D, 0, len(sortFields))
		for _, f := range sortFields {
			dir := 1
			if f.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: f.Field, Value: dir})
		}
		findOptions.SetSort(sort)
	}

	projection, err := interfaces.ParseProjection(spec.Projection)
	if err != nil {
		return nil, err
	}
	if !projection.IsZero() {
		proj := bson.D{}
		for _, f := range projection.Include {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		for _, f := range projection.Exclude {
			proj = append(proj, bson.E{Key: f, Value: 0})
		}
		if projection.ExcludeID {
			proj = append(proj, bson.E{Key: "_id", Value: 0})
		}
		findOptions.SetProjection(proj)
	}

	if spec.Skip != nil {
		findOptions.SetSkip(*spec.Skip)
	}
	if spec.Limit != nil {
		findOptions.SetLimit(*spec.Limit)
	}
	return findOptions, nil
}
