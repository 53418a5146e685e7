// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/platform/config"
)

func TestTranslateError(t *testing.T) {
	t.Run("no documents", func(t *testing.T) {
		assert.ErrorIs(t, translateError("tours", mongo.ErrNoDocuments), interfaces.ErrNoDocuments)
	})

	t.Run("duplicate key from keyValue", func(t *testing.T) {
		raw, err := bson.Marshal(bson.D{
			{Key: "code", Value: 11000},
			{Key: "keyValue", Value: bson.D{{Key: "name", Value: "The Forest Hiker"}}},
		})
		require.NoError(t, err)

		we := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: `E11000 duplicate key error collection: natours.tours index: name_1 dup key: { name: "The Forest Hiker" }`,
			Raw:     raw,
		}}}

		got := translateError("tours", we)
		var dup *apperror.DuplicateKeyError
		require.ErrorAs(t, got, &dup)
		assert.Equal(t, []apperror.KeyValue{{Key: "name", Value: "The Forest Hiker"}}, dup.Fields)

		resp := apperror.NewNormalizer(apperror.ModeRestricted).Normalize(got)
		assert.Equal(t, `Duplicate field value: "The Forest Hiker". Please use another value.`, resp.Message)
	})

	t.Run("duplicate key from message", func(t *testing.T) {
		we := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: `E11000 duplicate key error collection: natours.users index: email_1 dup key: { email: "admin@natours.io" }`,
		}}}

		var dup *apperror.DuplicateKeyError
		require.ErrorAs(t, translateError("users", we), &dup)
		assert.Equal(t, "admin@natours.io", dup.FirstValue())
	})

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		assert.Same(t, boom, translateError("tours", boom))
		assert.NoError(t, translateError("tours", nil))
	})
}

func TestFindOptions(t *testing.T) {
	skip, limit := int64(20), int64(10)
	opts, err := FindOptions(interfaces.QuerySpec{
		Sort:       "-price ratingsAverage",
		Projection: "name price",
		Skip:       &skip,
		Limit:      &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, bson.D{{Key: "price", Value: -1}, {Key: "ratingsAverage", Value: 1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}}, opts.Projection)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)

	opts, err = FindOptions(interfaces.QuerySpec{Projection: "-__v"})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "__v", Value: 0}}, opts.Projection)
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Skip)

	_, err = FindOptions(interfaces.QuerySpec{Projection: "name -price"})
	require.Error(t, err)
}

func TestFilterCastsAndScopes(t *testing.T) {
	schema := interfaces.Schema{Fields: map[string]interfaces.FieldKind{
		"active": interfaces.KindBool,
		"role":   interfaces.KindString,
		"tour":   interfaces.KindObjectID,
	}}
	c := &Collection[struct{}]{
		name:   "users",
		schema: schema,
		opts: interfaces.BuildOptions(interfaces.WithScope(map[string]interface{}{
			"active": map[string]interface{}{"$ne": false},
		})),
	}

	oid := primitive.NewObjectID()
	got, err := c.filter(map[string]interface{}{
		"role": []interface{}{"guide", "lead-guide"},
		"tour": oid.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"active": bson.M{"$ne": false},
		"role":   bson.M{"$in": bson.A{"guide", "lead-guide"}},
		"tour":   oid,
	}, got)

	_, err = c.filter(map[string]interface{}{"tour": "nope"})
	var castErr *apperror.CastError
	require.ErrorAs(t, err, &castErr)
}

func TestClientOptions(t *testing.T) {
	opts := ClientOptions(config.MongoDBConfig{
		URI:            "mongodb://localhost:27017",
		MaxPoolSize:    50,
		ConnectTimeout: 3 * time.Second,
	})
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(50), *opts.MaxPoolSize)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	assert.Nil(t, opts.MinPoolSize)
}
