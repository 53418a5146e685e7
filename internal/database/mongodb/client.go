// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/qolzam/natours/internal/platform/config"
)

// Client owns the driver connection and the selected database.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, cfg config.MongoDBConfig) (*Client, error) {
	clientOptions := ClientOptions(cfg)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// ClientOptions maps the configuration onto driver options.
func ClientOptions(cfg config.MongoDBConfig) *options.ClientOptions {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.ConnectTimeout > 0 {
		clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
		clientOptions.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(cfg.MaxIdleTime)
	}
	return clientOptions
}

func (c *Client) Database() *mongo.Database {
	return c.database
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
