package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"settingsapi/internal/config"
)

// NewMongo connects to MongoDB and returns the settings collection once the primary answers a ping.
// The caller owns the returned client and must Disconnect it on shutdown.
func NewMongo(c config.MongoConfig) (*mongo.Client, *mongo.Collection, error) {
	if c.URI == "" {
		return nil, nil, errors.New("invalid mongo config: MONGO_URI is required")
	}
	if c.Database == "" || c.Collection == "" {
		return nil, nil, errors.New("invalid mongo config: database and collection are required")
	}

	timeout := time.Duration(c.ConnectTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(c.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(c.Database).Collection(c.Collection), nil
}
