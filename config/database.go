package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo dials the document store and verifies it is reachable. The
// caller owns the returned client; nothing here is a package singleton.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	slog.Info("connecting to MongoDB", "uri", uri)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("connected to MongoDB")
	return client, nil
}
