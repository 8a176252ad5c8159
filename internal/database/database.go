package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDatabase  = "nexify"
	connectTimeout   = 30 * time.Second
	serverSelTimeout = 10 * time.Second
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

// Connect dials MongoDB, verifies the deployment with a ping and binds
// the package-level handles the rest of the app reads.
func Connect(mongoURI string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(serverSelTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	Client = client
	DB = client.Database(databaseName(mongoURI))
	log.Println("✅ Connected to MongoDB")
	return nil
}

// databaseName pulls the database segment out of a connection URI,
// falling back to the default when the URI names none.
func databaseName(uri string) string {
	if i := strings.Index(uri, "?"); i >= 0 {
		uri = uri[:i]
	}
	i := strings.LastIndex(uri, "/")
	if i < 0 {
		return defaultDatabase
	}
	name := uri[i+1:]
	// "mongodb://host:27017" leaves host:port after the scheme slashes.
	if name == "" || strings.ContainsAny(name, ":@") {
		return defaultDatabase
	}
	return name
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), serverSelTimeout)
	defer cancel()
	return Client.Disconnect(ctx)
}
