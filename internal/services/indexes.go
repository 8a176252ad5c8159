package services

import (
	"context"
	"log"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the API depends on. Safe to run on
// every startup; Mongo treats existing identical indexes as no-ops.
func EnsureIndexes(ctx context.Context) error {
	ttlSeconds := int32(models.VerificationTTL.Seconds())

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"pendingregistrations": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "created_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(ttlSeconds),
			},
		},
		"emailverifications": {
			{
				Keys:    bson.D{{Key: "created_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(ttlSeconds),
			},
			{
				Keys: bson.D{{Key: "email", Value: 1}, {Key: "for", Value: 1}},
			},
		},
		"suspiciouslogins": {
			{
				Keys:    bson.D{{Key: "created_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(ttlSeconds),
			},
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "email", Value: 1}},
			},
		},
		"contexts": {
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
			},
		},
		"posts": {
			{
				Keys: bson.D{{Key: "community", Value: 1}, {Key: "created_at", Value: -1}},
			},
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
			},
			{
				Keys: bson.D{{Key: "content", Value: "text"}},
			},
		},
		"communities": {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"moderatoractions": {
			{
				Keys: bson.D{{Key: "community", Value: 1}, {Key: "created_at", Value: -1}},
			},
		},
		"automodrules": {
			{
				Keys: bson.D{{Key: "community", Value: 1}, {Key: "is_active", Value: 1}},
			},
		},
		"logs": {
			{
				Keys: bson.D{{Key: "timestamp", Value: -1}},
			},
		},
		"announcements": {
			{
				Keys: bson.D{{Key: "created_at", Value: -1}},
			},
		},
	}

	for collection, collectionIndexes := range indexes {
		if _, err := database.DB.Collection(collection).Indexes().CreateMany(ctx, collectionIndexes); err != nil {
			return err
		}
	}

	log.Println("✅ Database indexes ensured")
	return nil
}
