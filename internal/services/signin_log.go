package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordSignIn persists a sign-in audit entry. The device and location
// context is encrypted at rest with AES-GCM. Runs in the background so a
// slow write never delays the login response.
func RecordSignIn(email string, fp models.Fingerprint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		contextJSON, err := json.Marshal(fp)
		if err != nil {
			log.Printf("⚠️ Failed to marshal sign-in context: %v", err)
			return
		}

		encrypted, err := utils.Encrypt(string(contextJSON))
		if err != nil {
			log.Printf("⚠️ Failed to encrypt sign-in context: %v", err)
			return
		}

		entry := models.Log{
			Email:     email,
			Context:   encrypted,
			Message:   fmt.Sprintf("%s attempted a sign in", email),
			Type:      models.LogTypeSignIn,
			Level:     models.LogLevelInfo,
			Timestamp: time.Now(),
		}

		if _, err := database.DB.Collection("logs").InsertOne(ctx, entry); err != nil {
			log.Printf("⚠️ Failed to persist sign-in log: %v", err)
		}
	}()
}

// DecryptedLog is a log entry with its context decoded for admin viewing.
type DecryptedLog struct {
	models.Log
	ContextData *models.Fingerprint `json:"context_data,omitempty"`
}

// ListLogs returns a page of audit entries, newest first, with sign-in
// contexts decrypted. Entries whose context fails to decrypt are returned
// with ContextData nil rather than dropped.
func ListLogs(ctx context.Context, page, limit int64) ([]DecryptedLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	collection := database.DB.Collection("logs")

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}

	var entries []models.Log
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}

	out := make([]DecryptedLog, 0, len(entries))
	for _, entry := range entries {
		decrypted := DecryptedLog{Log: entry}
		if entry.Context != "" {
			plaintext, err := utils.Decrypt(entry.Context)
			if err == nil {
				var fp models.Fingerprint
				if json.Unmarshal([]byte(plaintext), &fp) == nil {
					decrypted.ContextData = &fp
				}
			}
		}
		// The raw ciphertext is not useful to the caller.
		decrypted.Context = ""
		out = append(out, decrypted)
	}
	return out, total, nil
}

// DeleteAllLogs clears the audit log and returns how many entries were removed.
func DeleteAllLogs(ctx context.Context) (int64, error) {
	result, err := database.DB.Collection("logs").DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
