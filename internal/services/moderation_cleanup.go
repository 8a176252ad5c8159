package services

import (
	"context"
	"log"
	"time"

	"github.com/manoj0727/Nexify-server/internal/database"

	"go.mongodb.org/mongo-driver/bson"
)

// ClearExpiredModeration lifts mutes and temp bans whose expiry has
// passed. Handlers also check expiries in-line, so this only keeps the
// stored flags from drifting.
func ClearExpiredModeration(ctx context.Context) (int64, error) {
	now := time.Now()
	users := database.DB.Collection("users")

	var cleared int64

	res, err := users.UpdateMany(ctx,
		bson.M{"is_muted": true, "mute_expires_at": bson.M{"$lte": now}},
		bson.M{
			"$set":   bson.M{"is_muted": false},
			"$unset": bson.M{"muted_by": "", "muted_at": "", "mute_expires_at": ""},
		},
	)
	if err != nil {
		return cleared, err
	}
	cleared += res.ModifiedCount

	res, err = users.UpdateMany(ctx,
		bson.M{"is_temp_banned": true, "temp_ban_expires_at": bson.M{"$lte": now}},
		bson.M{
			"$set":   bson.M{"is_temp_banned": false},
			"$unset": bson.M{"temp_banned_by": "", "temp_ban_expires_at": "", "temp_ban_reason": ""},
		},
	)
	if err != nil {
		return cleared, err
	}
	cleared += res.ModifiedCount

	return cleared, nil
}

// StartModerationCleanup runs ClearExpiredModeration on an interval.
func StartModerationCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			cleared, err := ClearExpiredModeration(ctx)
			cancel()
			if err != nil {
				log.Printf("⚠️ Moderation cleanup failed: %v", err)
				continue
			}
			if cleared > 0 {
				log.Printf("✅ Moderation cleanup lifted %d expired restrictions", cleared)
			}
		}
	}()
}
