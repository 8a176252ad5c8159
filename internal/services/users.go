package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"
)

// NormalizeEmail lower-cases and trims an email address. All email
// comparisons in the auth flow go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindUserByEmail returns nil, nil when no user exists.
func FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := database.DB.Collection("users").FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByID returns nil, nil when no user exists.
func FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := database.DB.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// InsertUser creates a user record and fills in its id.
func InsertUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleGeneral
	}

	res, err := database.DB.Collection("users").InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// UpdateUserFields applies a partial update to one user.
func UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	_, err := database.DB.Collection("users").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}

// CreatePendingRegistration stores a signup awaiting email verification.
// Any previous pending registration for the email is replaced.
func CreatePendingRegistration(ctx context.Context, pending *models.PendingRegistration) error {
	col := database.DB.Collection("pendingregistrations")
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now().UTC()
	}
	pending.Email = NormalizeEmail(pending.Email)

	if _, err := col.DeleteMany(ctx, bson.M{"email": pending.Email}); err != nil {
		return err
	}
	_, err := col.InsertOne(ctx, pending)
	return err
}

// FindPendingRegistration returns nil, nil when none exists.
func FindPendingRegistration(ctx context.Context, email string) (*models.PendingRegistration, error) {
	var pending models.PendingRegistration
	err := database.DB.Collection("pendingregistrations").FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&pending)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// DeletePendingRegistration removes the pending signup for an email.
func DeletePendingRegistration(ctx context.Context, email string) error {
	_, err := database.DB.Collection("pendingregistrations").DeleteMany(ctx, bson.M{"email": NormalizeEmail(email)})
	return err
}
