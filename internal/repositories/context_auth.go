package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/manoj0727/Nexify-server/internal/models"
)

// Collection names used by the context-auth flow.
const (
	ContextsCollection         = "contexts"
	SuspiciousLoginsCollection = "suspiciouslogins"
	VerificationsCollection    = "emailverifications"
)

// ContextRepo stores recognized device/location records.
type ContextRepo struct {
	col *mongo.Collection
}

func NewContextRepo(db *mongo.Database) *ContextRepo {
	return &ContextRepo{col: db.Collection(ContextsCollection)}
}

// FindByUser returns all context records for a user, newest first.
func (r *ContextRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserContext, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var contexts []models.UserContext
	if err := cur.All(ctx, &contexts); err != nil {
		return nil, err
	}
	return contexts, nil
}

func (r *ContextRepo) Insert(ctx context.Context, uc *models.UserContext) error {
	if uc.CreatedAt.IsZero() {
		uc.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, uc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		uc.ID = oid
	}
	return nil
}

// SuspiciousLoginRepo stores unresolved login challenges.
type SuspiciousLoginRepo struct {
	col *mongo.Collection
}

func NewSuspiciousLoginRepo(db *mongo.Database) *SuspiciousLoginRepo {
	return &SuspiciousLoginRepo{col: db.Collection(SuspiciousLoginsCollection)}
}

// FindByID returns nil, nil when no record exists.
func (r *SuspiciousLoginRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SuspiciousLogin, error) {
	var rec models.SuspiciousLogin
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByFingerprint returns the newest record for (user, fingerprint),
// or nil, nil when none exists.
func (r *SuspiciousLoginRepo) FindByFingerprint(ctx context.Context, userID primitive.ObjectID, fp models.Fingerprint) (*models.SuspiciousLogin, error) {
	filter := bson.M{
		"user":        userID,
		"ip":          fp.IP,
		"country":     fp.Country,
		"city":        fp.City,
		"device":      fp.Device,
		"device_type": fp.DeviceType,
		"browser":     fp.Browser,
		"os":          fp.OS,
		"platform":    fp.Platform,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var rec models.SuspiciousLogin
	err := r.col.FindOne(ctx, filter, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SuspiciousLoginRepo) Insert(ctx context.Context, sl *models.SuspiciousLogin) error {
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, sl)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		sl.ID = oid
	}
	return nil
}

// UpdateStatus transitions a record's status and trust/block flags.
func (r *SuspiciousLoginRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, trusted, blocked bool) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     status,
			"is_trusted": trusted,
			"is_blocked": blocked,
		},
	})
	return err
}

// VerificationRepo stores one-time verification codes.
type VerificationRepo struct {
	col *mongo.Collection
}

func NewVerificationRepo(db *mongo.Database) *VerificationRepo {
	return &VerificationRepo{col: db.Collection(VerificationsCollection)}
}

func (r *VerificationRepo) Insert(ctx context.Context, v *models.EmailVerification) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, v)
	return err
}

// Find returns the code record for (email, code, purpose), or nil, nil.
func (r *VerificationRepo) Find(ctx context.Context, email, code, purpose string) (*models.EmailVerification, error) {
	var v models.EmailVerification
	err := r.col.FindOne(ctx, bson.M{
		"email":             email,
		"verification_code": code,
		"for":               purpose,
	}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteByEmail removes every outstanding code for an email address.
func (r *VerificationRepo) DeleteByEmail(ctx context.Context, email, purpose string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"email": email, "for": purpose})
	return err
}
