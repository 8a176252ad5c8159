package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Verification purposes. Signup codes are short numeric codes typed by the
// user; login codes reuse the suspicious-login record id embedded in the
// verify/block links.
const (
	VerificationSignup = "signup"
	VerificationLogin  = "login"
)

// VerificationTTL bounds the lifetime of verification codes, pending
// registrations and suspicious logins. The emailverifications,
// pendingregistrations and suspiciouslogins collections carry TTL indexes
// derived from this single window.
const VerificationTTL = 30 * time.Minute

// EmailVerification is a one-time verification code. Deleted after
// consumption or swept by the TTL index.
type EmailVerification struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	VerificationCode string             `bson:"verification_code" json:"verification_code"`
	MessageID        string             `bson:"message_id" json:"message_id"`
	For              string             `bson:"for" json:"for"` // signup or login
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// Expired reports whether the code is past the TTL window. The TTL index
// sweeps lazily, so readers must check age themselves.
func (e *EmailVerification) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > VerificationTTL
}

// PendingRegistration holds a signup until the email is verified, after
// which the real user record is created. Expires with the same window as
// the verification code.
type PendingRegistration struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"hashed_password" json:"-"`
	Role           string             `bson:"role" json:"role"`
	Avatar         string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
