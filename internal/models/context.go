package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fingerprint is the device/location tuple derived from a request. Two
// logins are considered to come from the same place when every field is
// equal.
type Fingerprint struct {
	IP         string `bson:"ip" json:"ip"`
	Country    string `bson:"country" json:"country"`
	City       string `bson:"city" json:"city"`
	Device     string `bson:"device" json:"device"`
	DeviceType string `bson:"device_type" json:"device_type"`
	Browser    string `bson:"browser" json:"browser"`
	OS         string `bson:"os" json:"os"`
	Platform   string `bson:"platform" json:"platform"`
}

// Equal compares all fingerprint fields.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}

// UserContext is a recognized device/location for a user. Created on a
// verified login (or the user's first login). Immutable except the
// trust/block flags.
type UserContext struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"user"`
	Email       string             `bson:"email" json:"email"`
	Fingerprint `bson:",inline"`
	IsTrusted   bool      `bson:"is_trusted" json:"is_trusted"`
	IsBlocked   bool      `bson:"is_blocked" json:"is_blocked"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Suspicious login statuses. A record is unresolved while in created,
// email_sent or email_failed; verified and blocked are terminal.
const (
	SuspiciousCreated     = "created"
	SuspiciousEmailSent   = "email_sent"
	SuspiciousEmailFailed = "email_failed"
	SuspiciousVerified    = "verified"
	SuspiciousBlocked     = "blocked"
)

// SuspiciousLogin is a login attempt from an unrecognized fingerprint,
// pending user confirmation via the emailed verify/block links. Records
// expire with the verification token (TTL index on created_at).
type SuspiciousLogin struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"user"`
	Email       string             `bson:"email" json:"email"`
	Fingerprint `bson:",inline"`
	Status      string    `bson:"status" json:"status"`
	IsTrusted   bool      `bson:"is_trusted" json:"is_trusted"`
	IsBlocked   bool      `bson:"is_blocked" json:"is_blocked"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Resolved reports whether the record has reached a terminal state.
func (s *SuspiciousLogin) Resolved() bool {
	return s.Status == SuspiciousVerified || s.Status == SuspiciousBlocked
}
