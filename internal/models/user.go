package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleGeneral   = "general"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Warning is a moderation warning attached to a user.
type Warning struct {
	Reason   string             `bson:"reason" json:"reason"`
	IssuedBy primitive.ObjectID `bson:"issued_by,omitempty" json:"issued_by,omitempty"`
	IssuedAt time.Time          `bson:"issued_at" json:"issued_at"`
	Severity string             `bson:"severity" json:"severity"` // low, medium, high
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	Location  string `bson:"location,omitempty" json:"location,omitempty"`
	Bio       string `bson:"bio,omitempty" json:"bio,omitempty"`
	Interests string `bson:"interests,omitempty" json:"interests,omitempty"`

	Role string `bson:"role" json:"role"` // general, moderator, admin

	Followers  []primitive.ObjectID `bson:"followers,omitempty" json:"followers,omitempty"`
	Following  []primitive.ObjectID `bson:"following,omitempty" json:"following,omitempty"`
	SavedPosts []primitive.ObjectID `bson:"saved_posts,omitempty" json:"saved_posts,omitempty"`

	IsEmailVerified bool `bson:"is_email_verified" json:"is_email_verified"`

	// Moderation state
	Warnings        []Warning           `bson:"warnings,omitempty" json:"warnings,omitempty"`
	IsMuted         bool                `bson:"is_muted" json:"is_muted"`
	MutedBy         *primitive.ObjectID `bson:"muted_by,omitempty" json:"muted_by,omitempty"`
	MutedAt         *time.Time          `bson:"muted_at,omitempty" json:"muted_at,omitempty"`
	MuteExpiresAt   *time.Time          `bson:"mute_expires_at,omitempty" json:"mute_expires_at,omitempty"`
	IsTempBanned    bool                `bson:"is_temp_banned" json:"is_temp_banned"`
	TempBannedBy    *primitive.ObjectID `bson:"temp_banned_by,omitempty" json:"temp_banned_by,omitempty"`
	TempBanExpires  *time.Time          `bson:"temp_ban_expires_at,omitempty" json:"temp_ban_expires_at,omitempty"`
	TempBanReason   string              `bson:"temp_ban_reason,omitempty" json:"temp_ban_reason,omitempty"`

	// Platform verification badge
	IsVerified bool                `bson:"is_verified" json:"is_verified"`
	VerifiedBy *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
}

// MuteActive reports whether the user is currently muted (expiry respected).
func (u *User) MuteActive(now time.Time) bool {
	if !u.IsMuted {
		return false
	}
	if u.MuteExpiresAt != nil && now.After(*u.MuteExpiresAt) {
		return false
	}
	return true
}

// BanActive reports whether a temp ban is still in effect.
func (u *User) BanActive(now time.Time) bool {
	if !u.IsTempBanned {
		return false
	}
	if u.TempBanExpires != nil && now.After(*u.TempBanExpires) {
		return false
	}
	return true
}
