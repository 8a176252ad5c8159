package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement audiences
const (
	AudienceAll        = "all"
	AudienceMembers    = "members"
	AudienceModerators = "moderators"
)

// ReadReceipt marks that a user has seen an announcement.
type ReadReceipt struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	ReadAt time.Time          `bson:"read_at" json:"read_at"`
}

type Announcement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`

	Author    primitive.ObjectID `bson:"author" json:"author"`
	Community primitive.ObjectID `bson:"community" json:"community"`

	Priority       string        `bson:"priority" json:"priority"` // low, medium, high, urgent
	IsPinned       bool          `bson:"is_pinned" json:"is_pinned"`
	ExpiresAt      *time.Time    `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	TargetAudience string        `bson:"target_audience" json:"target_audience"`
	ReadBy         []ReadReceipt `bson:"read_by,omitempty" json:"read_by,omitempty"`
	IsActive       bool          `bson:"is_active" json:"is_active"`
}

// Visible reports whether the announcement should still be shown.
func (a *Announcement) Visible(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return false
	}
	return true
}
