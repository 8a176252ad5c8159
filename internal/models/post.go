package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post moderation states
const (
	ModerationApproved = "approved"
	ModerationPending  = "pending"
	ModerationRejected = "rejected"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Content  string `bson:"content" json:"content"`
	FileURL  string `bson:"file_url,omitempty" json:"file_url,omitempty"`
	FileType string `bson:"file_type,omitempty" json:"file_type,omitempty"`

	Community primitive.ObjectID   `bson:"community" json:"community"`
	User      primitive.ObjectID   `bson:"user" json:"user"`
	Likes     []primitive.ObjectID `bson:"likes,omitempty" json:"likes,omitempty"`

	// Moderation
	IsPinned         bool                `bson:"is_pinned" json:"is_pinned"`
	IsLocked         bool                `bson:"is_locked" json:"is_locked"`
	PinnedBy         *primitive.ObjectID `bson:"pinned_by,omitempty" json:"pinned_by,omitempty"`
	PinnedAt         *time.Time          `bson:"pinned_at,omitempty" json:"pinned_at,omitempty"`
	LockedBy         *primitive.ObjectID `bson:"locked_by,omitempty" json:"locked_by,omitempty"`
	LockedAt         *time.Time          `bson:"locked_at,omitempty" json:"locked_at,omitempty"`
	EditedBy         *primitive.ObjectID `bson:"edited_by,omitempty" json:"edited_by,omitempty"`
	EditedAt         *time.Time          `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	OriginalContent  string              `bson:"original_content,omitempty" json:"original_content,omitempty"`
	ModerationStatus string              `bson:"moderation_status" json:"moderation_status"`
	ModeratorNotes   string              `bson:"moderator_notes,omitempty" json:"moderator_notes,omitempty"`
	Categories       []string            `bson:"categories,omitempty" json:"categories,omitempty"`
}

// HasLike reports whether userID already liked the post.
func (p *Post) HasLike(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == userID {
			return true
		}
	}
	return false
}
