package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomRule is a community-specific rule shown to members.
type CustomRule struct {
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	CreatedBy   primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ModerationSettings controls how posts enter a community.
type ModerationSettings struct {
	RequireApproval bool `bson:"require_approval" json:"require_approval"`
	AutoModeration  bool `bson:"auto_moderation" json:"auto_moderation"`
	AllowLinks      bool `bson:"allow_links" json:"allow_links"`
	MinPostLength   int  `bson:"min_post_length" json:"min_post_length"`
	MaxPostLength   int  `bson:"max_post_length" json:"max_post_length"`
}

// CommunityAnalytics holds running counters maintained by the service layer.
type CommunityAnalytics struct {
	TotalPosts       int64 `bson:"total_posts" json:"total_posts"`
	ActiveMembers    int64 `bson:"active_members" json:"active_members"`
	ModeratorActions int64 `bson:"moderator_actions" json:"moderator_actions"`
}

type Community struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Banner      string `bson:"banner,omitempty" json:"banner,omitempty"`

	Moderators  []primitive.ObjectID `bson:"moderators,omitempty" json:"moderators,omitempty"`
	Members     []primitive.ObjectID `bson:"members,omitempty" json:"members,omitempty"`
	BannedUsers []primitive.ObjectID `bson:"banned_users,omitempty" json:"banned_users,omitempty"`

	CustomRules        []CustomRule       `bson:"custom_rules,omitempty" json:"custom_rules,omitempty"`
	ModerationSettings ModerationSettings `bson:"moderation_settings" json:"moderation_settings"`
	Analytics          CommunityAnalytics `bson:"analytics" json:"analytics"`
}

// HasModerator reports whether userID moderates this community.
func (c *Community) HasModerator(userID primitive.ObjectID) bool {
	for _, m := range c.Moderators {
		if m == userID {
			return true
		}
	}
	return false
}

// HasMember reports whether userID is a member of this community.
func (c *Community) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsBanned reports whether userID is banned from this community.
func (c *Community) IsBanned(userID primitive.ObjectID) bool {
	for _, b := range c.BannedUsers {
		if b == userID {
			return true
		}
	}
	return false
}
