package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Moderator action types recorded in the audit trail.
const (
	ActionPinPost     = "pin_post"
	ActionUnpinPost   = "unpin_post"
	ActionLockPost    = "lock_post"
	ActionUnlockPost  = "unlock_post"
	ActionEditContent = "edit_content"
	ActionApprovePost = "approve_post"
	ActionRejectPost  = "reject_post"
	ActionDeletePost  = "delete_post"
	ActionWarnUser    = "warn_user"
	ActionMuteUser    = "mute_user"
	ActionUnmuteUser  = "unmute_user"
	ActionTempBan     = "temp_ban"
	ActionUnbanUser   = "unban_user"
	ActionVerifyUser  = "verify_user"
	ActionUnverify    = "unverify_user"
)

// ActionDetails captures before/after values for reversible actions.
type ActionDetails struct {
	OriginalValue string `bson:"original_value,omitempty" json:"original_value,omitempty"`
	NewValue      string `bson:"new_value,omitempty" json:"new_value,omitempty"`
	Duration      int    `bson:"duration,omitempty" json:"duration,omitempty"` // minutes (mute) or hours (ban)
}

// ModeratorAction is one entry in the moderation audit log.
type ModeratorAction struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Moderator  primitive.ObjectID  `bson:"moderator" json:"moderator"`
	Action     string              `bson:"action" json:"action"`
	TargetType string              `bson:"target_type" json:"target_type"` // post or user
	TargetID   primitive.ObjectID  `bson:"target_id" json:"target_id"`
	Community  *primitive.ObjectID `bson:"community,omitempty" json:"community,omitempty"`
	Reason     string              `bson:"reason,omitempty" json:"reason,omitempty"`
	Details    ActionDetails       `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
