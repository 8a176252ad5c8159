package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutoMod rule types
const (
	RuleKeywordFilter = "keyword_filter"
	RuleLengthLimit   = "length_limit"
	RuleLinkFilter    = "link_filter"
	RuleCapsFilter    = "caps_filter"
)

// AutoMod actions taken when a rule matches.
const (
	AutoModFlag            = "flag"
	AutoModRemove          = "auto_remove"
	AutoModRequireApproval = "require_approval"
)

// RuleConditions holds the per-type match parameters. Only the fields
// relevant to the rule's type are consulted.
type RuleConditions struct {
	Keywords       []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
	MinLength      int      `bson:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength      int      `bson:"max_length,omitempty" json:"max_length,omitempty"`
	AllowedDomains []string `bson:"allowed_domains,omitempty" json:"allowed_domains,omitempty"`
	BlockedDomains []string `bson:"blocked_domains,omitempty" json:"blocked_domains,omitempty"`
	CapsThreshold  float64  `bson:"caps_threshold,omitempty" json:"caps_threshold,omitempty"` // 0..1 fraction of upper-case letters
}

// AutoModRule is a per-community automatic moderation rule evaluated on
// post creation.
type AutoModRule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name      string             `bson:"name" json:"name"`
	Community primitive.ObjectID `bson:"community" json:"community"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`

	RuleType   string         `bson:"rule_type" json:"rule_type"`
	Conditions RuleConditions `bson:"conditions" json:"conditions"`
	Action     string         `bson:"action" json:"action"`

	IsActive       bool       `bson:"is_active" json:"is_active"`
	TriggeredCount int64      `bson:"triggered_count" json:"triggered_count"`
	LastTriggered  *time.Time `bson:"last_triggered,omitempty" json:"last_triggered,omitempty"`
}
