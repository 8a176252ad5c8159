package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is a platform administrator. Admin accounts live in their own
// collection and are created directly in the database, not via signup.
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Category filter providers selectable from admin preferences.
const (
	ProviderTextRazor     = "TextRazor"
	ProviderInterfaceAPI  = "InterfaceAPI"
	ProviderClassifierAPI = "ClassifierAPI"
	ProviderDisabled      = "disabled"
)

// ServiceConfig is the singleton system-preferences document.
type ServiceConfig struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryFilterProvider   string             `bson:"category_filter_provider" json:"category_filter_provider"`
	CategoryFilterTimeoutSec int                `bson:"category_filter_timeout_sec" json:"category_filter_timeout_sec"`
	UpdatedAt                time.Time          `bson:"updated_at" json:"updated_at"`
}

// Log levels and types for the persisted audit log.
const (
	LogTypeSignIn = "sign in"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log is one persisted audit entry. Sign-in entries carry the login
// context encrypted with AES-GCM; other entries have Context empty.
type Log struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Context   string             `bson:"context,omitempty" json:"context,omitempty"`
	Message   string             `bson:"message" json:"message"`
	Type      string             `bson:"type" json:"type"`
	Level     string             `bson:"level" json:"level"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
