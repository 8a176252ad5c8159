package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI       string
	RedisURI       string
	JWTSecret      string
	EncryptionKey  string
	Port           string
	ClientURL      string   // Base URL for verify/block links in emails
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or CLIENT_URL
	Host           string   // Raw HOST env (e.g. https://api.nexify.com)
	AllowedHost    string   // Hostname only for strict host check (production only)
	Environment    string   // ENV: production, development, etc.

	// Email (AWS SES). Email verification degrades gracefully when unset.
	AWSRegion    string
	EmailFrom    string
	EmailEnabled bool

	// Category filtering (admin preferences override these defaults)
	CategoryFilterProvider string
	CategoryFilterTimeout  time.Duration

	// TextRazor / classifier endpoints
	TextRazorAPIKey  string
	InterfaceAPIURL  string
	ClassifierAPIURL string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Optional bootstrap admin account seeded at startup when both are set.
	AdminUsername string
	AdminPassword string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:4000")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = stripToHostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("CLIENT_URL", "http://localhost:3000"), getEnv("CLIENT_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	timeoutSec, err := strconv.Atoi(getEnv("CATEGORY_FILTER_TIMEOUT", "10"))
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 10
	}

	emailFrom := getEnv("EMAIL_FROM", "")
	awsRegion := getEnv("AWS_REGION", "")

	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/nexify")),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:      getEnv("SECRET", "your-secret-key-change-in-production"),
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		Host:           host,
		AllowedHost:    allowedHost,
		Environment:    env,
		Port:           getEnv("PORT", "4000"),
		ClientURL:      getEnv("CLIENT_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,

		AWSRegion:    awsRegion,
		EmailFrom:    emailFrom,
		EmailEnabled: emailFrom != "" && awsRegion != "",

		CategoryFilterProvider: getEnv("CATEGORY_FILTER_PROVIDER", "disabled"),
		CategoryFilterTimeout:  time.Duration(timeoutSec) * time.Second,

		TextRazorAPIKey:  getEnv("TEXTRAZOR_API_KEY", ""),
		InterfaceAPIURL:  getEnv("INTERFACE_API_URL", ""),
		ClassifierAPIURL: getEnv("CLASSIFIER_API_URL", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// stripToHostname reduces a URL or host:port to the bare hostname.
func stripToHostname(s string) string {
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	if idx := strings.Index(s, "/"); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.Index(s, ":"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
