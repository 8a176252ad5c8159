package utils

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// Letters, digits and underscores, starting with a letter or digit.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]*$`)

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func usernameError(message string) error {
	return &ValidationError{Field: "username", Message: message}
}

// ValidateUsername enforces the admin username rules: 3 to 20
// characters, letters, digits and underscores, no leading underscore.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	switch {
	case len(username) < MinUsernameLength:
		return usernameError("Username must be at least 3 characters")
	case len(username) > MaxUsernameLength:
		return usernameError("Username must be at most 20 characters")
	case !usernamePattern.MatchString(username):
		if strings.HasPrefix(username, "_") {
			return usernameError("Username must start with a letter or number")
		}
		return usernameError("Username can only contain letters, numbers, and underscores")
	}
	return nil
}

// NormalizeUsername is the canonical form used for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
