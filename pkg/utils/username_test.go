package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "admin_01", false},
		{"minimum length", "abc", false},
		{"too short", "ab", true},
		{"too long", "this_username_is_way_too_long", true},
		{"illegal characters", "admin!", true},
		{"spaces", "ad min", true},
		{"leading underscore", "_admin", true},
		{"digits first", "1admin", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "admin_01", NormalizeUsername("  Admin_01 "))
}
