package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseName(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017/nexify", "nexify"},
		{"mongodb://localhost:27017/staging?retryWrites=true", "staging"},
		{"mongodb+srv://app:pw@cluster0.mongodb.net/prod", "prod"},
		{"mongodb://localhost:27017", defaultDatabase},
		{"mongodb://localhost:27017/", defaultDatabase},
		{"mongodb://user:pw@localhost:27017", defaultDatabase},
		{"", defaultDatabase},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, databaseName(tc.uri), "uri %q", tc.uri)
	}
}
