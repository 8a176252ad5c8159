package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID().Hex()

	token, err := NewAccessToken(userID, models.RoleGeneral, "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, models.RoleGeneral, claims.Role)
	assert.WithinDuration(t, time.Now().Add(AccessTokenDuration), claims.ExpiresAt.Time, time.Minute)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := NewAccessToken(primitive.NewObjectID().Hex(), models.RoleAdmin, "right-secret")
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "wrong-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	claims := AccessClaims{
		Role: models.RoleGeneral,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * AccessTokenDuration)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "test-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsUnexpectedAlgorithm(t *testing.T) {
	// An unsigned token must never validate, even with a matching payload.
	claims := jwt.MapClaims{"sub": primitive.NewObjectID().Hex(), "role": models.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "test-secret")
	assert.Error(t, err)
}
