package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/manoj0727/Nexify-server/internal/database"
)

const (
	// AccessTokenDuration matches the original 6h admin/user sessions.
	AccessTokenDuration = 6 * time.Hour
	// RefreshTokenDuration is 7 days
	RefreshTokenDuration = 7 * 24 * time.Hour
	// RefreshKeyPrefix is the Redis key prefix for refresh tokens
	RefreshKeyPrefix = "refresh:"
	// UserRefreshKeyPrefix is the Redis key prefix for user->token mapping
	UserRefreshKeyPrefix = "user_refresh:"
)

// AccessClaims is the JWT payload for user and admin access tokens.
type AccessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewAccessToken mints a signed HS256 access token for a subject id.
func NewAccessToken(subjectID, role, secret string) (string, error) {
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates a token and returns its claims.
func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// CreateRefreshToken creates an opaque refresh token in Redis. An existing
// token for the user is invalidated first so the 7-day timer resets from
// the current login.
func CreateRefreshToken(userID string) (string, error) {
	InvalidateUserRefreshTokens(userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	refreshToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	tokenKey := RefreshKeyPrefix + refreshToken
	userKey := UserRefreshKeyPrefix + userID

	if err := database.RedisClient.Set(ctx, tokenKey, userID, RefreshTokenDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userKey, refreshToken, RefreshTokenDuration).Err(); err != nil {
		return "", err
	}

	return refreshToken, nil
}

// ValidateRefreshToken returns the owning user id for a live token.
func ValidateRefreshToken(refreshToken string) (string, bool) {
	if refreshToken == "" {
		return "", false
	}
	ctx := context.Background()
	userID, err := database.RedisClient.Get(ctx, RefreshKeyPrefix+refreshToken).Result()
	if err != nil || userID == "" {
		return "", false
	}
	return userID, true
}

// InvalidateRefreshToken removes a refresh token (logout).
func InvalidateRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	ctx := context.Background()
	tokenKey := RefreshKeyPrefix + refreshToken

	userID, err := database.RedisClient.Get(ctx, tokenKey).Result()
	if err == nil && userID != "" {
		database.RedisClient.Del(ctx, UserRefreshKeyPrefix+userID)
	}
	return database.RedisClient.Del(ctx, tokenKey).Err()
}

// InvalidateUserRefreshTokens drops the user's outstanding refresh token
// (password change, block, new login).
func InvalidateUserRefreshTokens(userID string) error {
	ctx := context.Background()
	userKey := UserRefreshKeyPrefix + userID

	refreshToken, err := database.RedisClient.Get(ctx, userKey).Result()
	if err == nil && refreshToken != "" {
		database.RedisClient.Del(ctx, RefreshKeyPrefix+refreshToken)
	}
	return database.RedisClient.Del(ctx, userKey).Err()
}
