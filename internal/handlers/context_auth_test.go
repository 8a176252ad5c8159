package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
)

type stubContextStore struct {
	inserted []models.UserContext
}

func (s *stubContextStore) FindByUser(context.Context, primitive.ObjectID) ([]models.UserContext, error) {
	return nil, nil
}

func (s *stubContextStore) Insert(_ context.Context, uc *models.UserContext) error {
	s.inserted = append(s.inserted, *uc)
	return nil
}

type stubSuspiciousStore struct {
	record *models.SuspiciousLogin
	status string
}

func (s *stubSuspiciousStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.SuspiciousLogin, error) {
	if s.record != nil && s.record.ID == id {
		cp := *s.record
		return &cp, nil
	}
	return nil, nil
}

func (s *stubSuspiciousStore) FindByFingerprint(context.Context, primitive.ObjectID, models.Fingerprint) (*models.SuspiciousLogin, error) {
	return nil, nil
}

func (s *stubSuspiciousStore) Insert(context.Context, *models.SuspiciousLogin) error {
	return nil
}

func (s *stubSuspiciousStore) UpdateStatus(_ context.Context, _ primitive.ObjectID, status string, _, _ bool) error {
	s.status = status
	return nil
}

type stubVerificationStore struct {
	token *models.EmailVerification
}

func (s *stubVerificationStore) Insert(context.Context, *models.EmailVerification) error {
	return nil
}

func (s *stubVerificationStore) Find(_ context.Context, email, code, purpose string) (*models.EmailVerification, error) {
	if s.token != nil && s.token.Email == email && s.token.VerificationCode == code && s.token.For == purpose {
		cp := *s.token
		return &cp, nil
	}
	return nil, nil
}

func (s *stubVerificationStore) DeleteByEmail(context.Context, string, string) error {
	return nil
}

// installChallenge wires the package-level context auth service with a
// single outstanding challenge and returns its id.
func installChallenge(t *testing.T, email string) (string, *stubContextStore, *stubSuspiciousStore) {
	t.Helper()

	id := primitive.NewObjectID()
	contexts := &stubContextStore{}
	suspicious := &stubSuspiciousStore{
		record: &models.SuspiciousLogin{
			ID:     id,
			UserID: primitive.NewObjectID(),
			Email:  email,
			Status: models.SuspiciousEmailSent,
		},
	}
	codes := &stubVerificationStore{
		token: &models.EmailVerification{
			Email:            email,
			VerificationCode: id.Hex(),
			For:              models.VerificationLogin,
			CreatedAt:        time.Now(),
		},
	}

	contextAuth = services.NewContextAuthService(contexts, suspicious, codes, nil, "https://app.example.com")
	return id.Hex(), contexts, suspicious
}

func linkRequest(path, id, email string) *http.Request {
	q := url.Values{}
	q.Set("id", id)
	q.Set("email", email)
	return httptest.NewRequest(http.MethodGet, path+"?"+q.Encode(), nil)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestVerifyLoginHandlerPromotesContext(t *testing.T) {
	id, contexts, suspicious := installChallenge(t, "riya@example.com")

	rec := httptest.NewRecorder()
	VerifyLogin(rec, linkRequest("/api/auth/verify-login", id, "riya@example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	require.Len(t, contexts.inserted, 1)
	assert.True(t, contexts.inserted[0].IsTrusted)
	assert.Equal(t, models.SuspiciousVerified, suspicious.status)
}

func TestVerifyLoginHandlerRequiresValidQuery(t *testing.T) {
	id, _, _ := installChallenge(t, "riya@example.com")

	tests := []struct {
		name  string
		id    string
		email string
	}{
		{"missing id", "", "riya@example.com"},
		{"short id", "abc123", "riya@example.com"},
		{"non hex id", "zzzzzzzzzzzzzzzzzzzzzzzz", "riya@example.com"},
		{"missing email", id, ""},
		{"malformed email", id, "not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			VerifyLogin(rec, linkRequest("/api/auth/verify-login", tt.id, tt.email))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestVerifyLoginHandlerRejectsWrongEmail(t *testing.T) {
	id, contexts, _ := installChallenge(t, "riya@example.com")

	rec := httptest.NewRecorder()
	VerifyLogin(rec, linkRequest("/api/auth/verify-login", id, "attacker@example.com"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid verification link", resp.Message)
	assert.Empty(t, contexts.inserted)
}

func TestVerifyLoginHandlerRejectsUnknownID(t *testing.T) {
	installChallenge(t, "riya@example.com")

	rec := httptest.NewRecorder()
	VerifyLogin(rec, linkRequest("/api/auth/verify-login", primitive.NewObjectID().Hex(), "riya@example.com"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockLoginHandlerBlocksDevice(t *testing.T) {
	id, contexts, suspicious := installChallenge(t, "riya@example.com")

	rec := httptest.NewRecorder()
	BlockLogin(rec, linkRequest("/api/auth/block-login", id, "riya@example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SuspiciousBlocked, suspicious.status)

	// Blocking must not create a trusted context.
	assert.Empty(t, contexts.inserted)
}

func TestBlockLoginHandlerNormalizesEmail(t *testing.T) {
	id, _, suspicious := installChallenge(t, "riya@example.com")

	rec := httptest.NewRecorder()
	BlockLogin(rec, linkRequest("/api/auth/block-login", id, "  RIYA@Example.com "))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SuspiciousBlocked, suspicious.status)
}
