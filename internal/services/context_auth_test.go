package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
)

type memContextStore struct {
	contexts []models.UserContext
	findErr  error
}

func (m *memContextStore) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.UserContext, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.UserContext
	for _, c := range m.contexts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContextStore) Insert(_ context.Context, uc *models.UserContext) error {
	if uc.ID.IsZero() {
		uc.ID = primitive.NewObjectID()
	}
	m.contexts = append(m.contexts, *uc)
	return nil
}

type memSuspiciousStore struct {
	records map[primitive.ObjectID]*models.SuspiciousLogin
}

func newMemSuspiciousStore() *memSuspiciousStore {
	return &memSuspiciousStore{records: make(map[primitive.ObjectID]*models.SuspiciousLogin)}
}

func (m *memSuspiciousStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.SuspiciousLogin, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memSuspiciousStore) FindByFingerprint(_ context.Context, userID primitive.ObjectID, fp models.Fingerprint) (*models.SuspiciousLogin, error) {
	for _, rec := range m.records {
		if rec.UserID == userID && rec.Fingerprint.Equal(fp) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSuspiciousStore) Insert(_ context.Context, sl *models.SuspiciousLogin) error {
	if sl.ID.IsZero() {
		sl.ID = primitive.NewObjectID()
	}
	cp := *sl
	m.records[sl.ID] = &cp
	return nil
}

func (m *memSuspiciousStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status string, trusted, blocked bool) error {
	rec, ok := m.records[id]
	if !ok {
		return errors.New("record not found")
	}
	rec.Status = status
	rec.IsTrusted = trusted
	rec.IsBlocked = blocked
	return nil
}

type memVerificationStore struct {
	codes []models.EmailVerification
}

func (m *memVerificationStore) Insert(_ context.Context, v *models.EmailVerification) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.codes = append(m.codes, *v)
	return nil
}

func (m *memVerificationStore) Find(_ context.Context, email, code, purpose string) (*models.EmailVerification, error) {
	for _, c := range m.codes {
		if c.Email == email && c.VerificationCode == code && c.For == purpose {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memVerificationStore) DeleteByEmail(_ context.Context, email, purpose string) error {
	kept := m.codes[:0]
	for _, c := range m.codes {
		if c.Email != email || c.For != purpose {
			kept = append(kept, c)
		}
	}
	m.codes = kept
	return nil
}

type fakeEmailSender struct {
	loginCalls int
	lastVerify string
	lastBlock  string
	sendErr    error
}

func (f *fakeEmailSender) SendLoginVerification(_ context.Context, to, name, verifyLink, blockLink string, fp models.Fingerprint) (string, error) {
	f.loginCalls++
	f.lastVerify = verifyLink
	f.lastBlock = blockLink
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "msg-123", nil
}

func (f *fakeEmailSender) SendSignupVerification(_ context.Context, to, name, code, link string) (string, error) {
	return "msg-456", nil
}

type authFixture struct {
	svc        *ContextAuthService
	contexts   *memContextStore
	suspicious *memSuspiciousStore
	codes      *memVerificationStore
	sender     *fakeEmailSender
	user       *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	contexts := &memContextStore{}
	suspicious := newMemSuspiciousStore()
	codes := &memVerificationStore{}
	sender := &fakeEmailSender{}

	return &authFixture{
		svc:        NewContextAuthService(contexts, suspicious, codes, sender, "https://app.example.com"),
		contexts:   contexts,
		suspicious: suspicious,
		codes:      codes,
		sender:     sender,
		user: &models.User{
			ID:    primitive.NewObjectID(),
			Name:  "Riya",
			Email: "riya@example.com",
		},
	}
}

func sampleFingerprint() models.Fingerprint {
	return models.Fingerprint{
		IP:         "203.0.113.7",
		Country:    "IN",
		City:       "Pune",
		Device:     "iPhone",
		DeviceType: "mobile",
		Browser:    "Safari",
		OS:         "iOS",
		Platform:   "iPhone",
	}
}

func TestMatchContextFirstLoginAutoTrusts(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	matched, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, fp)
	require.NoError(t, err)
	assert.True(t, matched)

	require.Len(t, f.contexts.contexts, 1)
	saved := f.contexts.contexts[0]
	assert.True(t, saved.IsTrusted)
	assert.False(t, saved.IsBlocked)
	assert.Equal(t, fp, saved.Fingerprint)
	assert.Equal(t, f.user.Email, saved.Email)
}

func TestMatchContextRecognizesTrustedFingerprint(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	_, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, fp)
	require.NoError(t, err)

	matched, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, fp)
	require.NoError(t, err)
	assert.True(t, matched)

	// No duplicate context for a recognized fingerprint.
	assert.Len(t, f.contexts.contexts, 1)
}

func TestMatchContextRejectsUnknownFingerprint(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, sampleFingerprint())
	require.NoError(t, err)

	other := sampleFingerprint()
	other.City = "Mumbai"
	other.IP = "198.51.100.9"

	matched, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, other)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchContextIgnoresBlockedContext(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	f.contexts.contexts = append(f.contexts.contexts, models.UserContext{
		ID:          primitive.NewObjectID(),
		UserID:      f.user.ID,
		Email:       f.user.Email,
		Fingerprint: fp,
		IsTrusted:   true,
		IsBlocked:   true,
	})

	matched, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, fp)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestChallengeLoginSendsVerificationEmail(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)

	assert.True(t, res.EmailSent)
	assert.False(t, res.RequiresManualVerification)
	assert.NotEmpty(t, res.SuspiciousLoginID)
	assert.Equal(t, 1, f.sender.loginCalls)
	assert.Contains(t, f.sender.lastVerify, "/verify-login?id="+res.SuspiciousLoginID)
	assert.Contains(t, f.sender.lastBlock, "/block-device?id="+res.SuspiciousLoginID)

	oid, err := primitive.ObjectIDFromHex(res.SuspiciousLoginID)
	require.NoError(t, err)
	rec, err := f.suspicious.FindByID(context.Background(), oid)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.SuspiciousEmailSent, rec.Status)

	token, err := f.codes.Find(context.Background(), f.user.Email, res.SuspiciousLoginID, models.VerificationLogin)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "msg-123", token.MessageID)
}

func TestChallengeLoginDegradesWhenEmailFails(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.sendErr = errors.New("ses unavailable")

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, sampleFingerprint())
	require.NoError(t, err)

	assert.False(t, res.EmailSent)
	assert.True(t, res.RequiresManualVerification)

	oid, _ := primitive.ObjectIDFromHex(res.SuspiciousLoginID)
	rec, _ := f.suspicious.FindByID(context.Background(), oid)
	require.NotNil(t, rec)
	assert.Equal(t, models.SuspiciousEmailFailed, rec.Status)
}

func TestChallengeLoginWithoutSenderRequiresManualVerification(t *testing.T) {
	f := newAuthFixture(t)
	f.svc = NewContextAuthService(f.contexts, f.suspicious, f.codes, nil, "https://app.example.com")

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, sampleFingerprint())
	require.NoError(t, err)

	assert.True(t, res.RequiresManualVerification)
	assert.False(t, res.EmailSent)
}

func TestChallengeLoginReusesUnresolvedRecord(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	first, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)

	second, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)

	assert.Equal(t, first.SuspiciousLoginID, second.SuspiciousLoginID)
	assert.Len(t, f.suspicious.records, 1)
	assert.Equal(t, 2, f.sender.loginCalls)
}

func TestChallengeLoginRejectsBlockedFingerprint(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)
	require.NoError(t, f.svc.BlockLogin(context.Background(), res.SuspiciousLoginID, f.user.Email))

	_, err = f.svc.ChallengeLogin(context.Background(), f.user, fp)
	assert.ErrorIs(t, err, ErrLoginBlocked)
}

func TestVerifyLoginPromotesFingerprintToTrustedContext(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyLogin(context.Background(), res.SuspiciousLoginID, f.user.Email))

	require.Len(t, f.contexts.contexts, 1)
	saved := f.contexts.contexts[0]
	assert.True(t, saved.IsTrusted)
	assert.Equal(t, fp, saved.Fingerprint)

	oid, _ := primitive.ObjectIDFromHex(res.SuspiciousLoginID)
	rec, _ := f.suspicious.FindByID(context.Background(), oid)
	assert.Equal(t, models.SuspiciousVerified, rec.Status)

	// The next login from this fingerprint is recognized.
	matched, err := f.svc.MatchContext(context.Background(), f.user.ID, f.user.Email, fp)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestVerifyLoginLinkIsOneTimeUse(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, sampleFingerprint())
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyLogin(context.Background(), res.SuspiciousLoginID, f.user.Email))

	err = f.svc.VerifyLogin(context.Background(), res.SuspiciousLoginID, f.user.Email)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestVerifyLoginRejectsWrongEmail(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, sampleFingerprint())
	require.NoError(t, err)

	err = f.svc.VerifyLogin(context.Background(), res.SuspiciousLoginID, "attacker@example.com")
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.Empty(t, f.contexts.contexts)
}

func TestVerifyLoginRejectsMalformedID(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.VerifyLogin(context.Background(), "not-a-hex-id", f.user.Email)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestVerifyLoginRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, sampleFingerprint())
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(models.VerificationTTL + time.Minute) }

	err = f.svc.VerifyLogin(context.Background(), res.SuspiciousLoginID, f.user.Email)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestBlockLoginMarksRecordBlocked(t *testing.T) {
	f := newAuthFixture(t)
	fp := sampleFingerprint()

	res, err := f.svc.ChallengeLogin(context.Background(), f.user, fp)
	require.NoError(t, err)

	require.NoError(t, f.svc.BlockLogin(context.Background(), res.SuspiciousLoginID, f.user.Email))

	oid, _ := primitive.ObjectIDFromHex(res.SuspiciousLoginID)
	rec, _ := f.suspicious.FindByID(context.Background(), oid)
	assert.Equal(t, models.SuspiciousBlocked, rec.Status)
	assert.True(t, rec.IsBlocked)

	// Blocking never creates a trusted context.
	assert.Empty(t, f.contexts.contexts)
}
