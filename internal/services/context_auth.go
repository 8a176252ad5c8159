package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
)

var (
	// ErrInvalidLink covers missing records, email mismatches, expired
	// tokens and already-resolved records. Callers get one generic error
	// so valid ids cannot be enumerated.
	ErrInvalidLink = errors.New("invalid verification link")

	// ErrLoginBlocked means the fingerprint was explicitly blocked by the
	// account owner.
	ErrLoginBlocked = errors.New("login from blocked device")
)

// ContextStore is the persistence needed for recognized contexts.
type ContextStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserContext, error)
	Insert(ctx context.Context, uc *models.UserContext) error
}

// SuspiciousLoginStore is the persistence for pending login challenges.
type SuspiciousLoginStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SuspiciousLogin, error)
	FindByFingerprint(ctx context.Context, userID primitive.ObjectID, fp models.Fingerprint) (*models.SuspiciousLogin, error)
	Insert(ctx context.Context, sl *models.SuspiciousLogin) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, trusted, blocked bool) error
}

// VerificationStore is the persistence for one-time verification codes.
type VerificationStore interface {
	Insert(ctx context.Context, v *models.EmailVerification) error
	Find(ctx context.Context, email, code, purpose string) (*models.EmailVerification, error)
	DeleteByEmail(ctx context.Context, email, purpose string) error
}

// EmailSender dispatches verification emails. Implementations return the
// provider's message id.
type EmailSender interface {
	SendLoginVerification(ctx context.Context, to, name, verifyLink, blockLink string, fp models.Fingerprint) (string, error)
	SendSignupVerification(ctx context.Context, to, name, code, link string) (string, error)
}

// ChallengeResult is the outcome of challenging an unrecognized login.
type ChallengeResult struct {
	SuspiciousLoginID          string
	EmailSent                  bool
	RequiresManualVerification bool
}

// ContextAuthService decides, per login, whether the request's
// device/location fingerprint is recognized, and runs the verify/block
// challenge for the ones that are not. email may be nil when the email
// collaborator is not configured; challenges then degrade to the
// manual-verification path instead of failing the login.
type ContextAuthService struct {
	contexts   ContextStore
	suspicious SuspiciousLoginStore
	codes      VerificationStore
	email      EmailSender
	clientURL  string
	now        func() time.Time
}

func NewContextAuthService(contexts ContextStore, suspicious SuspiciousLoginStore, codes VerificationStore, email EmailSender, clientURL string) *ContextAuthService {
	return &ContextAuthService{
		contexts:   contexts,
		suspicious: suspicious,
		codes:      codes,
		email:      email,
		clientURL:  clientURL,
		now:        time.Now,
	}
}

// MatchContext reports whether fp is already a trusted context for the
// user. A user's very first login auto-trusts its fingerprint: the record
// is persisted and the login proceeds unchallenged.
func (s *ContextAuthService) MatchContext(ctx context.Context, userID primitive.ObjectID, email string, fp models.Fingerprint) (bool, error) {
	known, err := s.contexts.FindByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if len(known) == 0 {
		first := &models.UserContext{
			UserID:      userID,
			Email:       email,
			Fingerprint: fp,
			IsTrusted:   true,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.contexts.Insert(ctx, first); err != nil {
			return false, err
		}
		return true, nil
	}

	for _, c := range known {
		if c.IsTrusted && !c.IsBlocked && c.Fingerprint.Equal(fp) {
			return true, nil
		}
	}
	return false, nil
}

// ChallengeLogin records a suspicious login for an unrecognized
// fingerprint and emails the user verify/block links. An outstanding
// unresolved record for the same (user, fingerprint) is reused so repeated
// attempts do not pile up duplicate records. A fingerprint the user has
// already blocked returns ErrLoginBlocked.
func (s *ContextAuthService) ChallengeLogin(ctx context.Context, user *models.User, fp models.Fingerprint) (*ChallengeResult, error) {
	rec, err := s.suspicious.FindByFingerprint(ctx, user.ID, fp)
	if err != nil {
		return nil, err
	}

	switch {
	case rec != nil && rec.Status == models.SuspiciousBlocked:
		return nil, ErrLoginBlocked
	case rec != nil && !rec.Resolved():
		// Reuse the outstanding challenge; the email is re-sent below.
	default:
		rec = &models.SuspiciousLogin{
			UserID:      user.ID,
			Email:       user.Email,
			Fingerprint: fp,
			Status:      models.SuspiciousCreated,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.suspicious.Insert(ctx, rec); err != nil {
			return nil, err
		}
	}

	id := rec.ID.Hex()

	if s.email == nil {
		log.Println("Email service not configured for login verification.")
		if err := s.suspicious.UpdateStatus(ctx, rec.ID, models.SuspiciousEmailFailed, false, false); err != nil {
			return nil, err
		}
		return &ChallengeResult{SuspiciousLoginID: id, RequiresManualVerification: true}, nil
	}

	verifyLink := fmt.Sprintf("%s/verify-login?id=%s&email=%s", s.clientURL, id, user.Email)
	blockLink := fmt.Sprintf("%s/block-device?id=%s&email=%s", s.clientURL, id, user.Email)

	messageID, err := s.email.SendLoginVerification(ctx, user.Email, user.Name, verifyLink, blockLink, fp)
	if err != nil {
		log.Printf("Could not send login verification email: %v", err)
		if uerr := s.suspicious.UpdateStatus(ctx, rec.ID, models.SuspiciousEmailFailed, false, false); uerr != nil {
			return nil, uerr
		}
		return &ChallengeResult{SuspiciousLoginID: id, RequiresManualVerification: true}, nil
	}

	if err := s.codes.Insert(ctx, &models.EmailVerification{
		Email:            user.Email,
		VerificationCode: id,
		MessageID:        messageID,
		For:              models.VerificationLogin,
		CreatedAt:        s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := s.suspicious.UpdateStatus(ctx, rec.ID, models.SuspiciousEmailSent, false, false); err != nil {
		return nil, err
	}

	return &ChallengeResult{SuspiciousLoginID: id, EmailSent: true}, nil
}

// VerifyLogin resolves a challenge in the user's favor: the fingerprint is
// promoted to a trusted context and the record is marked verified. The
// (id, email) pair must match exactly, the record must be unresolved and
// the verification token must still be live; anything else is
// ErrInvalidLink.
func (s *ContextAuthService) VerifyLogin(ctx context.Context, id, email string) error {
	rec, err := s.lookupChallenge(ctx, id, email)
	if err != nil {
		return err
	}

	trusted := &models.UserContext{
		UserID:      rec.UserID,
		Email:       rec.Email,
		Fingerprint: rec.Fingerprint,
		IsTrusted:   true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.contexts.Insert(ctx, trusted); err != nil {
		return err
	}

	if err := s.suspicious.UpdateStatus(ctx, rec.ID, models.SuspiciousVerified, true, false); err != nil {
		return err
	}

	// Links are one-time use.
	return s.codes.DeleteByEmail(ctx, email, models.VerificationLogin)
}

// BlockLogin resolves a challenge against the attempt: the record is
// marked blocked and no context is created. Future logins from this
// fingerprint are rejected outright.
func (s *ContextAuthService) BlockLogin(ctx context.Context, id, email string) error {
	rec, err := s.lookupChallenge(ctx, id, email)
	if err != nil {
		return err
	}

	if err := s.suspicious.UpdateStatus(ctx, rec.ID, models.SuspiciousBlocked, false, true); err != nil {
		return err
	}

	return s.codes.DeleteByEmail(ctx, email, models.VerificationLogin)
}

// lookupChallenge validates the (id, email) pair against the stored
// record and its verification token. The token expires before the record
// does, so the token is the authority on link freshness.
func (s *ContextAuthService) lookupChallenge(ctx context.Context, id, email string) (*models.SuspiciousLogin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidLink
	}

	rec, err := s.suspicious.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Email != email || rec.Resolved() {
		return nil, ErrInvalidLink
	}

	token, err := s.codes.Find(ctx, email, id, models.VerificationLogin)
	if err != nil {
		return nil, err
	}
	if token == nil || token.Expired(s.now()) {
		return nil, ErrInvalidLink
	}

	return rec, nil
}
