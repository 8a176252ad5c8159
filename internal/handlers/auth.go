package handlers

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
	"github.com/manoj0727/Nexify-server/pkg/utils"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Avatar   string `json:"avatar,omitempty"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup, signin and token refresh.
type AuthResponse struct {
	Success                    bool         `json:"success"`
	Message                    string       `json:"message"`
	User                       *models.User `json:"user,omitempty"`
	AccessToken                string       `json:"accessToken,omitempty"`
	RefreshToken               string       `json:"refreshToken,omitempty"`
	RequiresManualVerification bool         `json:"requiresManualVerification,omitempty"`
	SuspiciousLoginID          string       `json:"suspiciousLoginId,omitempty"`
}

// newSignupCode generates a 5-digit verification code.
func newSignupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()+10000), nil
}

// Signup stores a pending registration and emails a verification code.
// The user record is only created once the email is verified.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Name, valid email and a password of at least 8 characters are required")
		return
	}

	email := services.NormalizeEmail(req.Email)

	existing, err := services.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	pending := &models.PendingRegistration{
		Name:           req.Name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           models.RoleGeneral,
		Avatar:         req.Avatar,
	}
	if err := services.CreatePendingRegistration(r.Context(), pending); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create registration")
		return
	}

	if err := sendSignupCode(r, email, req.Name); err != nil {
		log.Printf("Could not send signup verification email: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not send verification email")
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "A verification code has been sent to your email address.",
	})
}

// sendSignupCode creates a fresh signup code and emails it. Prior codes
// for the address are dropped so only the latest is valid.
func sendSignupCode(r *http.Request, email, name string) error {
	if emailSender == nil {
		return fmt.Errorf("email service not configured")
	}

	code, err := newSignupCode()
	if err != nil {
		return err
	}

	if err := verifications.DeleteByEmail(r.Context(), email, models.VerificationSignup); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify?code=%s&email=%s", cfg.ClientURL, code, email)
	messageID, err := emailSender.SendSignupVerification(r.Context(), email, name, code, link)
	if err != nil {
		return err
	}

	return verifications.Insert(r.Context(), &models.EmailVerification{
		Email:            email,
		VerificationCode: code,
		MessageID:        messageID,
		For:              models.VerificationSignup,
		CreatedAt:        time.Now().UTC(),
	})
}

// VerifyEmail consumes a signup code and promotes the pending
// registration to a real user account.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	email := services.NormalizeEmail(r.URL.Query().Get("email"))
	if code == "" || email == "" {
		writeError(w, http.StatusUnprocessableEntity, "Code and email are required")
		return
	}

	record, err := verifications.Find(r.Context(), email, code, models.VerificationSignup)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if record == nil || record.Expired(time.Now()) {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification code")
		return
	}

	pending, err := services.FindPendingRegistration(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if pending == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification code")
		return
	}

	user := &models.User{
		Name:            pending.Name,
		Email:           pending.Email,
		Password:        pending.HashedPassword,
		Avatar:          pending.Avatar,
		Role:            pending.Role,
		IsEmailVerified: true,
	}
	if err := services.InsertUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if err := services.DeletePendingRegistration(r.Context(), email); err != nil {
		log.Printf("⚠️ Failed to clean up pending registration for %s: %v", email, err)
	}
	if err := verifications.DeleteByEmail(r.Context(), email, models.VerificationSignup); err != nil {
		log.Printf("⚠️ Failed to clean up signup codes for %s: %v", email, err)
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Email verified. You can now sign in.",
	})
}

// ResendVerification re-sends the signup code for a pending registration.
func ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A valid email is required")
		return
	}

	email := services.NormalizeEmail(req.Email)
	pending, err := services.FindPendingRegistration(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if pending == nil {
		writeError(w, http.StatusNotFound, "No pending registration for this email")
		return
	}

	if err := sendSignupCode(r, email, pending.Name); err != nil {
		log.Printf("Could not resend signup verification email: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not send verification email")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "A new verification code has been sent.",
	})
}

// Signin authenticates credentials, then gates the login on the request's
// device/location fingerprint. Unrecognized fingerprints trigger the
// email verification challenge instead of a session.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}

	email := services.NormalizeEmail(req.Email)

	user, err := services.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.IsEmailVerified {
		writeError(w, http.StatusForbidden, "Email not verified. Please verify your email before signing in.")
		return
	}

	fp := services.BuildFingerprint(r.Context(), r, geolocator)
	services.RecordSignIn(user.Email, fp)

	matched, err := contextAuth.MatchContext(r.Context(), user.ID, user.Email, fp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !matched {
		result, err := contextAuth.ChallengeLogin(r.Context(), user, fp)
		if err == services.ErrLoginBlocked {
			writeError(w, http.StatusUnauthorized, "Access denied. This device has been blocked for your account.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if result.RequiresManualVerification {
			writeJSON(w, http.StatusOK, AuthResponse{
				Success:                    true,
				Message:                    "Email service is unavailable. Your login requires manual verification.",
				RequiresManualVerification: true,
				SuspiciousLoginID:          result.SuspiciousLoginID,
			})
			return
		}

		writeError(w, http.StatusUnauthorized, "Access blocked due to suspicious activity. Verification email was sent to your email address.")
		return
	}

	issueTokens(w, user, "Signed in successfully")
}

// issueTokens mints the access and refresh tokens for a recognized login.
func issueTokens(w http.ResponseWriter, user *models.User, message string) {
	accessToken, err := services.NewAccessToken(user.ID.Hex(), user.Role, cfg.JWTSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create access token")
		return
	}

	refreshToken, err := services.CreateRefreshToken(user.ID.Hex())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create refresh token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:      true,
		Message:      message,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// RefreshToken rotates the refresh token and mints a new access token.
func RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Refresh token is required")
		return
	}

	userID, ok := services.ValidateRefreshToken(req.RefreshToken)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	user, err := services.FindUserByID(r.Context(), oid)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	issueTokens(w, user, "Token refreshed")
}

// Logout invalidates the presented refresh token.
func Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := services.InvalidateRefreshToken(req.RefreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Logged out"})
}
