package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/manoj0727/Nexify-server/internal/services"
)

// verificationLinkQuery is the query shape of the emailed verify/block
// links.
type verificationLinkQuery struct {
	ID    string `validate:"required,hexadecimal,len=24"`
	Email string `validate:"required,email"`
}

func parseVerificationLink(r *http.Request) (*verificationLinkQuery, bool) {
	q := &verificationLinkQuery{
		ID:    r.URL.Query().Get("id"),
		Email: services.NormalizeEmail(r.URL.Query().Get("email")),
	}
	if err := validate.Struct(q); err != nil {
		return nil, false
	}
	return q, true
}

// VerifyLogin handles the emailed "this was me" link. The challenged
// fingerprint becomes a trusted context for the account.
func VerifyLogin(w http.ResponseWriter, r *http.Request) {
	q, ok := parseVerificationLink(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "A valid id and email are required")
		return
	}

	err := contextAuth.VerifyLogin(r.Context(), q.ID, q.Email)
	if errors.Is(err, services.ErrInvalidLink) {
		writeError(w, http.StatusBadRequest, "Invalid verification link")
		return
	}
	if err != nil {
		log.Printf("Could not verify login %s: %v", q.ID, err)
		writeError(w, http.StatusInternalServerError, "Could not verify your login")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Login verified. You can now sign in from this device.",
	})
}

// BlockLogin handles the emailed "this wasn't me" link. The challenged
// fingerprint is blocked for the account.
func BlockLogin(w http.ResponseWriter, r *http.Request) {
	q, ok := parseVerificationLink(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "A valid id and email are required")
		return
	}

	err := contextAuth.BlockLogin(r.Context(), q.ID, q.Email)
	if errors.Is(err, services.ErrInvalidLink) {
		writeError(w, http.StatusBadRequest, "Invalid verification link")
		return
	}
	if err != nil {
		log.Printf("Could not block login %s: %v", q.ID, err)
		writeError(w, http.StatusInternalServerError, "Could not block your login")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Device blocked. Sign-ins from it will be rejected.",
	})
}
