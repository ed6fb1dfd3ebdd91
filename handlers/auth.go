package handlers

import (
	"net/http"
	"time"
)

const defaultTokenTTL = 24 * time.Hour

// TokenIssuer signs short-lived write tokens.
type TokenIssuer interface {
	IssueToken(subject string, ttl time.Duration) (string, error)
}

type AuthHandler struct {
	Issuer TokenIssuer
	TTL    time.Duration
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken exchanges an accepted write credential (checked by
// RequireWriteAuth) for a signed token that expires after TTL.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) error {
	if h.Issuer == nil {
		return errUnavailable("Token signing not configured")
	}
	ttl := h.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	expiresAt := time.Now().Add(ttl).UTC()
	token, err := h.Issuer.IssueToken("admin", ttl)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token, ExpiresAt: expiresAt})
	return nil
}
