package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/beemstream/profile-service/internal/auth"
	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
	"github.com/beemstream/profile-service/internal/oauth"
)

// providerCookieName carries the sealed Twitch refresh token. Unlike the
// session cookie its value is opaque ciphertext, not a signed claim.
const providerCookieName = "twitch_refresh_token"

// providerCookieMaxAge bounds how long the sealed refresh token is kept.
// Twitch refresh tokens do not expose an expiry of their own.
const providerCookieMaxAge = 30 * 24 * 60 * 60

// OAuthHandler handles the Twitch authorization-code and refresh-token grants.
type OAuthHandler struct {
	client *oauth.Client
	sealer *auth.Sealer
	logger *slog.Logger
}

// NewOAuthHandler creates a new OAuth HTTP handler.
func NewOAuthHandler(client *oauth.Client, sealer *auth.Sealer, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{client: client, sealer: sealer, logger: logger}
}

// ExchangeRequest is the JSON request body for POST /oauth/twitch. Either a
// fresh authorization code or grant_type=refresh_token using the cookie.
type ExchangeRequest struct {
	Code      string `json:"code,omitempty"`
	GrantType string `json:"grant_type,omitempty"`
}

// Redirect handles GET /oauth/twitch: 302 to the provider consent page.
func (h *OAuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	url, state := h.client.AuthorizeURL()

	h.logger.DebugContext(r.Context(), "redirecting to provider",
		slog.String("state", state),
	)

	http.Redirect(w, r, url, http.StatusFound)
}

// Exchange handles POST /oauth/twitch for both grant variants.
func (h *OAuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	var (
		tokens *domain.OAuthTokenSet
		err    error
	)

	switch {
	case req.Code != "":
		tokens, err = h.client.Exchange(r.Context(), req.Code)
	case req.GrantType == "refresh_token":
		tokens, err = h.refreshFromCookie(r)
	default:
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "either code or grant_type=refresh_token is required"},
		})
		return
	}

	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	sealed, err := h.sealer.Seal(tokens.RefreshToken)
	if err != nil {
		writeAppError(w, r, apperrors.Internal(fmt.Errorf("seal provider token: %w", err)), h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     providerCookieName,
		Value:    sealed,
		Path:     "/",
		MaxAge:   providerCookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int64(tokens.ExpiresIn.Seconds()),
	})
}

// Logout handles GET /oauth/twitch/logout: drops the sealed cookie.
func (h *OAuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     providerCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	w.WriteHeader(http.StatusOK)
}

// refreshFromCookie unseals the stored provider refresh token and runs the
// refresh grant. A missing or tampered cookie is an authorization failure,
// not a bad request.
func (h *OAuthHandler) refreshFromCookie(r *http.Request) (*domain.OAuthTokenSet, error) {
	cookie, err := r.Cookie(providerCookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.Unauthorized("provider refresh cookie missing")
	}

	refreshToken, err := h.sealer.Open(cookie.Value)
	if err != nil {
		return nil, apperrors.Unauthorized("provider refresh cookie unreadable")
	}

	return h.client.Refresh(r.Context(), refreshToken)
}
