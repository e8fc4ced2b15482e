package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/beemstream/profile-service/internal/service"
	"github.com/beemstream/profile-service/internal/validator"
)

// sessionCookieName is the cookie carrying our own refresh token.
const sessionCookieName = "refresh_token"

// AuthHandler handles registration, login, refresh, and token validation.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=4"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=12"`
	PasswordRepeat string `json:"password_repeat" validate:"required,eqfield=Password"`
}

// LoginRequest is the JSON request body for login. The identifier matches
// either username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// --- Handlers ---

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Data: UserResponse{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.writeSession(w, session)
}

// Refresh handles GET /refresh-token. The caller must present both a valid
// access token (enforced by the route guard) and the refresh cookie; the
// cookie is rotated on success.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		h.logger.InfoContext(r.Context(), "refresh rejected: cookie missing")
		writeUnauthorized(w)
		return
	}

	session, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.writeSession(w, session)
}

// Authenticate handles GET /authenticate. The route guard has already
// validated the token; reaching here means 200.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// writeSession sets the rotated refresh cookie and writes the token body.
func (h *AuthHandler) writeSession(w http.ResponseWriter, session *service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.RefreshToken,
		Path:     "/",
		MaxAge:   session.RefreshMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
	})
}
