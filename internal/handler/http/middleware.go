package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/beemstream/profile-service/internal/domain"
	"github.com/beemstream/profile-service/internal/logger"
)

// tokenHeader is the request header carrying the bearer access token.
const tokenHeader = "token"

const bearerPrefix = "Bearer "

type contextKey string

const userContextKey contextKey = "authenticated_user"

// Authenticator validates an access token and resolves its subject.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// UserFromContext returns the authenticated user placed by RequireAccessToken.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.User)
	return u, ok
}

// RequireAccessToken guards a route with bearer token validation. A missing
// header and an invalid token both produce the same 401; only the log line
// differs.
func RequireAccessToken(authenticator Authenticator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(tokenHeader)
			if header == "" || !strings.HasPrefix(header, bearerPrefix) {
				logger.WithContext(r.Context(), l).InfoContext(r.Context(), "access token missing",
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w)
				return
			}

			raw := strings.TrimPrefix(header, bearerPrefix)
			user, err := authenticator.Authenticate(r.Context(), raw)
			if err != nil {
				logger.WithContext(r.Context(), l).InfoContext(r.Context(), "access token rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContentTypeJSON rejects mutating requests without a JSON content type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				writeJSON(w, http.StatusUnsupportedMediaType, response{
					Error: &errorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
