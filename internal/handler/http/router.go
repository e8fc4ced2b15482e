package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beemstream/profile-service/internal/auth"
	"github.com/beemstream/profile-service/internal/health"
	"github.com/beemstream/profile-service/internal/middleware"
	"github.com/beemstream/profile-service/internal/oauth"
	"github.com/beemstream/profile-service/internal/service"
)

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	authService *service.AuthService,
	oauthClient *oauth.Client,
	sealer *auth.Sealer,
	healthHandler *health.Handler,
	logger *slog.Logger,
	tracingEnabled bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	if tracingEnabled {
		r.Use(middleware.Tracing())
	}

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)
	oauthHandler := NewOAuthHandler(oauthClient, sealer, logger)

	// Public endpoints
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Get("/oauth/twitch", oauthHandler.Redirect)
		r.Post("/oauth/twitch", oauthHandler.Exchange)
		r.Get("/oauth/twitch/logout", oauthHandler.Logout)
	})

	// Endpoints behind the access token guard. Refresh additionally needs
	// the refresh cookie.
	r.Group(func(r chi.Router) {
		r.Use(RequireAccessToken(authService, logger))

		r.Get("/refresh-token", authHandler.Refresh)
		r.Get("/authenticate", authHandler.Authenticate)
	})

	return r
}
