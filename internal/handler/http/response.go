package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/beemstream/profile-service/internal/errors"
	"github.com/beemstream/profile-service/internal/logger"
	"github.com/beemstream/profile-service/internal/validator"
)

// response is the JSON envelope for non-token endpoints.
type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// tokenResponse is the body of every successful token-issuing endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// writeAppError maps service errors to the wire. Authorization failures are
// always a plain 401; the reason stays in the logs.
func writeAppError(w http.ResponseWriter, r *http.Request, err error, l *slog.Logger) {
	status := apperrors.HTTPStatus(err)

	if status == http.StatusUnauthorized {
		logger.WithContext(r.Context(), l).InfoContext(r.Context(), "request unauthorized",
			slog.String("path", r.URL.Path),
			slog.String("reason", err.Error()),
		)
		writeUnauthorized(w)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= 500 {
			logger.WithContext(r.Context(), l).ErrorContext(r.Context(), "request failed",
				slog.String("path", r.URL.Path),
				slog.String("error", appErr.Error()),
			)
		}
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	logger.WithContext(r.Context(), l).ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, status, response{
		Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
	})
}

// writeUnauthorized writes the single 401 shape every auth failure gets.
func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, response{
		Error: &errorResponse{Code: "UNAUTHORIZED", Message: "unauthorized"},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusUnprocessableEntity, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusUnprocessableEntity, response{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
