package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"casaya/internal/app"
	"casaya/pkg/auth"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"mensaje"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorCode(w, status, errorCode(status), msg)
}

// writeErrorCode is for responses whose code differs from the status
// default, like inquiry conflicts sharing 409 with registration.
func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Success:   false,
		Message:   msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "LISTING_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "LISTING_NOT_FOUND"
	case http.StatusConflict:
		return "AUTH_EMAIL_TAKEN"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "AUTH_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Método no permitido")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func isValidationError(err error) bool {
	var ve *app.ValidationError
	return errors.As(err, &ve)
}

func isNoFilesError(err error) bool    { return errors.Is(err, app.ErrNoFiles) }
func isZeroImagesError(err error) bool { return errors.Is(err, app.ErrZeroImages) }
func isAuthError(err error) bool       { return errors.Is(err, auth.ErrInvalidToken) }

func isNotFound(err error) bool {
	return errors.Is(err, app.ErrUserNotFound) || errors.Is(err, app.ErrPropertyNotFound)
}
