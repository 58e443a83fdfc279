// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// envelope is the response body shape shared by every endpoint: "success" plus
// either payload fields or "error".
type envelope map[string]any

// writeJSON writes payload with "success" set to true.
func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	body := envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInterpreterUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text a client may see. Only validation and public errors
// carry their own text; internal failures are not described.
func publicMessage(err error, status int) string {
	var (
		ve *apperrors.ValidationError
		pe *apperrors.PublicError
	)
	if errors.As(err, &ve) || errors.As(err, &pe) {
		return apperrors.Message(err)
	}

	switch {
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		return "Tarot deck not initialized. Please contact support."
	case errors.Is(err, apperrors.ErrInsufficientCards):
		return "Tarot deck is incomplete. Please contact support."
	case errors.Is(err, apperrors.ErrInterpreterUnavailable):
		var unavailable *interpreter.UnavailableError
		if errors.As(err, &unavailable) && unavailable.Err != nil {
			return "Oracle service unavailable: " + unavailable.Err.Error()
		}
		return "Oracle service unavailable. Please try again later."
	}

	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized. Please sign in."
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusBadRequest:
		return "Invalid request"
	}
	return "Internal server error"
}

// writeError maps err to a status and an error envelope. Server-side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		}).WithError(err).Error("request failed")
	}
	writeRaw(w, status, envelope{"success": false, "error": publicMessage(err, status)})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Invalid("body", "Request body is required")
		}
		return apperrors.Invalid("body", "Invalid request body")
	}
	return nil
}

// queryInt parses a non-negative integer query parameter, returning 0 when it is
// absent or malformed.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
