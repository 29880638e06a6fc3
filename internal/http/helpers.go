package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"powerpulse/internal/dataset"
	"powerpulse/internal/model"
	"powerpulse/internal/services"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var fe *FieldError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &fe), services.IsInvalidInput(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnknownMonth):
		return http.StatusNotFound
	case errors.Is(err, model.ErrArtifactUnavailable),
		errors.Is(err, model.ErrSchemaMismatch),
		errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrInvalidOutput):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrNoData),
		errors.Is(err, dataset.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown to the user for err.
func userMessage(err error) string {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return "Invalid value for " + fe.Field + ": " + fe.Err.Error()
	case services.IsInvalidInput(err):
		return "Invalid input: " + err.Error()
	case errors.Is(err, services.ErrUnknownMonth):
		return "No data for the selected month"
	case errors.Is(err, services.ErrNoData):
		return "The dataset is empty"
	case errors.Is(err, model.ErrArtifactUnavailable):
		return "The prediction model is not available"
	case errors.Is(err, model.ErrSchemaMismatch), errors.Is(err, model.ErrUnknownKind):
		return "The prediction model does not match the expected features"
	case errors.Is(err, model.ErrInvalidOutput):
		return "The prediction model returned an invalid value"
	}
	return "Internal error"
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), apiError{Error: userMessage(err)})
}
