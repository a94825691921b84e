package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
)

// Error kinds reported in the error envelope.
const (
	KindNotFound   = "NotFoundError"
	KindValidation = "ValidationError"
	KindInternal   = "InternalError"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess writes data inside a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	WriteJSON(w, status, Envelope{Success: true, Data: data}, logger)
}

// WriteError writes err inside an error envelope, choosing the status from
// the error kind.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, kind := Classify(err)
	WriteJSON(w, status, Envelope{Error: &APIError{Kind: kind, Message: err.Error()}}, logger)
}

// Classify maps an error to its HTTP status and envelope kind. Errors that
// are neither NotFoundError nor ValidationError are internal.
func Classify(err error) (int, string) {
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, KindNotFound
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, KindValidation
	}
	return http.StatusInternalServerError, KindInternal
}
