package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/PurvDabhi/Task-Management-App/backend/services"
	"github.com/PurvDabhi/Task-Management-App/logging"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string                `json:"message"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_ERROR, Description: Failed to encode response: %v", err)
	}
}

// decodeJSON reads a JSON request body into dst. Decoding failures come back as a
// ValidationError so they surface as 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.ValidationError{Fields: []services.FieldError{{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	return nil
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, services.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Not authorized"})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: notFound})
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}
}
