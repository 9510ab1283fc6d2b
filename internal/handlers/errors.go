package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studypath/internal/database"
	"studypath/internal/service"
)

// apiResponse is the envelope every endpoint responds with
type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(apiResponse{OK: true, Data: data}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{OK: false, Error: msg}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// respondServiceError maps the service error taxonomy onto HTTP statuses
// and logs everything else with the request ID for correlation
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		respondFailure(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, service.ErrNotFound):
		respondFailure(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		respondFailure(w, http.StatusForbidden, "forbidden")
	case database.IsTransient(err):
		respondFailure(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		log.Printf("[%s] %s: %v", RequestID(r), logMsg, err)
		respondFailure(w, http.StatusInternalServerError, "internal error")
	}
}
