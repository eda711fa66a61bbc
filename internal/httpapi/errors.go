package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"livedash/internal/evented"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a types.ErrorResponse carrying status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// errorStatus maps a domain error to its HTTP status.
func errorStatus(err error) int {
	switch {
	case evented.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, requests.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
