// Package httputil centralizes JSON request decoding and response envelopes
// so handlers stay thin and error bodies stay consistent.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Decode parses the request body into T. On failure it writes a 400 response
// and returns ok=false; the handler should return immediately.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		logger.InfoContext(r.Context(), "rejecting malformed request body",
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		var zero T
		return zero, false
	}
	return v, true
}

// DecodeRaw parses the request body into a free-form object for record kinds
// that permit fields beyond their declared schema.
func DecodeRaw(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (map[string]any, bool) {
	var v map[string]any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		logger.InfoContext(r.Context(), "rejecting malformed request body",
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return v, true
}
