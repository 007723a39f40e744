package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/languard-core/internal/blocklist"
	"github.com/nerrad567/languard-core/internal/discovery"
	"github.com/nerrad567/languard-core/internal/engine"
	"github.com/nerrad567/languard-core/internal/infrastructure/filestore"
	"github.com/nerrad567/languard-core/internal/router"
)

// Error represents a structured error response.
type Error struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeMissingMAC      = "missing_mac"
	ErrCodeInvalidDuration = "invalid_duration"
	ErrCodeInvalidRange    = "invalid_range"
	ErrCodeScanFailed      = "scan_failed"
	ErrCodeStorage         = "storage_error"
	ErrCodeRouter          = "router_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternal        = "internal_error"
	ErrCodeUnavailable     = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Error: message, Code: code})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// classify maps an engine error onto a status and code.
func classify(err error) (int, string) {
	var invalid *blocklist.InvalidDurationError
	switch {
	case errors.Is(err, engine.ErrMissingIdentity):
		return http.StatusBadRequest, ErrCodeMissingMAC
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrCodeInvalidDuration
	case discovery.IsRangeError(err):
		return http.StatusBadRequest, ErrCodeInvalidRange
	case errors.Is(err, discovery.ErrScan):
		return http.StatusInternalServerError, ErrCodeScanFailed
	case errors.Is(err, router.ErrAdapter):
		return http.StatusInternalServerError, ErrCodeRouter
	case errors.Is(err, filestore.ErrStoreIO):
		return http.StatusInternalServerError, ErrCodeStorage
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeEngineError writes err with the status its type calls for.
// The message is the error text, so callers see what failed.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
	writeError(w, status, code, err.Error())
}
