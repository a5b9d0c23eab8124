package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"llamadesk/internal/manager"
	"llamadesk/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorKind(w, status, msg, "")
}

func writeJSONErrorKind(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

// statusFor maps a command error to its HTTP status code.
func statusFor(err error) int {
	if manager.IsCancelled(err) {
		return http.StatusConflict
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeCommandError writes err using the manager error classification.
func writeCommandError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	kind := manager.ErrorKind(err)
	if kind == "" && status == http.StatusInternalServerError {
		kind = "engine_failure"
	}
	writeJSONErrorKind(w, status, err.Error(), kind)
	return status
}
