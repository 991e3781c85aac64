// Package errors defines the service error taxonomy and maps errors onto
// HTTP responses. Centralizing the mapping keeps service and handler code
// free of status-code decisions.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Sentinel errors for the matching subsystem. Services wrap or return
// these; the HTTP layer maps them via WriteError.
var (
	// ErrUnauthenticated means no valid session was presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidTarget means a self-action or malformed target id,
	// rejected before any write.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired means the undo window has closed. Distinguished from
	// ErrNotFound so clients can show "too late" rather than "nothing
	// to undo".
	ErrExpired = errors.New("undo window expired")

	// ErrStoreUnavailable means the relational store could not be
	// reached. Not retried here; the replace operation is idempotent so
	// retries are safe for the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Is re-exports errors.Is so callers don't need a second import.
func Is(err, target error) bool { return errors.Is(err, target) }

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor resolves an error to its HTTP status and a stable code string.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, ErrInvalidTarget):
		return http.StatusBadRequest, "invalid_target"
	case errors.Is(err, ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// WriteError maps err onto an HTTP status and writes a JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Code: code})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
