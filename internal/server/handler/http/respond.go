package http

import (
	"encoding/json"
	"errors"
	"net/http"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

// statusFor maps the vault error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, verrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, verrors.ErrAuthenticationFailed), errors.Is(err, verrors.ErrLocked):
		return http.StatusUnauthorized
	case errors.Is(err, verrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, verrors.ErrPasswordAlreadySet), errors.Is(err, verrors.ErrNoPasswordSet):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Messages of unexpected
// errors are not exposed.
func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
