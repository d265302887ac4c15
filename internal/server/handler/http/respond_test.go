package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{verrors.InvalidInput("title", "is required"), http.StatusBadRequest},
		{verrors.ErrAuthenticationFailed, http.StatusUnauthorized},
		{verrors.ErrLocked, http.StatusUnauthorized},
		{fmt.Errorf("reveal: %w", verrors.ErrNotFound), http.StatusNotFound},
		{verrors.ErrPasswordAlreadySet, http.StatusConflict},
		{verrors.ErrNoPasswordSet, http.StatusConflict},
		{fmt.Errorf("%w: %w", verrors.ErrPersistence, errors.New("disk full")), http.StatusInternalServerError},
		{verrors.ErrDecryptionFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d; want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("%w: %w", verrors.ErrPersistence, errors.New("/home/me/vault.json: disk full")))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d; want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "vault.json") {
		t.Errorf("body leaks internal error: %q", rec.Body.String())
	}
}
