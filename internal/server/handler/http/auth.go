// Package http provides the JSON API of the vault: master password
// handling, credentials, secure notes, settings, lock signals and the
// password generator.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/gophvault/internal/auth"
	"github.com/atinyakov/gophvault/internal/middleware"
	"github.com/atinyakov/gophvault/internal/service"
)

// AuthService defines the master password operations required by the
// HTTP handlers.
type AuthService interface {
	// CreateMasterPassword sets the first master password.
	CreateMasterPassword(ctx context.Context, password string) (*auth.Session, error)
	// Verify unlocks the vault.
	Verify(password string) (*auth.Session, error)
	// ChangeMasterPassword re-encrypts everything under a new password.
	ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) (*auth.Session, error)
	// Lock destroys every session.
	Lock()
	// Logout destroys one session.
	Logout(s *auth.Session)
	// Reset deletes all data and the master password.
	Reset(ctx context.Context) error
	// State reports the lock state.
	State() service.Status
}

// AuthHandler handles HTTP requests for the master password and the
// vault lock state.
type AuthHandler struct {
	// AuthService performs the underlying operations.
	AuthService AuthService
	// Sessions issues tokens for unlocked sessions.
	Sessions *middleware.Sessions
}

// PasswordRequest is the payload of create and unlock.
type PasswordRequest struct {
	Password string `json:"password"`
}

// ChangeRequest is the payload of a master password change.
type ChangeRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// TokenResponse carries the session token for X-Session-Token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Create sets the first master password and returns a session token.
func (h *AuthHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.AuthService.CreateMasterPassword(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: h.Sessions.Issue(s)})
}

// Unlock verifies the master password and returns a session token.
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.AuthService.Verify(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: h.Sessions.Issue(s)})
}

// Lock locks the vault. Every issued token stops working.
func (h *AuthHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.AuthService.Lock()
	h.Sessions.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// Logout ends the caller's session. Other tokens keep working.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.AuthService.Logout(session(r))
	h.Sessions.Revoke(r.Header.Get(middleware.TokenHeader))
	w.WriteHeader(http.StatusNoContent)
}

// Change rotates the master password and returns a fresh token; the
// old tokens are invalidated.
func (h *AuthHandler) Change(w http.ResponseWriter, r *http.Request) {
	var req ChangeRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.AuthService.ChangeMasterPassword(r.Context(), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Sessions.Purge()
	writeJSON(w, http.StatusOK, TokenResponse{Token: h.Sessions.Issue(s)})
}

// State reports whether the vault is locked and why.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.AuthService.State())
}

// Reset deletes every credential, note, the master password and the
// settings.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.Sessions.Purge()
	w.WriteHeader(http.StatusNoContent)
}
