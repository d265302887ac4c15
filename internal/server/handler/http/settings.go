package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/gophvault/internal/lockpolicy"
	"github.com/atinyakov/gophvault/internal/models"
	"github.com/atinyakov/gophvault/internal/service"
)

// SettingsService defines the settings and lock-signal operations.
type SettingsService interface {
	Settings() models.Settings
	UpdateSettings(ctx context.Context, in service.SettingsUpdate) (models.Settings, error)
	ResetSettings(ctx context.Context) (models.Settings, error)
	Activity(s lockpolicy.Signal) error
	VisibilityChanged(hidden bool)
	OpenArea(area string) error
}

// SettingsHandler serves the settings and the UI signals that drive the
// lock policies.
type SettingsHandler struct {
	SettingsService SettingsService
}

// ActivityRequest reports one user activity signal.
type ActivityRequest struct {
	Signal lockpolicy.Signal `json:"signal"`
}

// VisibilityRequest reports a page visibility change.
type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// Get returns the current settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.SettingsService.Settings())
}

// Update changes the settings present in the body.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.SettingsUpdate
	if !decode(w, r, &req) {
		return
	}
	s, err := h.SettingsService.UpdateSettings(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Reset restores the reset profile.
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.SettingsService.ResetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Activity resets the idle clocks.
func (h *SettingsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.SettingsService.Activity(req.Signal); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Visibility forwards a page visibility change.
func (h *SettingsHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !decode(w, r, &req) {
		return
	}
	h.SettingsService.VisibilityChanged(req.Hidden)
	w.WriteHeader(http.StatusNoContent)
}

// OpenArea tells the policy of {area} that the UI entered it.
func (h *SettingsHandler) OpenArea(w http.ResponseWriter, r *http.Request) {
	if err := h.SettingsService.OpenArea(chi.URLParam(r, "area")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
