package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/gophvault/internal/auth"
	"github.com/atinyakov/gophvault/internal/middleware"
	"github.com/atinyakov/gophvault/internal/models"
	"github.com/atinyakov/gophvault/internal/vault"
)

// CredentialService defines the credential operations behind the API.
type CredentialService interface {
	ListCredentials(s *auth.Session) ([]models.CredentialRecord, error)
	AddCredential(ctx context.Context, s *auth.Session, in vault.Credential) (models.CredentialRecord, error)
	UpdateCredential(ctx context.Context, s *auth.Session, id string, in vault.CredentialUpdate) (models.CredentialRecord, error)
	DeleteCredential(ctx context.Context, s *auth.Session, id string) error
	ClearCredentials(ctx context.Context, s *auth.Session) error
	OpenCredential(s *auth.Session, id string) (vault.Credential, error)
	RevealCredentialField(s *auth.Session, id, field string) (string, error)
}

// NoteService defines the secure note operations behind the API.
type NoteService interface {
	ListNotes(s *auth.Session) ([]models.SecureNoteRecord, error)
	AddNote(ctx context.Context, s *auth.Session, in vault.Note) (models.SecureNoteRecord, error)
	UpdateNote(ctx context.Context, s *auth.Session, id string, in vault.NoteUpdate) (models.SecureNoteRecord, error)
	DeleteNote(ctx context.Context, s *auth.Session, id string) error
	ClearNotes(ctx context.Context, s *auth.Session) error
	RevealNote(s *auth.Session, id string) (string, error)
	OpenNote(s *auth.Session, id string) (vault.Note, error)
	ExportNotes(s *auth.Session) (string, error)
}

// VaultHandler serves credentials and secure notes. Every route needs
// a session from middleware.SessionAuth.
type VaultHandler struct {
	Credentials CredentialService
	Notes       NoteService
}

// Summary is the listing view of a record: no encrypted fields.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// FieldResponse carries one decrypted value.
type FieldResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func credentialSummary(c models.CredentialRecord) Summary {
	return Summary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func noteSummary(n models.SecureNoteRecord) Summary {
	return Summary{ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func session(r *http.Request) *auth.Session {
	return middleware.GetSessionFromContext(r.Context())
}

// ListCredentials returns id, title and timestamps of every credential.
func (h *VaultHandler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	items, err := h.Credentials.ListCredentials(session(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]Summary, 0, len(items))
	for _, c := range items {
		out = append(out, credentialSummary(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// AddCredential encrypts and stores a credential.
func (h *VaultHandler) AddCredential(w http.ResponseWriter, r *http.Request) {
	var req vault.Credential
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Credentials.AddCredential(r.Context(), session(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, credentialSummary(rec))
}

// GetCredential returns every field of a credential decrypted.
func (h *VaultHandler) GetCredential(w http.ResponseWriter, r *http.Request) {
	c, err := h.Credentials.OpenCredential(session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCredential changes the fields present in the body.
func (h *VaultHandler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req vault.CredentialUpdate
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Credentials.UpdateCredential(r.Context(), session(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialSummary(rec))
}

// DeleteCredential removes a credential. Unknown ids succeed.
func (h *VaultHandler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.Credentials.DeleteCredential(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCredentials removes every credential.
func (h *VaultHandler) ClearCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.Credentials.ClearCredentials(r.Context(), session(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevealCredentialField decrypts one field of a credential.
func (h *VaultHandler) RevealCredentialField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	v, err := h.Credentials.RevealCredentialField(session(r), chi.URLParam(r, "id"), field)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FieldResponse{Field: field, Value: v})
}

// ListNotes returns id, title and timestamps of every note.
func (h *VaultHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.Notes.ListNotes(session(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]Summary, 0, len(items))
	for _, n := range items {
		out = append(out, noteSummary(n))
	}
	writeJSON(w, http.StatusOK, out)
}

// AddNote encrypts and stores a note.
func (h *VaultHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req vault.Note
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Notes.AddNote(r.Context(), session(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteSummary(rec))
}

// UpdateNote changes the title and/or content of a note.
func (h *VaultHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req vault.NoteUpdate
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Notes.UpdateNote(r.Context(), session(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteSummary(rec))
}

// DeleteNote removes a note. Unknown ids succeed.
func (h *VaultHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Notes.DeleteNote(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearNotes removes every note.
func (h *VaultHandler) ClearNotes(w http.ResponseWriter, r *http.Request) {
	if err := h.Notes.ClearNotes(r.Context(), session(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetNote returns the title and decrypted content of a note.
func (h *VaultHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notes.OpenNote(session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// RevealNote decrypts the content of a note.
func (h *VaultHandler) RevealNote(w http.ResponseWriter, r *http.Request) {
	v, err := h.Notes.RevealNote(session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FieldResponse{Field: models.FieldContent, Value: v})
}

// ExportNotes downloads every note as plain text.
func (h *VaultHandler) ExportNotes(w http.ResponseWriter, r *http.Request) {
	out, err := h.Notes.ExportNotes(session(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="secured-notes.txt"`)
	_, _ = w.Write([]byte(out))
}
