package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/gophvault/internal/auth"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/lockpolicy"
	"github.com/atinyakov/gophvault/internal/models"
	"github.com/atinyakov/gophvault/internal/vault"
)

// AddCredential encrypts and stores a new credential.
func (k *Keeper) AddCredential(ctx context.Context, s *auth.Session, in vault.Credential) (models.CredentialRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return models.CredentialRecord{}, err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	rec, err := k.credentials.Add(ctx, in, s)
	if err != nil {
		return models.CredentialRecord{}, err
	}
	k.log.Debug("credential added", zap.String("id", rec.ID))
	return rec, nil
}

// UpdateCredential changes the present fields of a credential.
func (k *Keeper) UpdateCredential(ctx context.Context, s *auth.Session, id string, in vault.CredentialUpdate) (models.CredentialRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return models.CredentialRecord{}, err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.credentials.Update(ctx, id, in, s)
}

// DeleteCredential removes a credential; unknown ids are ignored.
func (k *Keeper) DeleteCredential(ctx context.Context, s *auth.Session, id string) error {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.credentials.Delete(ctx, id)
}

// ClearCredentials removes every credential.
func (k *Keeper) ClearCredentials(ctx context.Context, s *auth.Session) error {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.credentials.Clear(ctx)
}

// RevealCredentialField decrypts one field of a credential.
func (k *Keeper) RevealCredentialField(s *auth.Session, id, field string) (string, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return "", err
	}
	return k.credentials.Reveal(id, field, s)
}

// OpenCredential decrypts every field of a credential.
func (k *Keeper) OpenCredential(s *auth.Session, id string) (vault.Credential, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return vault.Credential{}, err
	}
	return k.credentials.Open(id, s)
}

// AddNote encrypts and stores a new secure note.
func (k *Keeper) AddNote(ctx context.Context, s *auth.Session, in vault.Note) (models.SecureNoteRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return models.SecureNoteRecord{}, err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	rec, err := k.notes.Add(ctx, in, s)
	if err != nil {
		return models.SecureNoteRecord{}, err
	}
	k.log.Debug("note added", zap.String("id", rec.ID))
	return rec, nil
}

// UpdateNote changes the present fields of a note.
func (k *Keeper) UpdateNote(ctx context.Context, s *auth.Session, id string, in vault.NoteUpdate) (models.SecureNoteRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return models.SecureNoteRecord{}, err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.notes.Update(ctx, id, in, s)
}

// DeleteNote removes a note; unknown ids are ignored.
func (k *Keeper) DeleteNote(ctx context.Context, s *auth.Session, id string) error {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.notes.Delete(ctx, id)
}

// ClearNotes removes every note.
func (k *Keeper) ClearNotes(ctx context.Context, s *auth.Session) error {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return err
	}
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.notes.Clear(ctx)
}

// RevealNote decrypts the content of a note.
func (k *Keeper) RevealNote(s *auth.Session, id string) (string, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return "", err
	}
	return k.notes.Reveal(id, s)
}

// OpenNote decrypts a note with its title.
func (k *Keeper) OpenNote(s *auth.Session, id string) (vault.Note, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return vault.Note{}, err
	}
	return k.notes.Open(id, s)
}

// ExportNotes renders every note as plain text for download.
func (k *Keeper) ExportNotes(s *auth.Session) (string, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("SECURED NOTES EXPORT\n\n")
	for _, n := range k.notes.List() {
		content, err := s.Reveal(n.Content, n.ContentSalt)
		if err != nil {
			return "", fmt.Errorf("note %s: %w", n.ID, err)
		}
		fmt.Fprintf(&b, "Title: %s\n", n.Title)
		fmt.Fprintf(&b, "Date: %s\n", n.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "Content: %s\n\n", content)
		b.WriteString("------------------------\n\n")
	}
	return b.String(), nil
}

// ListCredentials returns the stored credentials, still encrypted.
func (k *Keeper) ListCredentials(s *auth.Session) ([]models.CredentialRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaCredentials); err != nil {
		return nil, err
	}
	return k.credentials.List(), nil
}

// ListNotes returns the stored notes, still encrypted.
func (k *Keeper) ListNotes(s *auth.Session) ([]models.SecureNoteRecord, error) {
	if err := k.requireUnlocked(s, lockpolicy.AreaNotes); err != nil {
		return nil, err
	}
	return k.notes.List(), nil
}

// requireUnlocked rejects a destroyed session, or one whose area has been
// locked since it was issued, before any encryption is attempted.
func (k *Keeper) requireUnlocked(s *auth.Session, area string) error {
	if !s.Allows(area) {
		return verrors.ErrLocked
	}
	return nil
}
