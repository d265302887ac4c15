package vault

import (
	"context"
	"fmt"
	"strings"

	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
)

// Credential is the plaintext form of a credential.
type Credential struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

// CredentialUpdate carries the fields to change; nil fields are kept.
type CredentialUpdate struct {
	Title    *string `json:"title,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	URL      *string `json:"url,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// CredentialStore holds encrypted credentials.
type CredentialStore struct {
	c *collection[models.CredentialRecord]
}

// NewCredentialStore wraps the loaded items. persist is called with the
// full collection after each mutation.
func NewCredentialStore(items []models.CredentialRecord, persist PersistFunc[models.CredentialRecord]) *CredentialStore {
	return &CredentialStore{
		c: newCollection(items, func(r *models.CredentialRecord) string { return r.ID }, persist),
	}
}

func validateCredential(title, password string) error {
	if strings.TrimSpace(title) == "" {
		return verrors.InvalidInput("title", "is required")
	}
	if password == "" {
		return verrors.InvalidInput(models.FieldPassword, "is required")
	}
	return nil
}

// Add encrypts every non-empty field under its own salt and stores the record.
func (s *CredentialStore) Add(ctx context.Context, in Credential, cipher Cipher) (models.CredentialRecord, error) {
	if err := validateCredential(in.Title, in.Password); err != nil {
		return models.CredentialRecord{}, err
	}

	rec := models.CredentialRecord{Title: in.Title, CreatedAt: s.c.now()}
	for _, f := range []struct {
		value    string
		ct, salt *string
	}{
		{in.Username, &rec.Username, &rec.UsernameSalt},
		{in.Password, &rec.Password, &rec.PasswordSalt},
		{in.URL, &rec.URL, &rec.URLSalt},
		{in.Notes, &rec.Notes, &rec.NotesSalt},
	} {
		if err := seal(cipher, f.value, f.ct, f.salt); err != nil {
			return models.CredentialRecord{}, err
		}
	}

	err := s.c.mutate(ctx, func(items []models.CredentialRecord) ([]models.CredentialRecord, error) {
		id, err := s.c.newID(items)
		if err != nil {
			return nil, err
		}
		rec.ID = id
		return append(items, rec), nil
	})
	if err != nil {
		return models.CredentialRecord{}, err
	}
	return rec, nil
}

// Update re-encrypts the present fields with fresh salts. Absent fields
// keep their ciphertext and salt unchanged.
func (s *CredentialStore) Update(ctx context.Context, id string, in CredentialUpdate, cipher Cipher) (models.CredentialRecord, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return models.CredentialRecord{}, verrors.InvalidInput("title", "is required")
	}
	if in.Password != nil && *in.Password == "" {
		return models.CredentialRecord{}, verrors.InvalidInput(models.FieldPassword, "is required")
	}

	if _, err := s.c.get(id); err != nil {
		return models.CredentialRecord{}, err
	}

	// The record is read and changed only inside mutate.
	type sealed struct{ ct, salt string }
	var fields [4]*sealed
	for i, v := range []*string{in.Username, in.Password, in.URL, in.Notes} {
		if v == nil {
			continue
		}
		f := &sealed{}
		if err := seal(cipher, *v, &f.ct, &f.salt); err != nil {
			return models.CredentialRecord{}, err
		}
		fields[i] = f
	}

	var rec models.CredentialRecord
	err := s.c.mutate(ctx, func(items []models.CredentialRecord) ([]models.CredentialRecord, error) {
		i := s.c.index(items, id)
		if i < 0 {
			return nil, verrors.ErrNotFound
		}
		rec = items[i]
		if in.Title != nil {
			rec.Title = *in.Title
		}
		for j, dst := range []struct{ ct, salt *string }{
			{&rec.Username, &rec.UsernameSalt},
			{&rec.Password, &rec.PasswordSalt},
			{&rec.URL, &rec.URLSalt},
			{&rec.Notes, &rec.NotesSalt},
		} {
			if f := fields[j]; f != nil {
				*dst.ct, *dst.salt = f.ct, f.salt
			}
		}
		rec.UpdatedAt = s.c.now()
		items[i] = rec
		return items, nil
	})
	if err != nil {
		return models.CredentialRecord{}, err
	}
	return rec, nil
}

// Delete removes the credential; deleting an unknown id is a no-op.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, id)
}

// Clear removes every credential.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.c.clear(ctx)
}

// Get returns the stored record.
func (s *CredentialStore) Get(id string) (models.CredentialRecord, error) {
	return s.c.get(id)
}

// List returns a copy of every record. Only titles are plaintext.
func (s *CredentialStore) List() []models.CredentialRecord {
	return s.c.list()
}

// Len returns the number of credentials.
func (s *CredentialStore) Len() int {
	return s.c.len()
}

// Replace installs already-persisted records, e.g. after a password change.
func (s *CredentialStore) Replace(items []models.CredentialRecord) {
	s.c.replace(items)
}

// Reveal decrypts one field of a credential for display.
func (s *CredentialStore) Reveal(id, field string, cipher Cipher) (string, error) {
	rec, err := s.c.get(id)
	if err != nil {
		return "", err
	}
	ct, salt, err := credentialField(rec, field)
	if err != nil {
		return "", err
	}
	return cipher.Reveal(ct, salt)
}

// Open decrypts every field of a credential.
func (s *CredentialStore) Open(id string, cipher Cipher) (Credential, error) {
	rec, err := s.c.get(id)
	if err != nil {
		return Credential{}, err
	}
	out := Credential{Title: rec.Title}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{models.FieldUsername, &out.Username},
		{models.FieldPassword, &out.Password},
		{models.FieldURL, &out.URL},
		{models.FieldNotes, &out.Notes},
	} {
		ct, salt, _ := credentialField(rec, f.name)
		if *f.dst, err = cipher.Reveal(ct, salt); err != nil {
			return Credential{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return out, nil
}

func credentialField(rec models.CredentialRecord, field string) (ciphertext, salt string, err error) {
	switch field {
	case models.FieldUsername:
		return rec.Username, rec.UsernameSalt, nil
	case models.FieldPassword:
		return rec.Password, rec.PasswordSalt, nil
	case models.FieldURL:
		return rec.URL, rec.URLSalt, nil
	case models.FieldNotes:
		return rec.Notes, rec.NotesSalt, nil
	}
	return "", "", verrors.InvalidInput("field", fmt.Sprintf("unknown credential field %q", field))
}
