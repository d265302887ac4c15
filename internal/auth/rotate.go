package auth

import (
	"fmt"

	"github.com/atinyakov/gophvault/internal/crypto"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
)

// Rotation is the result of a master password change, handed to the
// caller's commit function to be persisted in one step.
type Rotation struct {
	Record      models.MasterPasswordRecord
	Credentials []models.CredentialRecord
	Notes       []models.SecureNoteRecord
}

// ChangeMasterPassword verifies oldPassword, then re-encrypts every
// sensitive field of credentials and notes under newPassword with fresh
// salts. Nothing changes unless commit succeeds; on success every old
// session is destroyed and a session for newPassword is returned.
func (g *Gate) ChangeMasterPassword(
	oldPassword, newPassword string,
	credentials []models.CredentialRecord,
	notes []models.SecureNoteRecord,
	commit func(Rotation) error,
) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.record.IsSet() {
		return nil, verrors.ErrNoPasswordSet
	}
	oldScheme, err := g.scheme(g.record.Scheme)
	if err != nil {
		return nil, err
	}
	if !matches(g.record, oldScheme, oldPassword) {
		return nil, verrors.ErrAuthenticationFailed
	}
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	record, err := newRecord(newPassword, g.preferred)
	if err != nil {
		return nil, err
	}

	r := &reencrypter{
		from:  crypto.NewFieldCipher(oldScheme),
		to:    crypto.NewFieldCipher(g.preferred),
		oldPw: []byte(oldPassword),
		newPw: []byte(newPassword),
	}
	defer r.wipe()

	rotation := Rotation{
		Record:      record,
		Credentials: make([]models.CredentialRecord, 0, len(credentials)),
		Notes:       make([]models.SecureNoteRecord, 0, len(notes)),
	}
	for _, c := range credentials {
		rc, err := r.credential(c)
		if err != nil {
			return nil, fmt.Errorf("re-encrypt credential %s: %w", c.ID, err)
		}
		rotation.Credentials = append(rotation.Credentials, rc)
	}
	for _, n := range notes {
		rn, err := r.note(n)
		if err != nil {
			return nil, fmt.Errorf("re-encrypt note %s: %w", n.ID, err)
		}
		rotation.Notes = append(rotation.Notes, rn)
	}

	if commit != nil {
		if err := commit(rotation); err != nil {
			return nil, err
		}
	}

	g.destroySessions()
	g.record = record
	g.unlockAll()
	return g.issue(newPassword, g.preferred), nil
}

type reencrypter struct {
	from, to     *crypto.FieldCipher
	oldPw, newPw []byte
}

func (r *reencrypter) field(ciphertext, salt string) (string, string, error) {
	if ciphertext == "" {
		return "", "", nil
	}
	plain, err := r.from.Decrypt(ciphertext, r.oldPw, salt)
	if err != nil {
		return "", "", err
	}
	newSalt, err := crypto.NewSalt()
	if err != nil {
		return "", "", err
	}
	ct, err := r.to.Encrypt(plain, r.newPw, newSalt)
	if err != nil {
		return "", "", err
	}
	return ct, newSalt, nil
}

func (r *reencrypter) credential(c models.CredentialRecord) (models.CredentialRecord, error) {
	var err error
	if c.Username, c.UsernameSalt, err = r.field(c.Username, c.UsernameSalt); err != nil {
		return c, fmt.Errorf("%s: %w", models.FieldUsername, err)
	}
	if c.Password, c.PasswordSalt, err = r.field(c.Password, c.PasswordSalt); err != nil {
		return c, fmt.Errorf("%s: %w", models.FieldPassword, err)
	}
	if c.URL, c.URLSalt, err = r.field(c.URL, c.URLSalt); err != nil {
		return c, fmt.Errorf("%s: %w", models.FieldURL, err)
	}
	if c.Notes, c.NotesSalt, err = r.field(c.Notes, c.NotesSalt); err != nil {
		return c, fmt.Errorf("%s: %w", models.FieldNotes, err)
	}
	return c, nil
}

func (r *reencrypter) note(n models.SecureNoteRecord) (models.SecureNoteRecord, error) {
	var err error
	if n.Content, n.ContentSalt, err = r.field(n.Content, n.ContentSalt); err != nil {
		return n, fmt.Errorf("%s: %w", models.FieldContent, err)
	}
	return n, nil
}

func (r *reencrypter) wipe() {
	for _, b := range [][]byte{r.oldPw, r.newPw} {
		for i := range b {
			b[i] = 0
		}
	}
}
