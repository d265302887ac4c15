// Package models defines the persisted records and documents of the vault.
package models

import "time"

// Store names, one persisted document each.
const (
	StoreVault    = "vault"
	StoreNotes    = "notes"
	StoreSettings = "settings"
)

// MasterPasswordRecord holds the verification hash of the master password.
// Invariant: Hash = H(Salt || password). The plaintext is never stored.
type MasterPasswordRecord struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
	// Scheme names the key derivation scheme; empty means "sha256".
	Scheme string `json:"scheme,omitempty"`
}

// IsSet reports whether both hash and salt are present.
func (r MasterPasswordRecord) IsSet() bool {
	return r.Hash != "" && r.Salt != ""
}

// CredentialRecord is a stored login. Title is plaintext; every other
// text field is encrypted with the master password and its own salt.
type CredentialRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Username     string    `json:"username"`
	UsernameSalt string    `json:"usernameSalt"`
	Password     string    `json:"password"`
	PasswordSalt string    `json:"passwordSalt"`
	URL          string    `json:"url"`
	URLSalt      string    `json:"urlSalt"`
	Notes        string    `json:"notes"`
	NotesSalt    string    `json:"notesSalt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

// SecureNoteRecord is a stored note with encrypted, salted content.
type SecureNoteRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentSalt string    `json:"contentSalt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Credential field names accepted by field-level operations.
const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldURL      = "url"
	FieldNotes    = "notes"
	FieldContent  = "content"
)

// CredentialFields lists the encrypted credential fields.
var CredentialFields = []string{FieldUsername, FieldPassword, FieldURL, FieldNotes}

// Document is the persisted shape of the vault and notes stores.
type Document[T any] struct {
	Items              []T                  `json:"items"`
	MasterPasswordHash MasterPasswordRecord `json:"masterPasswordHash"`
	IsLocked           bool                 `json:"isLocked"`
	HasPasswordSet     bool                 `json:"hasPasswordSet"`
}

// VaultState is the credentials document.
type VaultState = Document[CredentialRecord]

// NotesState is the secure notes document.
type NotesState = Document[SecureNoteRecord]

// Normalize re-derives HasPasswordSet and IsLocked from the stored hash.
// A vault without a password is never locked; a vault with one always
// loads locked because the plaintext password does not survive a reload.
func (d *Document[T]) Normalize() {
	d.HasPasswordSet = d.MasterPasswordHash.IsSet()
	d.IsLocked = d.HasPasswordSet
	if d.Items == nil {
		d.Items = []T{}
	}
}

// Snapshot is everything the repository loads at startup.
type Snapshot struct {
	Vault    VaultState
	Notes    NotesState
	Settings Settings
}
