// Package crypto implements master password hashing, per-field key
// derivation and field-level encryption.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Scheme names.
const (
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"
)

// Scheme turns a master password and a salt into a verification hash and
// a symmetric field key. Implementations are deterministic.
type Scheme interface {
	Name() string
	// HashPassword returns the hex verification hash of password under salt.
	HashPassword(password []byte, salt string) string
	// FieldKey returns a 32-byte AES key for one field.
	FieldKey(masterPassword []byte, fieldSalt string) []byte
}

// HashPassword returns hex(SHA-256(salt || password)).
func HashPassword(password, salt string) string {
	return SHA256{}.HashPassword([]byte(password), salt)
}

// DeriveFieldKey returns the key material masterPassword || fieldSalt.
func DeriveFieldKey(masterPassword []byte, fieldSalt string) []byte {
	material := make([]byte, 0, len(masterPassword)+len(fieldSalt))
	material = append(material, masterPassword...)
	return append(material, fieldSalt...)
}

// SHA256 is the single-pass scheme: one SHA-256 over the key material.
// It offers no stretching against offline guessing.
type SHA256 struct{}

// Name implements Scheme.
func (SHA256) Name() string { return SchemeSHA256 }

// HashPassword implements Scheme.
func (SHA256) HashPassword(password []byte, salt string) string {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write(password)
	return hex.EncodeToString(h.Sum(nil))
}

// FieldKey implements Scheme.
func (SHA256) FieldKey(masterPassword []byte, fieldSalt string) []byte {
	material := DeriveFieldKey(masterPassword, fieldSalt)
	defer wipe(material)
	key := sha256.Sum256(material)
	return key[:]
}

// Argon2id stretches every derivation with argon2id.
type Argon2id struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2id returns interactive-login parameters.
func DefaultArgon2id() Argon2id {
	return Argon2id{Time: 1, Memory: 64 * 1024, Threads: 4}
}

// Name implements Scheme.
func (Argon2id) Name() string { return SchemeArgon2id }

// HashPassword implements Scheme.
func (a Argon2id) HashPassword(password []byte, salt string) string {
	return hex.EncodeToString(argon2.IDKey(password, []byte(salt), a.Time, a.Memory, a.Threads, 32))
}

// FieldKey implements Scheme.
func (a Argon2id) FieldKey(masterPassword []byte, fieldSalt string) []byte {
	return argon2.IDKey(masterPassword, []byte(fieldSalt), a.Time, a.Memory, a.Threads, 32)
}

// SchemeByName resolves a stored scheme name. Empty means SHA256.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", SchemeSHA256:
		return SHA256{}, nil
	case SchemeArgon2id:
		return DefaultArgon2id(), nil
	}
	return nil, fmt.Errorf("unknown key derivation scheme %q", name)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
