package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

// SaltSize is the number of random bytes in a salt before hex encoding.
const SaltSize = 16

// DecryptionFailedMarker is shown in place of a field that cannot be decrypted.
const DecryptionFailedMarker = "[Decryption failed]"

// NewSalt returns 16 random bytes, hex encoded.
func NewSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("rand salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// FieldCipher encrypts single fields with AES-256-GCM under a key derived
// from the master password and the field's salt.
type FieldCipher struct {
	scheme Scheme
}

// NewFieldCipher returns a FieldCipher using scheme; nil selects SHA256.
func NewFieldCipher(scheme Scheme) *FieldCipher {
	if scheme == nil {
		scheme = SHA256{}
	}
	return &FieldCipher{scheme: scheme}
}

// Scheme returns the key derivation scheme in use.
func (c *FieldCipher) Scheme() Scheme {
	return c.scheme
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext || tag).
func (c *FieldCipher) Encrypt(plaintext string, masterPassword []byte, salt string) (string, error) {
	gcm, err := c.aead(masterPassword, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends to nonce, producing nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. An empty ciphertext
// yields "" without touching the cipher. Any failure to open, including a
// wrong password or salt, returns ErrDecryptionFailed.
func (c *FieldCipher) Decrypt(ciphertext string, masterPassword []byte, salt string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", verrors.ErrDecryptionFailed, err)
	}

	gcm, err := c.aead(masterPassword, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", verrors.ErrDecryptionFailed)
	}

	plain, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", verrors.ErrDecryptionFailed
	}
	return string(plain), nil
}

// Reveal is Decrypt for display: failures become DecryptionFailedMarker.
func (c *FieldCipher) Reveal(ciphertext string, masterPassword []byte, salt string) string {
	plain, err := c.Decrypt(ciphertext, masterPassword, salt)
	if err != nil {
		return DecryptionFailedMarker
	}
	return plain
}

func (c *FieldCipher) aead(masterPassword []byte, salt string) (cipher.AEAD, error) {
	key := c.scheme.FieldKey(masterPassword, salt)
	defer wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return gcm, nil
}
