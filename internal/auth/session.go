package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/atinyakov/gophvault/internal/crypto"
	verrors "github.com/atinyakov/gophvault/internal/errors"
)

// Session is the unlocked-vault capability. It holds the master password
// sealed in a memguard enclave and is required by every field
// encryption or decryption. Locking the gate destroys it.
//
// A session is granted the areas that were unlocked when it was issued.
// Locking one area revokes that grant; the session dies with its last one.
type Session struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
	cipher  *crypto.FieldCipher
	// areas is nil for a gate without areas.
	areas map[string]bool
}

// newSession seals password; the caller's slice is wiped.
func newSession(password []byte, cipher *crypto.FieldCipher, areas []string) *Session {
	s := &Session{
		enclave: memguard.NewEnclave(password),
		cipher:  cipher,
	}
	if len(areas) > 0 {
		s.areas = make(map[string]bool, len(areas))
		for _, a := range areas {
			s.areas[a] = true
		}
	}
	return s
}

// Alive reports whether the session can still be used.
func (s *Session) Alive() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enclave != nil
}

// Allows reports whether the session is alive and still grants area.
func (s *Session) Allows(area string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enclave != nil && (s.areas == nil || s.areas[area])
}

// Scheme returns the key derivation scheme the session encrypts with.
func (s *Session) Scheme() string {
	return s.cipher.Scheme().Name()
}

// EncryptField encrypts plaintext under a fresh salt. An empty plaintext
// yields an empty ciphertext and salt.
func (s *Session) EncryptField(plaintext string) (ciphertext, salt string, err error) {
	if plaintext == "" {
		return "", "", nil
	}
	salt, err = crypto.NewSalt()
	if err != nil {
		return "", "", err
	}
	err = s.withPassword(func(pw []byte) error {
		var encErr error
		ciphertext, encErr = s.cipher.Encrypt(plaintext, pw, salt)
		return encErr
	})
	if err != nil {
		return "", "", err
	}
	return ciphertext, salt, nil
}

// DecryptField decrypts one field. Wrong keys return ErrDecryptionFailed;
// a destroyed session returns ErrLocked.
func (s *Session) DecryptField(ciphertext, salt string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	var plain string
	err := s.withPassword(func(pw []byte) error {
		var decErr error
		plain, decErr = s.cipher.Decrypt(ciphertext, pw, salt)
		return decErr
	})
	return plain, err
}

// Reveal decrypts for display, substituting crypto.DecryptionFailedMarker
// when the field cannot be read. A locked session still returns an error.
func (s *Session) Reveal(ciphertext, salt string) (string, error) {
	plain, err := s.DecryptField(ciphertext, salt)
	switch {
	case err == nil:
		return plain, nil
	case errors.Is(err, verrors.ErrLocked):
		return "", err
	default:
		return crypto.DecryptionFailedMarker, nil
	}
}

// String keeps the password out of logs and fmt output.
func (s *Session) String() string { return "[redacted]" }

// GoString implements fmt.GoStringer.
func (s *Session) GoString() string { return "auth.Session{[redacted]}" }

// Format implements fmt.Formatter so %v, %+v and %#v never expose fields.
func (s *Session) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(s.String()))
}

func (s *Session) withPassword(fn func(pw []byte) error) error {
	if s == nil {
		return verrors.ErrLocked
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.enclave == nil {
		return verrors.ErrLocked
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return fmt.Errorf("open session enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// revoke drops the grant for area and reports whether the session is
// still alive afterwards.
func (s *Session) revoke(area string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.areas != nil {
		delete(s.areas, area)
		if len(s.areas) > 0 {
			return s.enclave != nil
		}
	}
	s.enclave = nil
	return false
}

func (s *Session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
}
