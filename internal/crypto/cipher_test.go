package crypto

import (
	"encoding/base64"
	"errors"
	"testing"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

func testArgon() Argon2id {
	return Argon2id{Time: 1, Memory: 64, Threads: 1}
}

func TestHashPassword_Deterministic(t *testing.T) {
	h1 := HashPassword("CorrectHorse1", "abc")
	h2 := HashPassword("CorrectHorse1", "abc")
	if h1 != h2 {
		t.Fatalf("HashPassword not deterministic: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d; want 64 hex chars", len(h1))
	}
	if HashPassword("CorrectHorse1", "abd") == h1 {
		t.Error("different salt produced the same hash")
	}
	if HashPassword("CorrectHorse2", "abc") == h1 {
		t.Error("different password produced the same hash")
	}
}

func TestHashPassword_SaltPrefixed(t *testing.T) {
	// SHA-256("abc") with the salt concatenated in front of an empty password.
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashPassword("", "abc"); got != want {
		t.Errorf("HashPassword(\"\", \"abc\") = %s; want %s", got, want)
	}
	if got := HashPassword("c", "ab"); got != want {
		t.Errorf("HashPassword(\"c\", \"ab\") = %s; want %s", got, want)
	}
}

func TestDeriveFieldKey(t *testing.T) {
	got := DeriveFieldKey([]byte("master"), "salt")
	if string(got) != "mastersalt" {
		t.Errorf("DeriveFieldKey = %q; want %q", got, "mastersalt")
	}
}

func TestNewSalt(t *testing.T) {
	s1, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	s2, _ := NewSalt()
	if len(s1) != 2*SaltSize {
		t.Errorf("salt length = %d; want %d", len(s1), 2*SaltSize)
	}
	if s1 == s2 {
		t.Error("two salts are equal")
	}
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	schemes := []Scheme{SHA256{}, testArgon()}
	plaintexts := []string{"a@b.com", "secret", "ünïcødé ✓", "x", string(make([]byte, 1024))}

	for _, scheme := range schemes {
		c := NewFieldCipher(scheme)
		for _, pt := range plaintexts {
			salt, _ := NewSalt()
			ct, err := c.Encrypt(pt, []byte("CorrectHorse1"), salt)
			if err != nil {
				t.Fatalf("%s: Encrypt: %v", scheme.Name(), err)
			}
			if ct == pt {
				t.Fatalf("%s: ciphertext equals plaintext", scheme.Name())
			}
			got, err := c.Decrypt(ct, []byte("CorrectHorse1"), salt)
			if err != nil {
				t.Fatalf("%s: Decrypt: %v", scheme.Name(), err)
			}
			if got != pt {
				t.Errorf("%s: round trip = %q; want %q", scheme.Name(), got, pt)
			}
		}
	}
}

func TestFieldCipher_WrongKey(t *testing.T) {
	c := NewFieldCipher(nil)
	salt, _ := NewSalt()
	ct, err := c.Encrypt("secret", []byte("CorrectHorse1"), salt)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	otherSalt, _ := NewSalt()
	tests := []struct {
		name     string
		password string
		salt     string
	}{
		{"wrong password", "CorrectHorse2", salt},
		{"wrong salt", "CorrectHorse1", otherSalt},
		{"both wrong", "nope", otherSalt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(ct, []byte(tt.password), tt.salt)
			if !errors.Is(err, verrors.ErrDecryptionFailed) {
				t.Fatalf("Decrypt error = %v; want ErrDecryptionFailed", err)
			}
			if got == "secret" {
				t.Fatal("decrypted with the wrong key")
			}
			if r := c.Reveal(ct, []byte(tt.password), tt.salt); r != DecryptionFailedMarker {
				t.Errorf("Reveal = %q; want marker", r)
			}
		})
	}
}

func TestFieldCipher_Malformed(t *testing.T) {
	c := NewFieldCipher(nil)
	for _, ct := range []string{"not base64!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := c.Decrypt(ct, []byte("pw"), "salt"); !errors.Is(err, verrors.ErrDecryptionFailed) {
			t.Errorf("Decrypt(%q) error = %v; want ErrDecryptionFailed", ct, err)
		}
	}
}

func TestFieldCipher_EmptyCiphertext(t *testing.T) {
	c := NewFieldCipher(nil)
	got, err := c.Decrypt("", []byte("anything"), "")
	if err != nil || got != "" {
		t.Errorf("Decrypt(\"\") = %q, %v; want \"\", nil", got, err)
	}
}

func TestFieldCipher_SchemesDiffer(t *testing.T) {
	salt, _ := NewSalt()
	ct, err := NewFieldCipher(SHA256{}).Encrypt("secret", []byte("pw123456"), salt)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := NewFieldCipher(testArgon()).Decrypt(ct, []byte("pw123456"), salt); !errors.Is(err, verrors.ErrDecryptionFailed) {
		t.Errorf("cross-scheme Decrypt error = %v; want ErrDecryptionFailed", err)
	}
}

func TestSchemeByName(t *testing.T) {
	for name, want := range map[string]string{"": SchemeSHA256, "sha256": SchemeSHA256, "argon2id": SchemeArgon2id} {
		s, err := SchemeByName(name)
		if err != nil {
			t.Fatalf("SchemeByName(%q): %v", name, err)
		}
		if s.Name() != want {
			t.Errorf("SchemeByName(%q).Name() = %q; want %q", name, s.Name(), want)
		}
	}
	if _, err := SchemeByName("md5"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}
