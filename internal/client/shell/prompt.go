package shell

import (
	"fmt"
	"io"

	"github.com/atinyakov/gophvault/internal/vault"
)

// line prints prompt and reads one input line.
func (s *Shell) line(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return s.scanner.Text(), nil
}

func (s *Shell) password(prompt string) (string, error) {
	if s.readPassword == nil {
		return s.line(prompt)
	}
	return s.readPassword(prompt)
}

// optional returns nil when the user left the answer empty.
func (s *Shell) optional(prompt string, secret bool) (*string, error) {
	read := s.line
	if secret {
		read = s.password
	}
	v, err := read(prompt)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

func (s *Shell) promptCredential() (vault.Credential, error) {
	var c vault.Credential
	var err error
	if c.Title, err = s.line("Title: "); err != nil {
		return c, err
	}
	if c.Username, err = s.line("Username: "); err != nil {
		return c, err
	}
	if c.Password, err = s.password("Password: "); err != nil {
		return c, err
	}
	if c.URL, err = s.line("URL: "); err != nil {
		return c, err
	}
	c.Notes, err = s.line("Notes: ")
	return c, err
}

func (s *Shell) promptCredentialUpdate() (vault.CredentialUpdate, error) {
	var u vault.CredentialUpdate
	fmt.Fprintln(s.out, "Leave a field empty to keep it.")
	fields := []struct {
		prompt string
		secret bool
		dst    **string
	}{
		{"Title: ", false, &u.Title},
		{"Username: ", false, &u.Username},
		{"Password: ", true, &u.Password},
		{"URL: ", false, &u.URL},
		{"Notes: ", false, &u.Notes},
	}
	for _, f := range fields {
		v, err := s.optional(f.prompt, f.secret)
		if err != nil {
			return u, err
		}
		*f.dst = v
	}
	return u, nil
}

func (s *Shell) promptNote() (vault.Note, error) {
	var n vault.Note
	var err error
	if n.Title, err = s.line("Title: "); err != nil {
		return n, err
	}
	n.Content, err = s.line("Content: ")
	return n, err
}
