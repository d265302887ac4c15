package vault

import (
	"context"
	"strings"

	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
)

// Note is the plaintext form of a secure note.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteUpdate carries the fields to change; nil fields are kept.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NoteStore holds encrypted secure notes.
type NoteStore struct {
	c *collection[models.SecureNoteRecord]
}

func NewNoteStore(items []models.SecureNoteRecord, persist PersistFunc[models.SecureNoteRecord]) *NoteStore {
	return &NoteStore{
		c: newCollection(items, func(r *models.SecureNoteRecord) string { return r.ID }, persist),
	}
}

// Add encrypts the content under a fresh salt and stores the note.
func (s *NoteStore) Add(ctx context.Context, in Note, cipher Cipher) (models.SecureNoteRecord, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.SecureNoteRecord{}, verrors.InvalidInput("title", "is required")
	}
	rec := models.SecureNoteRecord{Title: in.Title, CreatedAt: s.c.now()}
	if err := seal(cipher, in.Content, &rec.Content, &rec.ContentSalt); err != nil {
		return models.SecureNoteRecord{}, err
	}

	err := s.c.mutate(ctx, func(items []models.SecureNoteRecord) ([]models.SecureNoteRecord, error) {
		id, err := s.c.newID(items)
		if err != nil {
			return nil, err
		}
		rec.ID = id
		return append(items, rec), nil
	})
	if err != nil {
		return models.SecureNoteRecord{}, err
	}
	return rec, nil
}

// Update changes the present fields. A title-only update keeps the
// content ciphertext and salt.
func (s *NoteStore) Update(ctx context.Context, id string, in NoteUpdate, cipher Cipher) (models.SecureNoteRecord, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return models.SecureNoteRecord{}, verrors.InvalidInput("title", "is required")
	}
	if _, err := s.c.get(id); err != nil {
		return models.SecureNoteRecord{}, err
	}
	var content, contentSalt string
	if in.Content != nil {
		if err := seal(cipher, *in.Content, &content, &contentSalt); err != nil {
			return models.SecureNoteRecord{}, err
		}
	}

	var rec models.SecureNoteRecord
	err := s.c.mutate(ctx, func(items []models.SecureNoteRecord) ([]models.SecureNoteRecord, error) {
		i := s.c.index(items, id)
		if i < 0 {
			return nil, verrors.ErrNotFound
		}
		rec = items[i]
		if in.Title != nil {
			rec.Title = *in.Title
		}
		if in.Content != nil {
			rec.Content, rec.ContentSalt = content, contentSalt
		}
		rec.UpdatedAt = s.c.now()
		items[i] = rec
		return items, nil
	})
	if err != nil {
		return models.SecureNoteRecord{}, err
	}
	return rec, nil
}

func (s *NoteStore) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, id)
}

func (s *NoteStore) Clear(ctx context.Context) error {
	return s.c.clear(ctx)
}

func (s *NoteStore) Get(id string) (models.SecureNoteRecord, error) {
	return s.c.get(id)
}

func (s *NoteStore) List() []models.SecureNoteRecord {
	return s.c.list()
}

func (s *NoteStore) Len() int {
	return s.c.len()
}

func (s *NoteStore) Replace(items []models.SecureNoteRecord) {
	s.c.replace(items)
}

// Open returns the note with its content decrypted.
func (s *NoteStore) Open(id string, cipher Cipher) (Note, error) {
	rec, err := s.c.get(id)
	if err != nil {
		return Note{}, err
	}
	content, err := cipher.Reveal(rec.Content, rec.ContentSalt)
	if err != nil {
		return Note{}, err
	}
	return Note{Title: rec.Title, Content: content}, nil
}

// Reveal decrypts the note content for display.
func (s *NoteStore) Reveal(id string, cipher Cipher) (string, error) {
	rec, err := s.c.get(id)
	if err != nil {
		return "", err
	}
	return cipher.Reveal(rec.Content, rec.ContentSalt)
}
