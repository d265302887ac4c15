package vault_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/gophvault/internal/auth"
	"github.com/atinyakov/gophvault/internal/crypto"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
	"github.com/atinyakov/gophvault/internal/vault"
)

func unlocked(t *testing.T) (*auth.Gate, *auth.Session) {
	t.Helper()
	g := auth.NewGate(models.MasterPasswordRecord{}, nil)
	s, err := g.CreateMasterPassword("CorrectHorse1", nil)
	require.NoError(t, err)
	return g, s
}

type recorder[T any] struct {
	calls int
	last  []T
	err   error
}

func (r *recorder[T]) persist(_ context.Context, items []T) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.last = items
	return nil
}

func strPtr(s string) *string { return &s }

func TestCredentialStore_AddAndReveal(t *testing.T) {
	_, s := unlocked(t)
	rec := &recorder[models.CredentialRecord]{}
	store := vault.NewCredentialStore(nil, rec.persist)

	c, err := store.Add(context.Background(), vault.Credential{
		Title:    "Gmail",
		Username: "a@b.com",
		Password: "secret",
	}, s)
	require.NoError(t, err)

	assert.Len(t, store.List(), 1)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, store.List(), rec.last)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Gmail", c.Title)
	assert.NotEqual(t, "secret", c.Password)
	assert.NotEmpty(t, c.PasswordSalt)
	assert.NotEqual(t, c.UsernameSalt, c.PasswordSalt)
	assert.Empty(t, c.URL)
	assert.Empty(t, c.URLSalt)
	assert.Empty(t, c.Notes)
	assert.Empty(t, c.NotesSalt)
	assert.False(t, c.CreatedAt.IsZero())

	pw, err := store.Reveal(c.ID, models.FieldPassword, s)
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	open, err := store.Open(c.ID, s)
	require.NoError(t, err)
	assert.Equal(t, vault.Credential{Title: "Gmail", Username: "a@b.com", Password: "secret"}, open)
}

func TestCredentialStore_GmailScenario(t *testing.T) {
	g, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)

	c, err := store.Add(context.Background(), vault.Credential{Title: "Gmail", Username: "a@b.com", Password: "secret"}, s)
	require.NoError(t, err)

	g.Lock()
	_, err = store.Reveal(c.ID, models.FieldPassword, s)
	require.ErrorIs(t, err, verrors.ErrLocked)

	s2, err := g.Verify("CorrectHorse1")
	require.NoError(t, err)
	pw, err := store.Reveal(c.ID, models.FieldPassword, s2)
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
}

func TestCredentialStore_Validation(t *testing.T) {
	_, s := unlocked(t)
	rec := &recorder[models.CredentialRecord]{}
	store := vault.NewCredentialStore(nil, rec.persist)

	tests := []struct {
		name  string
		in    vault.Credential
		field string
	}{
		{name: "empty title", in: vault.Credential{Password: "p"}, field: "title"},
		{name: "blank title", in: vault.Credential{Title: "   ", Password: "p"}, field: "title"},
		{name: "empty password", in: vault.Credential{Title: "Gmail"}, field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Add(context.Background(), tt.in, s)
			require.ErrorIs(t, err, verrors.ErrInvalidInput)
			var ie *verrors.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
	assert.Zero(t, rec.calls)
	assert.Zero(t, store.Len())
}

func TestCredentialStore_AddThenDeleteIsNetZero(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()

	first, err := store.Add(ctx, vault.Credential{Title: "a", Password: "1"}, s)
	require.NoError(t, err)
	before := store.List()

	c, err := store.Add(ctx, vault.Credential{Title: "b", Password: "2"}, s)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, c.ID)
	require.NoError(t, store.Delete(ctx, c.ID))

	assert.Equal(t, before, store.List())
}

func TestCredentialStore_DeleteUnknownIsNoop(t *testing.T) {
	rec := &recorder[models.CredentialRecord]{}
	store := vault.NewCredentialStore(nil, rec.persist)
	require.NoError(t, store.Delete(context.Background(), "missing"))
	assert.Zero(t, rec.calls)
}

func TestCredentialStore_TitleOnlyUpdate(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()

	orig, err := store.Add(ctx, vault.Credential{Title: "Gmail", Username: "a@b.com", Password: "secret", URL: "https://mail.google.com", Notes: "n"}, s)
	require.NoError(t, err)

	got, err := store.Update(ctx, orig.ID, vault.CredentialUpdate{Title: strPtr("Google Mail")}, s)
	require.NoError(t, err)

	assert.Equal(t, "Google Mail", got.Title)
	assert.Equal(t, orig.Username, got.Username)
	assert.Equal(t, orig.UsernameSalt, got.UsernameSalt)
	assert.Equal(t, orig.Password, got.Password)
	assert.Equal(t, orig.PasswordSalt, got.PasswordSalt)
	assert.Equal(t, orig.URL, got.URL)
	assert.Equal(t, orig.URLSalt, got.URLSalt)
	assert.Equal(t, orig.Notes, got.Notes)
	assert.Equal(t, orig.NotesSalt, got.NotesSalt)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCredentialStore_FieldUpdate(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()

	orig, err := store.Add(ctx, vault.Credential{Title: "Gmail", Username: "a@b.com", Password: "secret", URL: "https://x"}, s)
	require.NoError(t, err)

	got, err := store.Update(ctx, orig.ID, vault.CredentialUpdate{
		Password: strPtr("n3w"),
		URL:      strPtr(""),
	}, s)
	require.NoError(t, err)

	assert.NotEqual(t, orig.PasswordSalt, got.PasswordSalt)
	assert.Equal(t, orig.UsernameSalt, got.UsernameSalt)
	assert.Empty(t, got.URL)
	assert.Empty(t, got.URLSalt)

	pw, err := store.Reveal(orig.ID, models.FieldPassword, s)
	require.NoError(t, err)
	assert.Equal(t, "n3w", pw)
}

func TestCredentialStore_UpdateErrors(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()

	_, err := store.Update(ctx, "missing", vault.CredentialUpdate{Title: strPtr("x")}, s)
	assert.ErrorIs(t, err, verrors.ErrNotFound)

	c, err := store.Add(ctx, vault.Credential{Title: "a", Password: "1"}, s)
	require.NoError(t, err)
	_, err = store.Update(ctx, c.ID, vault.CredentialUpdate{Title: strPtr("")}, s)
	assert.ErrorIs(t, err, verrors.ErrInvalidInput)
	_, err = store.Update(ctx, c.ID, vault.CredentialUpdate{Password: strPtr("")}, s)
	assert.ErrorIs(t, err, verrors.ErrInvalidInput)
}

func TestCredentialStore_PersistFailureLeavesMemory(t *testing.T) {
	_, s := unlocked(t)
	rec := &recorder[models.CredentialRecord]{}
	store := vault.NewCredentialStore(nil, rec.persist)
	ctx := context.Background()

	c, err := store.Add(ctx, vault.Credential{Title: "a", Password: "1"}, s)
	require.NoError(t, err)
	before := store.List()

	rec.err = errors.New("quota exceeded")

	_, err = store.Add(ctx, vault.Credential{Title: "b", Password: "2"}, s)
	assert.ErrorIs(t, err, verrors.ErrPersistence)
	_, err = store.Update(ctx, c.ID, vault.CredentialUpdate{Title: strPtr("z")}, s)
	assert.ErrorIs(t, err, verrors.ErrPersistence)
	assert.ErrorIs(t, store.Delete(ctx, c.ID), verrors.ErrPersistence)
	assert.ErrorIs(t, store.Clear(ctx), verrors.ErrPersistence)

	assert.Equal(t, before, store.List())
}

func TestCredentialStore_RevealErrors(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	c, err := store.Add(context.Background(), vault.Credential{Title: "a", Password: "1"}, s)
	require.NoError(t, err)

	_, err = store.Reveal("missing", models.FieldPassword, s)
	assert.ErrorIs(t, err, verrors.ErrNotFound)
	_, err = store.Reveal(c.ID, "title", s)
	assert.ErrorIs(t, err, verrors.ErrInvalidInput)

	tampered := store.List()
	tampered[0].PasswordSalt = "0000"
	store.Replace(tampered)
	got, err := store.Reveal(c.ID, models.FieldPassword, s)
	require.NoError(t, err)
	assert.Equal(t, crypto.DecryptionFailedMarker, got)
}

func TestCredentialStore_Clear(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := store.Add(ctx, vault.Credential{Title: title, Password: "p"}, s)
		require.NoError(t, err)
	}
	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, store.List())
	assert.NotNil(t, store.List())
}

func TestNoteStore(t *testing.T) {
	_, s := unlocked(t)
	rec := &recorder[models.SecureNoteRecord]{}
	store := vault.NewNoteStore(nil, rec.persist)
	ctx := context.Background()

	_, err := store.Add(ctx, vault.Note{Content: "x"}, s)
	require.ErrorIs(t, err, verrors.ErrInvalidInput)

	n, err := store.Add(ctx, vault.Note{Title: "diary", Content: "dear diary"}, s)
	require.NoError(t, err)
	assert.NotEmpty(t, n.ContentSalt)
	assert.NotEqual(t, "dear diary", n.Content)

	content, err := store.Reveal(n.ID, s)
	require.NoError(t, err)
	assert.Equal(t, "dear diary", content)

	renamed, err := store.Update(ctx, n.ID, vault.NoteUpdate{Title: strPtr("journal")}, s)
	require.NoError(t, err)
	assert.Equal(t, n.Content, renamed.Content)
	assert.Equal(t, n.ContentSalt, renamed.ContentSalt)

	edited, err := store.Update(ctx, n.ID, vault.NoteUpdate{Content: strPtr("new text")}, s)
	require.NoError(t, err)
	assert.Equal(t, "journal", edited.Title)
	assert.NotEqual(t, n.ContentSalt, edited.ContentSalt)

	content, err = store.Reveal(n.ID, s)
	require.NoError(t, err)
	assert.Equal(t, "new text", content)

	require.NoError(t, store.Delete(ctx, n.ID))
	assert.Zero(t, store.Len())
	_, err = store.Get(n.ID)
	assert.ErrorIs(t, err, verrors.ErrNotFound)
	assert.Equal(t, 4, rec.calls)
}

func TestCredentialStore_ConcurrentFieldUpdates(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewCredentialStore(nil, nil)
	ctx := context.Background()
	c, err := store.Add(ctx, vault.Credential{Title: "Gmail", Username: "old", Password: "secret"}, s)
	require.NoError(t, err)

	updates := []vault.CredentialUpdate{
		{Title: strPtr("Work mail")},
		{Username: strPtr("a@b.com")},
		{URL: strPtr("https://mail.example.com")},
		{Notes: strPtr("recovery codes in the safe")},
	}
	for range 20 {
		var wg sync.WaitGroup
		for _, u := range updates {
			wg.Go(func() {
				_, err := store.Update(ctx, c.ID, u, s)
				assert.NoError(t, err)
			})
		}
		wg.Wait()
	}

	got, err := store.Open(c.ID, s)
	require.NoError(t, err)
	assert.Equal(t, vault.Credential{
		Title:    "Work mail",
		Username: "a@b.com",
		Password: "secret",
		URL:      "https://mail.example.com",
		Notes:    "recovery codes in the safe",
	}, got)
}

func TestNoteStore_ConcurrentUpdates(t *testing.T) {
	_, s := unlocked(t)
	store := vault.NewNoteStore(nil, nil)
	ctx := context.Background()
	n, err := store.Add(ctx, vault.Note{Title: "Wifi", Content: "old"}, s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := store.Update(ctx, n.ID, vault.NoteUpdate{Title: strPtr("Home wifi")}, s)
		assert.NoError(t, err)
	})
	wg.Go(func() {
		_, err := store.Update(ctx, n.ID, vault.NoteUpdate{Content: strPtr("hunter2")}, s)
		assert.NoError(t, err)
	})
	wg.Wait()

	got, err := store.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home wifi", got.Title)
	content, err := store.Reveal(n.ID, s)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", content)
}
