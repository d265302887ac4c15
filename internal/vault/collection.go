// Package vault keeps the credential and secure note collections in
// memory and persists them through an injected function. Every mutation
// works on a copy; the copy replaces the live slice only after it has
// been written.
package vault

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

// Cipher encrypts and reveals single fields. *auth.Session implements it.
type Cipher interface {
	EncryptField(plaintext string) (ciphertext, salt string, err error)
	Reveal(ciphertext, salt string) (string, error)
}

// PersistFunc writes the whole collection.
type PersistFunc[T any] func(ctx context.Context, items []T) error

type collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	id      func(*T) string
	persist PersistFunc[T]
	now     func() time.Time
}

func newCollection[T any](items []T, id func(*T) string, persist PersistFunc[T]) *collection[T] {
	if items == nil {
		items = []T{}
	}
	return &collection[T]{
		items:   items,
		id:      id,
		persist: persist,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// mutate applies fn to a copy of the items, persists the result and only
// then installs it.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(slices.Clone(c.items))
	if err != nil {
		return err
	}
	if c.persist != nil {
		if err := c.persist(ctx, next); err != nil {
			return fmt.Errorf("%w: %w", verrors.ErrPersistence, err)
		}
	}
	c.items = next
	return nil
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *collection[T]) get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(c.items, id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, verrors.ErrNotFound
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// replace installs items without persisting them.
func (c *collection[T]) replace(items []T) {
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(items)
}

func (c *collection[T]) index(items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return c.id(&it) == id })
}

func (c *collection[T]) delete(ctx context.Context, id string) error {
	c.mu.RLock()
	found := c.index(c.items, id) >= 0
	c.mu.RUnlock()
	if !found {
		return nil
	}
	return c.mutate(ctx, func(items []T) ([]T, error) {
		i := c.index(items, id)
		if i < 0 {
			return items, nil
		}
		return slices.Delete(items, i, i+1), nil
	})
}

func (c *collection[T]) clear(ctx context.Context) error {
	return c.mutate(ctx, func([]T) ([]T, error) { return []T{}, nil })
}

// newID returns a time-ordered id that does not collide with items.
func (c *collection[T]) newID(items []T) (string, error) {
	for {
		u, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		if id := u.String(); c.index(items, id) < 0 {
			return id, nil
		}
	}
}

// seal encrypts value into the ciphertext and salt pointers.
func seal(cipher Cipher, value string, ciphertext, salt *string) error {
	ct, s, err := cipher.EncryptField(value)
	if err != nil {
		return err
	}
	*ciphertext, *salt = ct, s
	return nil
}
