// Package storage provides key/value stores of text blobs with an atomic
// read-modify-write primitive. It plays the part browser local storage
// played for the old pages, with a real transaction boundary.
package storage

import (
	"context"
	"errors"
)

// ErrConflict is returned when an optimistic update kept losing to
// concurrent writers.
var ErrConflict = errors.New("storage: concurrent update conflict")

// UpdateFunc receives the current value and reports the value to write.
// Returning an error aborts the update and leaves the stored value unchanged.
type UpdateFunc func(current string, exists bool) (string, error)

// BlobStore holds text values under string keys.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Update runs fn and stores its result as one atomic step relative to
	// every other Update on the same key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}
