// Package storage persists the client's UI state between runs: the
// selected inbox, the list of known inboxes and the selected notifications.
//
// A StorageBackend is a small key/value store; State layers the typed
// accessors on top of it. Values are stored as JSON.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for keys that have no value.
var ErrNotFound = errors.New("key not found")

// ErrNotInitialized is returned when a backend is used before Initialize or
// after Close.
var ErrNotInitialized = errors.New("storage backend not initialized")

// StorageBackend defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type StorageBackend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Key/value operations

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
