package storage

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("storage key not found")

// ErrBackendUnavailable indicates the storage backend is unreachable.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// Backend is the persistent key-value contract consumed by the token store
// and the rate-limit engine. Values survive process restarts (except for
// [Memory]) and are scoped to one consumer installation.
//
// Backends are shared mutable state across concurrent writers with no
// cross-process lock; last writer wins.
type Backend interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
