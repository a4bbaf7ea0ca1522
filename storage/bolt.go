package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("goSession")

// Bolt is a single-file embedded [Backend] backed by bbolt. It is the
// default persistent store for consumers without shared infrastructure:
// one file per installation, origin-scoped by file path.
//
// TTLs are enforced lazily on read — an expired entry reads as missing and
// is deleted on the next write cycle, matching the lazy reconciliation the
// rate-limit engine performs anyway.
type Bolt struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ Backend = (*Bolt)(nil)

// NewBolt wraps an already-open bbolt database.
func NewBolt(db *bbolt.DB) *Bolt {
	return &Bolt{db: db, now: time.Now}
}

// OpenBolt opens (or creates) a bbolt database file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return NewBolt(db), nil
}

// Close closes the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation or dependency calls fail.
// Get is safe for concurrent use.
func (b *Bolt) Get(_ context.Context, key string) (string, error) {
	var (
		value string
		found bool
	)

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		v, expiresAt, ok := decodeBoltValue(raw)
		if !ok {
			return nil
		}
		if expiresAt != 0 && b.now().UnixMilli() > expiresAt {
			return nil
		}
		value = v
		found = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !found {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation or dependency calls fail.
// Set is safe for concurrent use.
func (b *Bolt) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = b.now().Add(ttl).UnixMilli()
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encodeBoltValue(value, expiresAt))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation or dependency calls fail.
// Delete is safe for concurrent use.
func (b *Bolt) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Bolt values are expiry-prefixed: 8 bytes big-endian unix-milli deadline
// (0 = none) followed by the raw value bytes.
func encodeBoltValue(value string, expiresAt int64) []byte {
	out := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(out[:8], uint64(expiresAt))
	copy(out[8:], value)
	return out
}

func decodeBoltValue(raw []byte) (string, int64, bool) {
	if len(raw) < 8 {
		return "", 0, false
	}
	expiresAt := int64(binary.BigEndian.Uint64(raw[:8]))
	return string(raw[8:]), expiresAt, true
}
