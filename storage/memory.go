package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// Memory is an in-process [Backend] useful for tests or ephemeral sessions
// that must not outlive the process.
type Memory struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation or dependency calls fail.
// Get is safe for concurrent use.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.data, key)
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation or dependency calls fail.
// Set is safe for concurrent use.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = entry
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation or dependency calls fail.
// Delete is safe for concurrent use.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
