package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/storage"
)

// ErrEmptyAccessToken is returned when a bundle without an access token is stored.
var ErrEmptyAccessToken = errors.New("bundle access token must not be empty")

// Config holds token store tuning parameters.
type Config struct {
	// RefreshThreshold is subtracted from the real expiry when deciding
	// whether a token is still usable, so callers get a window to refresh
	// before a request fails server-side.
	RefreshThreshold time.Duration
	// DefaultAccessTTL applies when a bundle carries no explicit lifetime.
	DefaultAccessTTL time.Duration
	// StorageKey is the single backend key holding the obfuscated backup.
	StorageKey string
	// MaxScheduleDelay caps how far ahead a refresh timer may be armed.
	MaxScheduleDelay time.Duration
}

// Store owns the authoritative in-memory session [Record], its persisted
// obfuscated backup, and the proactive refresh timer.
//
//	Docs: docs/session.md
type Store struct {
	mu      sync.Mutex
	config  Config
	backend storage.Backend
	codec   *credential.Codec

	record     *Record
	timer      *time.Timer
	generation uint64

	onRefreshNeeded func()
	onRestored      func()
	now             func() time.Time
}

// NewStore creates a token [Store] over the given backend and codec.
func NewStore(backend storage.Backend, codec *credential.Codec, cfg Config) (*Store, error) {
	if backend == nil {
		return nil, errors.New("storage backend required")
	}
	if codec == nil {
		return nil, errors.New("credential codec required")
	}
	if cfg.RefreshThreshold <= 0 {
		return nil, errors.New("refresh threshold must be positive")
	}
	if cfg.DefaultAccessTTL <= cfg.RefreshThreshold {
		return nil, errors.New("default access TTL must exceed refresh threshold")
	}
	if cfg.StorageKey == "" {
		return nil, errors.New("storage key required")
	}
	if cfg.MaxScheduleDelay <= 0 {
		cfg.MaxScheduleDelay = 24 * time.Hour
	}

	return &Store{
		config:  cfg,
		backend: backend,
		codec:   codec,
		now:     time.Now,
	}, nil
}

// SetRefreshNeededHandler injects the callback invoked when the proactive
// refresh timer fires. Must be set before the first Store call; the handler
// runs on the timer goroutine and must not call back into the Store
// synchronously while holding its own locks.
func (s *Store) SetRefreshNeededHandler(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefreshNeeded = handler
}

// SetRestoredHandler injects the callback invoked after a session is
// hydrated from the persisted backup. It runs synchronously under the
// store lock and must not call back into the Store.
func (s *Store) SetRestoredHandler(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRestored = handler
}

// Store overwrites the session record with a fresh bundle, persists the
// backup, and (re)schedules the proactive refresh. Exactly one timer is
// pending afterwards.
func (s *Store) Store(ctx context.Context, bundle Bundle) error {
	if bundle.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	ttl := bundle.ExpiresIn
	if ttl <= 0 {
		ttl = s.config.DefaultAccessTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = &Record{
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		UserID:       bundle.UserID,
		UserRole:     bundle.UserRole,
		ExpiresAt:    s.now().Add(ttl).UnixMilli(),
	}
	s.generation++
	s.persistLocked(ctx)
	s.scheduleLocked()

	return nil
}

// UpdateAccessToken replaces only the access token and expiry; refresh
// token, user id, and role are retained. Used for non-rotating refreshes.
func (s *Store) UpdateAccessToken(ctx context.Context, accessToken string, expiresIn time.Duration) error {
	if accessToken == "" {
		return ErrEmptyAccessToken
	}
	if expiresIn <= 0 {
		expiresIn = s.config.DefaultAccessTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	if s.record == nil {
		s.record = &Record{}
	}
	s.record.AccessToken = accessToken
	s.record.ExpiresAt = s.now().Add(expiresIn).UnixMilli()
	s.generation++
	s.persistLocked(ctx)
	s.scheduleLocked()

	return nil
}

// GetAccessToken returns the access token, or "" when none is held or the
// token has crossed the refresh threshold.
func (s *Store) GetAccessToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	if s.record == nil || s.isExpiredLocked() {
		return ""
	}
	return s.record.AccessToken
}

// GetRefreshToken returns the refresh token, restoring from backup first
// when memory is empty. Unlike the access token it is returned even past
// the access expiry — that is exactly when it is needed.
func (s *Store) GetRefreshToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	if s.record == nil {
		return ""
	}
	return s.record.RefreshToken
}

// GetUserID describes the getuserid operation and its observable behavior.
func (s *Store) GetUserID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	if s.record == nil {
		return ""
	}
	return s.record.UserID
}

// GetUserRole describes the getuserrole operation and its observable behavior.
func (s *Store) GetUserRole(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	if s.record == nil {
		return ""
	}
	return s.record.UserRole
}

// IsExpired reports whether the held access token is past its usable
// window: true when no expiry is known, or when now is past
// expiresAt − refreshThreshold.
func (s *Store) IsExpired(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(ctx)
	return s.isExpiredLocked()
}

// IsAuthenticated reports whether a usable access token is held.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.GetAccessToken(ctx) != ""
}

// Clear wipes memory, deletes the persisted backup, and cancels any pending
// refresh timer. Clearing twice is a no-op the second time.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	s.generation++
	s.stopTimerLocked()
	if err := s.backend.Delete(ctx, s.config.StorageKey); err != nil {
		log.Print("goSession: session backup delete failed")
	}
}

// Generation returns the current mutation generation. Refresh flights
// capture it before the transport call and hand it back to
// [Store.ApplyRefresh]; a mismatch means the session changed mid-flight.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ApplyRefresh installs the outcome of a refresh flight tagged with the
// generation observed at flight start. Returns false — without touching any
// state — when the generation no longer matches, so a late response cannot
// resurrect a session cleared mid-flight. A non-empty newRefreshToken
// rotates the refresh token as well.
func (s *Store) ApplyRefresh(ctx context.Context, generation uint64, accessToken string, expiresIn time.Duration, newRefreshToken string) bool {
	if accessToken == "" {
		return false
	}
	if expiresIn <= 0 {
		expiresIn = s.config.DefaultAccessTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.record == nil {
		return false
	}

	s.record.AccessToken = accessToken
	s.record.ExpiresAt = s.now().Add(expiresIn).UnixMilli()
	if newRefreshToken != "" {
		s.record.RefreshToken = newRefreshToken
	}
	s.generation++
	s.persistLocked(ctx)
	s.scheduleLocked()

	return true
}

func (s *Store) isExpiredLocked() bool {
	if s.record == nil || s.record.ExpiresAt == 0 {
		return true
	}
	threshold := s.record.ExpiresAt - s.config.RefreshThreshold.Milliseconds()
	return s.now().UnixMilli() > threshold
}

// persistLocked writes the obfuscated backup. Storage failures are logged
// and swallowed: memory stays authoritative and a failed backup must never
// fail a login.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := Encode(s.record)
	if err != nil {
		log.Print("goSession: session backup encode failed")
		return
	}
	if err := s.backend.Set(ctx, s.config.StorageKey, s.codec.Encode(string(data)), 0); err != nil {
		log.Print("goSession: session backup write failed")
	}
}

// restoreLocked hydrates memory from the backup when memory is empty.
// Absent keys are a no-op; undecodable backups are deleted and read as
// absent.
func (s *Store) restoreLocked(ctx context.Context) {
	if s.record != nil {
		return
	}

	value, err := s.backend.Get(ctx, s.config.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			log.Print("goSession: session backup read failed")
		}
		return
	}

	plain := s.codec.Decode(value)
	if plain == "" {
		s.discardCorruptBackupLocked(ctx)
		return
	}
	record, err := Decode([]byte(plain))
	if err != nil {
		s.discardCorruptBackupLocked(ctx)
		return
	}

	s.record = record
	s.generation++
	s.scheduleLocked()

	if s.onRestored != nil {
		s.onRestored()
	}
}

func (s *Store) discardCorruptBackupLocked(ctx context.Context) {
	log.Print("goSession: discarding corrupt session backup")
	if err := s.backend.Delete(ctx, s.config.StorageKey); err != nil {
		log.Print("goSession: corrupt session backup delete failed")
	}
}

// scheduleLocked arms the single proactive refresh timer for the current
// record, cancelling any previous one first. Timers fire only while the
// generation they were armed under is still current.
func (s *Store) scheduleLocked() {
	s.stopTimerLocked()

	if s.record == nil || s.record.ExpiresAt == 0 || s.onRefreshNeeded == nil {
		return
	}

	refreshAt := s.record.ExpiresAt - s.config.RefreshThreshold.Milliseconds()
	delay := time.Duration(refreshAt-s.now().UnixMilli()) * time.Millisecond
	if delay <= 0 || delay > s.config.MaxScheduleDelay {
		return
	}

	generation := s.generation
	handler := s.onRefreshNeeded
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current := s.generation == generation
		s.mu.Unlock()
		if current {
			handler()
		}
	})
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
