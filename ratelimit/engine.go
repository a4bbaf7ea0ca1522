package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"github.com/MrEthical07/goSession/storage"
)

// Reason classifies why CanAttemptLogin denied an attempt.
type Reason string

const (
	// ReasonLockedOut is an exported constant used by the rate-limit engine.
	ReasonLockedOut Reason = "locked_out"
	// ReasonRateLimited is an exported constant used by the rate-limit engine.
	ReasonRateLimited Reason = "rate_limited"
)

// Config holds rate-limit engine tuning parameters.
type Config struct {
	MaxAttempts        int
	BaseLockout        time.Duration
	LockoutMultiplier  float64
	MaxLockout         time.Duration
	InitialDelay       time.Duration
	DelayBackoffFactor float64
	MaxDelay           time.Duration
	// StaleAfter discards state untouched for longer than this, preventing
	// indefinite lockout accumulation from stale data.
	StaleAfter time.Duration
	StorageKey string
}

// State mirrors the persisted counters. Exported for backend inspection in
// consumers' debug panels; mutate only through the [Engine].
type State struct {
	Attempts            int   `json:"attempts"`
	ConsecutiveFailures int   `json:"consecutiveFailures"`
	LastAttemptMs       int64 `json:"lastAttemptTime,omitempty"`
	LockoutUntilMs      int64 `json:"lockoutUntil,omitempty"`
}

// Status is the point-in-time lockout report returned by [Engine.CheckLockout].
type Status struct {
	IsLockedOut       bool
	RemainingSeconds  int
	Attempts          int
	AttemptsRemaining int
	LockoutUntil      time.Time // zero when not locked out
}

// Decision is the verdict of the [Engine.CanAttemptLogin] gate.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Message  string
	WaitTime time.Duration
}

// Engine tracks failed login attempts against a persisted [State] and
// computes escalating lockout windows and per-attempt delays.
//
//	Docs: docs/rate_limiting.md
type Engine struct {
	config  Config
	backend storage.Backend
	now     func() time.Time
}

// New creates a rate-limit [Engine] over the given backend.
func New(backend storage.Backend, cfg Config) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("storage backend required")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("max attempts must be positive")
	}
	if cfg.BaseLockout <= 0 || cfg.MaxLockout < cfg.BaseLockout {
		return nil, errors.New("invalid lockout durations")
	}
	if cfg.LockoutMultiplier < 1 {
		return nil, errors.New("lockout multiplier must be >= 1")
	}
	if cfg.InitialDelay < 0 || cfg.DelayBackoffFactor < 1 {
		return nil, errors.New("invalid attempt delay configuration")
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 24 * time.Hour
	}
	if cfg.StorageKey == "" {
		return nil, errors.New("storage key required")
	}

	return &Engine{
		config:  cfg,
		backend: backend,
		now:     time.Now,
	}, nil
}

// CheckLockout reconciles expired lockouts, then reports current status.
// An expired lockout clears LockoutUntil and resets Attempts to zero while
// preserving ConsecutiveFailures — the escalation driver.
func (e *Engine) CheckLockout(ctx context.Context) Status {
	state := e.load(ctx)
	if e.reconcile(&state) {
		e.save(ctx, state)
	}

	status := Status{
		Attempts:          state.Attempts,
		AttemptsRemaining: e.config.MaxAttempts - state.Attempts,
	}
	if status.AttemptsRemaining < 0 {
		status.AttemptsRemaining = 0
	}

	if state.LockoutUntilMs > 0 {
		until := time.UnixMilli(state.LockoutUntilMs)
		remaining := until.Sub(e.now())
		status.IsLockedOut = true
		status.LockoutUntil = until
		status.RemainingSeconds = int(math.Ceil(remaining.Seconds()))
	}

	return status
}

// RecordFailedAttempt increments both counters and stamps the attempt time.
// A server-asserted lockout deadline wins outright; otherwise, exhausting
// the attempt budget computes an escalating lockout from the
// consecutive-failure count.
func (e *Engine) RecordFailedAttempt(ctx context.Context, serverLockoutUntil time.Time) {
	state := e.load(ctx)
	e.reconcile(&state)

	now := e.now()
	state.Attempts++
	state.ConsecutiveFailures++
	state.LastAttemptMs = now.UnixMilli()

	switch {
	case !serverLockoutUntil.IsZero():
		state.LockoutUntilMs = serverLockoutUntil.UnixMilli()
	case state.Attempts >= e.config.MaxAttempts:
		state.LockoutUntilMs = now.Add(e.lockoutDuration(state.ConsecutiveFailures)).UnixMilli()
	}

	e.save(ctx, state)
}

// RecordSuccessfulLogin unconditionally resets all counters and deletes the
// persisted key. This is the only path that clears ConsecutiveFailures.
func (e *Engine) RecordSuccessfulLogin(ctx context.Context) {
	if err := e.backend.Delete(ctx, e.config.StorageKey); err != nil {
		log.Print("goSession: rate limit state delete failed")
	}
}

// AttemptDelay returns the inter-attempt throttle independent of lockout:
// initialDelay × backoffFactor^(attempts−1), capped.
func (e *Engine) AttemptDelay(ctx context.Context) time.Duration {
	state := e.load(ctx)
	e.reconcile(&state)
	return e.attemptDelayFor(state.Attempts)
}

// CanAttemptLogin is the single gate callers must check before issuing a
// login request. Lockout takes precedence over the inter-attempt delay.
func (e *Engine) CanAttemptLogin(ctx context.Context) Decision {
	state := e.load(ctx)
	if e.reconcile(&state) {
		e.save(ctx, state)
	}

	now := e.now()

	if state.LockoutUntilMs > 0 {
		wait := time.UnixMilli(state.LockoutUntilMs).Sub(now)
		return Decision{
			Reason:   ReasonLockedOut,
			Message:  "Too many failed attempts. Try again later.",
			WaitTime: wait,
		}
	}

	if state.LastAttemptMs > 0 && state.Attempts > 0 {
		delay := e.attemptDelayFor(state.Attempts)
		elapsed := now.Sub(time.UnixMilli(state.LastAttemptMs))
		if elapsed < delay {
			return Decision{
				Reason:   ReasonRateLimited,
				Message:  "Please wait before trying again.",
				WaitTime: delay - elapsed,
			}
		}
	}

	return Decision{Allowed: true}
}

// LockoutCountdown starts a one-second poll of CheckLockout for UI display.
// onTick fires once immediately and then every second while locked out;
// onComplete fires exactly once when the lockout clears. The returned
// function stops the poll and is safe to call more than once.
func (e *Engine) LockoutCountdown(ctx context.Context, onTick func(Status), onComplete func()) func() {
	done := make(chan struct{})
	stop := func() {
		select {
		case <-done:
		default:
			close(done)
		}
	}

	tick := func() bool {
		status := e.CheckLockout(ctx)
		if !status.IsLockedOut {
			if onComplete != nil {
				onComplete()
			}
			return false
		}
		if onTick != nil {
			onTick(status)
		}
		return true
	}

	// First tick runs synchronously so the UI never shows stale state for
	// the first second.
	if !tick() {
		return stop
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()

	return stop
}

// lockoutDuration computes min(base × multiplier^k, max) with
// k = floor(consecutiveFailures / maxAttempts) − 1.
func (e *Engine) lockoutDuration(consecutiveFailures int) time.Duration {
	k := consecutiveFailures/e.config.MaxAttempts - 1
	if k < 0 {
		k = 0
	}

	duration := float64(e.config.BaseLockout) * math.Pow(e.config.LockoutMultiplier, float64(k))
	if duration > float64(e.config.MaxLockout) {
		return e.config.MaxLockout
	}
	return time.Duration(duration)
}

func (e *Engine) attemptDelayFor(attempts int) time.Duration {
	if attempts <= 0 || e.config.InitialDelay <= 0 {
		return 0
	}

	delay := float64(e.config.InitialDelay) * math.Pow(e.config.DelayBackoffFactor, float64(attempts-1))
	if delay > float64(e.config.MaxDelay) {
		return e.config.MaxDelay
	}
	return time.Duration(delay)
}

// reconcile drops stale state and clears expired lockouts in place.
// Returns true when the state changed and should be re-persisted.
func (e *Engine) reconcile(state *State) bool {
	now := e.now()

	if state.LastAttemptMs > 0 && now.Sub(time.UnixMilli(state.LastAttemptMs)) > e.config.StaleAfter {
		*state = State{}
		return true
	}

	if state.LockoutUntilMs > 0 && now.UnixMilli() >= state.LockoutUntilMs {
		state.LockoutUntilMs = 0
		state.Attempts = 0
		return true
	}

	return false
}

// load reads state fresh from the backend. Missing, unreadable, or corrupt
// state reads as zero — a broken counter must never brick the login screen.
func (e *Engine) load(ctx context.Context) State {
	var state State

	value, err := e.backend.Get(ctx, e.config.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			log.Print("goSession: rate limit state read failed")
		}
		return state
	}

	if err := json.Unmarshal([]byte(value), &state); err != nil {
		log.Print("goSession: discarding corrupt rate limit state")
		if delErr := e.backend.Delete(ctx, e.config.StorageKey); delErr != nil {
			log.Print("goSession: corrupt rate limit state delete failed")
		}
		return State{}
	}
	if state.Attempts < 0 || state.ConsecutiveFailures < 0 {
		return State{}
	}

	return state
}

func (e *Engine) save(ctx context.Context, state State) {
	if state == (State{}) {
		if err := e.backend.Delete(ctx, e.config.StorageKey); err != nil {
			log.Print("goSession: rate limit state delete failed")
		}
		return
	}

	data, err := json.Marshal(state)
	if err != nil {
		log.Print("goSession: rate limit state encode failed")
		return
	}
	if err := e.backend.Set(ctx, e.config.StorageKey, string(data), e.config.StaleAfter); err != nil {
		log.Print("goSession: rate limit state write failed")
	}
}
