package goSession

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credential CredentialConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	Transport  TransportConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig defines a public type used by goSession APIs.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	// Secret keys the obfuscation keystream. Consumers typically inject it
	// at build time; it deters casual inspection of persisted state, not a
	// determined attacker.
	Secret string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goSession APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// RefreshThreshold is how long before real expiry a token is treated as
	// expired, giving the refresh flight room to finish first.
	RefreshThreshold time.Duration
	// DefaultAccessTTL applies when the server states no token lifetime.
	DefaultAccessTTL time.Duration
	StorageKey       string
	// MaxScheduleDelay caps how far ahead the proactive refresh timer may
	// be armed.
	MaxScheduleDelay time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by goSession APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	MaxAttempts        int
	BaseLockout        time.Duration
	LockoutMultiplier  float64
	MaxLockout         time.Duration
	InitialDelay       time.Duration
	DelayBackoffFactor float64
	MaxDelay           time.Duration
	StaleAfter         time.Duration
	StorageKey         string
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig defines a public type used by goSession APIs.
//
// TransportConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// BaseURL is ignored when a custom transport client is injected through
// [Builder.WithTransport].
type TransportConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client optionally overrides the underlying *http.Client, e.g. to add
	// an instrumented RoundTripper.
	Client *http.Client
}

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RefreshThreshold: time.Minute,
			DefaultAccessTTL: 15 * time.Minute,
			StorageKey:       "session_backup",
			MaxScheduleDelay: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:        5,
			BaseLockout:        15 * time.Minute,
			LockoutMultiplier:  2,
			MaxLockout:         24 * time.Hour,
			InitialDelay:       500 * time.Millisecond,
			DelayBackoffFactor: 2,
			MaxDelay:           30 * time.Second,
			StaleAfter:         24 * time.Hour,
			StorageKey:         "login_attempts",
		},
		Transport: TransportConfig{
			Timeout: 15 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
PRESETS
====================================
*/

// DefaultConfig returns the baseline configuration. Credential.Secret and
// Transport.BaseURL must still be set by the consumer before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

// HighSecurityConfig returns a preset with a tighter login gate: fewer
// attempts before lockout, longer lockouts, and a wider refresh threshold
// so tokens are renewed earlier.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Session.RefreshThreshold = 2 * time.Minute
	cfg.RateLimit.MaxAttempts = 3
	cfg.RateLimit.BaseLockout = 30 * time.Minute
	cfg.RateLimit.MaxLockout = 48 * time.Hour
	cfg.RateLimit.InitialDelay = time.Second
	cfg.RateLimit.MaxDelay = time.Minute
	cfg.Audit.Enabled = true
	return cfg
}

// LowFrictionConfig returns a preset tuned for consumer-facing apps where
// a locked-out user is costlier than a few extra guesses: more attempts,
// shorter lockouts, no per-attempt delay.
func LowFrictionConfig() Config {
	cfg := defaultConfig()
	cfg.RateLimit.MaxAttempts = 10
	cfg.RateLimit.BaseLockout = 5 * time.Minute
	cfg.RateLimit.MaxLockout = time.Hour
	cfg.RateLimit.InitialDelay = 0
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Credential
	if c.Credential.Secret == "" {
		return errors.New("Credential Secret is required")
	}

	// Session
	if c.Session.RefreshThreshold <= 0 {
		return errors.New("Session RefreshThreshold must be > 0")
	}
	if c.Session.DefaultAccessTTL <= c.Session.RefreshThreshold {
		return errors.New("Session DefaultAccessTTL must exceed RefreshThreshold")
	}
	if c.Session.StorageKey == "" {
		return errors.New("Session StorageKey is required")
	}
	if c.Session.MaxScheduleDelay <= 0 {
		return errors.New("Session MaxScheduleDelay must be > 0")
	}

	// Rate limit
	if c.RateLimit.MaxAttempts <= 0 {
		return errors.New("RateLimit MaxAttempts must be > 0")
	}
	if c.RateLimit.BaseLockout <= 0 {
		return errors.New("RateLimit BaseLockout must be > 0")
	}
	if c.RateLimit.MaxLockout < c.RateLimit.BaseLockout {
		return errors.New("RateLimit MaxLockout must be >= BaseLockout")
	}
	if c.RateLimit.LockoutMultiplier < 1 {
		return errors.New("RateLimit LockoutMultiplier must be >= 1")
	}
	if c.RateLimit.InitialDelay < 0 {
		return errors.New("RateLimit InitialDelay must be >= 0")
	}
	if c.RateLimit.InitialDelay > 0 && c.RateLimit.DelayBackoffFactor < 1 {
		return errors.New("RateLimit DelayBackoffFactor must be >= 1")
	}
	if c.RateLimit.MaxDelay <= 0 {
		return errors.New("RateLimit MaxDelay must be > 0")
	}
	if c.RateLimit.StaleAfter <= 0 {
		return errors.New("RateLimit StaleAfter must be > 0")
	}
	if c.RateLimit.StorageKey == "" {
		return errors.New("RateLimit StorageKey is required")
	}
	if c.RateLimit.StorageKey == c.Session.StorageKey {
		return errors.New("RateLimit StorageKey must differ from Session StorageKey")
	}

	// Transport config is validated in the builder: BaseURL is only
	// required when no custom transport client is injected.
	if c.Transport.Timeout < 0 {
		return errors.New("Transport Timeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
