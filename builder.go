package goSession

import (
	"errors"

	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/ratelimit"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/storage"
	"github.com/MrEthical07/goSession/transport"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config  Config
	backend storage.Backend
	client  transport.Client

	auditSink        AuditSink
	onSessionExpired func()

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage injects the persistent key-value backend holding the session
// backup and the rate-limit state ([storage.Memory], [storage.Bolt], or
// [storage.Redis]).
func (b *Builder) WithStorage(backend storage.Backend) *Builder {
	b.backend = backend
	return b
}

// WithTransport overrides the HTTP transport built from
// [TransportConfig]. Intended for tests and for consumers with bespoke
// request signing.
func (b *Builder) WithTransport(client transport.Client) *Builder {
	b.client = client
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSessionExpiredHandler registers the callback fired when a refresh
// fails terminally and the user must authenticate again. The handler runs
// on the goroutine that observed the failure.
func (b *Builder) WithSessionExpiredHandler(handler func()) *Builder {
	b.onSessionExpired = handler
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("storage backend required")
	}

	// -------- TRANSPORT --------
	apiClient := b.client
	if apiClient == nil {
		if cfg.Transport.BaseURL == "" {
			return nil, errors.New("Transport BaseURL required when no transport client is injected")
		}
		httpClient, err := transport.NewHTTPClient(transport.HTTPConfig{
			BaseURL: cfg.Transport.BaseURL,
			Timeout: cfg.Transport.Timeout,
			Client:  cfg.Transport.Client,
		})
		if err != nil {
			return nil, err
		}
		apiClient = httpClient
	}

	// -------- CREDENTIAL CODEC --------
	codec, err := credential.NewCodec(cfg.Credential.Secret)
	if err != nil {
		return nil, err
	}

	// -------- TOKEN STORE --------
	store, err := session.NewStore(b.backend, codec, session.Config{
		RefreshThreshold: cfg.Session.RefreshThreshold,
		DefaultAccessTTL: cfg.Session.DefaultAccessTTL,
		StorageKey:       cfg.Session.StorageKey,
		MaxScheduleDelay: cfg.Session.MaxScheduleDelay,
	})
	if err != nil {
		return nil, err
	}

	// -------- RATE LIMIT ENGINE --------
	limiter, err := ratelimit.New(b.backend, ratelimit.Config{
		MaxAttempts:        cfg.RateLimit.MaxAttempts,
		BaseLockout:        cfg.RateLimit.BaseLockout,
		LockoutMultiplier:  cfg.RateLimit.LockoutMultiplier,
		MaxLockout:         cfg.RateLimit.MaxLockout,
		InitialDelay:       cfg.RateLimit.InitialDelay,
		DelayBackoffFactor: cfg.RateLimit.DelayBackoffFactor,
		MaxDelay:           cfg.RateLimit.MaxDelay,
		StaleAfter:         cfg.RateLimit.StaleAfter,
		StorageKey:         cfg.RateLimit.StorageKey,
	})
	if err != nil {
		return nil, err
	}

	// -------- REFRESH COORDINATOR --------
	coordinator, err := refresh.NewCoordinator(apiClient, store)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:      cfg,
		instanceID:  uuid.NewString(),
		store:       store,
		limiter:     limiter,
		coordinator: coordinator,
		api:         apiClient,
	}

	client.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	client.metrics = NewMetrics(cfg.Metrics)
	client.onSessionExpired = b.onSessionExpired

	// The proactive timer funnels into the same single-flight refresh as
	// caller-driven refreshes.
	store.SetRefreshNeededHandler(client.scheduledRefresh)
	store.SetRestoredHandler(client.sessionRestored)

	b.built = true

	return client, nil
}
