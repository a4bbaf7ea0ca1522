package goSession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/ratelimit"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Client defines a public type used by goSession APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config     Config
	instanceID string

	store       *session.Store
	limiter     *ratelimit.Engine
	coordinator *refresh.Coordinator
	api         transport.Client

	audit   *auditDispatcher
	metrics *Metrics

	onSessionExpired func()
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// InstanceID returns the UUID identifying this engine instance in audit
// events.
func (c *Client) InstanceID() string {
	if c == nil {
		return ""
	}
	return c.instanceID
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

/*
====================================
LOGIN
====================================
*/

// Login describes the login operation and its observable behavior.
//
// The returned [LoginResult] is non-nil even on failure and carries the
// post-attempt lockout status, so callers can render remaining attempts or
// a countdown without a second limiter query. Unknown email and wrong
// password deliberately collapse into the same [ErrInvalidCredentials].
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if email == "" || password == "" {
		return c.loginFailure(ctx), fmt.Errorf("%w: email and password required", ErrValidation)
	}

	decision := c.limiter.CanAttemptLogin(ctx)
	if !decision.Allowed {
		return c.loginGateRejected(ctx, decision)
	}

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		return c.loginTransportFailure(ctx, err)
	}
	if resp.AccessToken == "" {
		return c.loginFailure(ctx), fmt.Errorf("%w: no access token in login response", ErrUnexpectedResponse)
	}

	userID, userRole := resp.UserID, resp.UserRole
	if userID == "" || userRole == "" {
		// Some deployments omit the user object and rely on token claims.
		if claims, claimsErr := jwt.Peek(resp.AccessToken); claimsErr == nil {
			if userID == "" {
				userID = claims.UserID
			}
			if userRole == "" {
				userRole = claims.Role
			}
		}
	}

	if err := c.store.Store(ctx, session.Bundle{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       userID,
		UserRole:     userRole,
		ExpiresIn:    resp.ExpiresIn,
	}); err != nil {
		return c.loginFailure(ctx), fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	c.limiter.RecordSuccessfulLogin(ctx)

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, EventLoginSuccess, userID, true, nil, nil)

	return &LoginResult{
		AccessToken: resp.AccessToken,
		UserID:      userID,
		UserRole:    userRole,
		ExpiresIn:   resp.ExpiresIn,
		Lockout:     c.limiter.CheckLockout(ctx),
	}, nil
}

// loginGateRejected maps a limiter denial onto the error taxonomy without
// touching the transport.
func (c *Client) loginGateRejected(ctx context.Context, decision ratelimit.Decision) (*LoginResult, error) {
	result := c.loginFailure(ctx)
	switch decision.Reason {
	case ratelimit.ReasonLockedOut:
		c.metricInc(MetricLoginLockedOut)
		c.emitAudit(ctx, EventLoginLockedOut, "", false, ErrAccountLocked, map[string]string{
			"wait_seconds": strconv.Itoa(int(decision.WaitTime.Seconds())),
		})
		return result, fmt.Errorf("%w: %s", ErrAccountLocked, decision.Message)
	default:
		c.metricInc(MetricLoginRateLimited)
		c.emitAudit(ctx, EventLoginRateLimited, "", false, ErrRateLimited, map[string]string{
			"wait_seconds": strconv.Itoa(int(decision.WaitTime.Seconds())),
		})
		return result, fmt.Errorf("%w: %s", ErrRateLimited, decision.Message)
	}
}

// loginTransportFailure classifies a transport error, records the failed
// attempt when the server actually judged the credentials, and forwards any
// server-asserted lockout deadline to the limiter.
func (c *Client) loginTransportFailure(ctx context.Context, err error) (*LoginResult, error) {
	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, EventLoginFailure, "", false, err, nil)
		if errors.Is(err, transport.ErrNetwork) {
			return c.loginFailure(ctx), fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return c.loginFailure(ctx), fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	switch {
	case statusErr.StatusCode == http.StatusBadRequest,
		statusErr.StatusCode == http.StatusUnauthorized,
		statusErr.StatusCode == http.StatusForbidden,
		statusErr.StatusCode == http.StatusNotFound:
		c.limiter.RecordFailedAttempt(ctx, statusErr.LockoutUntil)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, EventLoginFailure, "", false, ErrInvalidCredentials, nil)
		if !statusErr.LockoutUntil.IsZero() {
			return c.loginFailure(ctx), ErrAccountLocked
		}
		return c.loginFailure(ctx), ErrInvalidCredentials

	case statusErr.StatusCode == http.StatusLocked,
		statusErr.StatusCode == http.StatusTooManyRequests:
		c.limiter.RecordFailedAttempt(ctx, statusErr.LockoutUntil)
		c.metricInc(MetricLoginLockedOut)
		c.emitAudit(ctx, EventLoginLockedOut, "", false, ErrAccountLocked, nil)
		if statusErr.StatusCode == http.StatusTooManyRequests && statusErr.LockoutUntil.IsZero() {
			return c.loginFailure(ctx), ErrRateLimited
		}
		return c.loginFailure(ctx), ErrAccountLocked

	case statusErr.StatusCode >= 500:
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, EventLoginFailure, "", false, ErrServer, nil)
		return c.loginFailure(ctx), fmt.Errorf("%w: status %d", ErrServer, statusErr.StatusCode)

	default:
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, EventLoginFailure, "", false, ErrUnexpectedResponse, nil)
		return c.loginFailure(ctx), fmt.Errorf("%w: status %d", ErrUnexpectedResponse, statusErr.StatusCode)
	}
}

func (c *Client) loginFailure(ctx context.Context) *LoginResult {
	return &LoginResult{Lockout: c.limiter.CheckLockout(ctx)}
}

/*
====================================
LOGOUT
====================================
*/

// Logout tears the session down. Local state goes first — token store and
// limiter are cleared before any network call — then server-side
// invalidation runs best-effort: its failure is logged, never surfaced, and
// never leaves tokens behind locally.
func (c *Client) Logout(ctx context.Context) {
	if c == nil {
		return
	}

	refreshToken := c.store.GetRefreshToken(ctx)
	userID := c.store.GetUserID(ctx)

	c.store.Clear(ctx)
	c.limiter.RecordSuccessfulLogin(ctx)

	if refreshToken != "" {
		if err := c.api.Logout(ctx, refreshToken); err != nil {
			log.Print("goSession: server-side logout failed")
		}
	}

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, EventLogout, userID, true, nil, nil)
}

/*
====================================
REFRESH
====================================
*/

// RefreshAccessToken obtains a fresh access token through the single-flight
// coordinator. Terminal failures clear the session, fire the registered
// session-expired handler, and return [ErrSessionExpired].
//
// RefreshAccessToken may return an error when input validation, dependency calls, or security checks fail.
// RefreshAccessToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}

	result, err := c.coordinator.Refresh(ctx)
	if err != nil {
		return "", c.refreshFailure(ctx, err)
	}

	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, EventRefreshSuccess, c.store.GetUserID(ctx), true, nil, map[string]string{
		"rotated": strconv.FormatBool(result.Rotated),
	})

	return result.AccessToken, nil
}

func (c *Client) refreshFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, refresh.ErrNoRefreshToken):
		c.metricInc(MetricRefreshFailure)
		return ErrNoRefreshToken

	case errors.Is(err, refresh.ErrReauthenticationRequired):
		c.metricInc(MetricSessionExpired)
		c.emitAudit(ctx, EventSessionExpired, "", false, ErrSessionExpired, nil)
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return ErrSessionExpired

	case errors.Is(err, transport.ErrNetwork):
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, EventRefreshFailure, "", false, err, nil)
		return fmt.Errorf("%w: %v", ErrNetwork, err)

	default:
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, EventRefreshFailure, "", false, err, nil)
		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", ErrServer, statusErr.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
}

// sessionRestored is the token store's restore callback. It runs under the
// store lock, so it only touches the atomic metrics and the audit channel.
func (c *Client) sessionRestored() {
	c.metricInc(MetricSessionRestored)
	c.emitAudit(context.Background(), EventSessionRestored, "", true, nil, nil)
}

// scheduledRefresh is the proactive timer callback installed on the token
// store. It runs on the timer goroutine; failures surface through the
// session-expired handler and the audit stream, not to any caller.
func (c *Client) scheduledRefresh() {
	c.metricInc(MetricScheduledRefreshFired)
	if _, err := c.RefreshAccessToken(context.Background()); err != nil {
		if !errors.Is(err, ErrSessionExpired) {
			log.Print("goSession: scheduled refresh failed")
		}
	}
}

/*
====================================
VALIDATION & ACCESSORS
====================================
*/

// ValidateSession describes the validatesession operation and its observable behavior.
//
// A held, unexpired token validates locally without network I/O. A
// threshold-expired token triggers exactly one refresh attempt; terminal
// refresh failure reports RequiresLogin.
//
// ValidateSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ValidateSession(ctx context.Context) ValidationResult {
	if c == nil {
		return ValidationResult{RequiresLogin: true}
	}

	start := time.Now()
	defer func() {
		if c.metrics.LatencyEnabled() {
			c.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	if token := c.store.GetAccessToken(ctx); token != "" {
		return ValidationResult{
			Valid:    true,
			UserID:   c.store.GetUserID(ctx),
			UserRole: c.store.GetUserRole(ctx),
		}
	}

	if c.store.GetRefreshToken(ctx) == "" {
		return ValidationResult{RequiresLogin: true}
	}

	if _, err := c.RefreshAccessToken(ctx); err != nil {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNoRefreshToken) {
			return ValidationResult{RequiresLogin: true}
		}
		// Transient failure: not valid right now, but re-login is not the
		// answer either.
		return ValidationResult{}
	}

	return ValidationResult{
		Valid:    true,
		UserID:   c.store.GetUserID(ctx),
		UserRole: c.store.GetUserRole(ctx),
	}
}

// HasRole reports whether the authenticated user's role matches any of the
// required roles. Always false when unauthenticated; never panics.
func (c *Client) HasRole(ctx context.Context, required ...string) bool {
	if c == nil || len(required) == 0 {
		return false
	}
	if !c.store.IsAuthenticated(ctx) {
		return false
	}

	role := c.store.GetUserRole(ctx)
	if role == "" {
		return false
	}
	for _, want := range required {
		if role == want {
			return true
		}
	}
	return false
}

// GetAccessToken describes the getaccesstoken operation and its observable behavior.
//
// GetAccessToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetAccessToken(ctx context.Context) string {
	if c == nil {
		return ""
	}
	return c.store.GetAccessToken(ctx)
}

// GetUserID describes the getuserid operation and its observable behavior.
//
// GetUserID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetUserID(ctx context.Context) string {
	if c == nil {
		return ""
	}
	return c.store.GetUserID(ctx)
}

// GetUserRole describes the getuserrole operation and its observable behavior.
//
// GetUserRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetUserRole(ctx context.Context) string {
	if c == nil {
		return ""
	}
	return c.store.GetUserRole(ctx)
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c != nil && c.store.IsAuthenticated(ctx)
}

// Session returns a token-free snapshot of the held session.
func (c *Client) Session(ctx context.Context) SessionInfo {
	if c == nil {
		return SessionInfo{Expired: true}
	}
	return SessionInfo{
		Authenticated: c.store.IsAuthenticated(ctx),
		UserID:        c.store.GetUserID(ctx),
		UserRole:      c.store.GetUserRole(ctx),
		Expired:       c.store.IsExpired(ctx),
	}
}

/*
====================================
LOCKOUT SURFACE
====================================
*/

// LockoutStatus describes the lockoutstatus operation and its observable behavior.
//
// LockoutStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) LockoutStatus(ctx context.Context) ratelimit.Status {
	if c == nil {
		return ratelimit.Status{}
	}
	return c.limiter.CheckLockout(ctx)
}

// LockoutCountdown starts a 1s countdown over the lockout state for login
// UIs: onTick fires immediately and then every second while locked out,
// onComplete exactly once when the lockout ends. The returned stop function
// is idempotent.
func (c *Client) LockoutCountdown(ctx context.Context, onTick func(ratelimit.Status), onComplete func()) func() {
	if c == nil {
		return func() {}
	}
	return c.limiter.LockoutCountdown(ctx, onTick, onComplete)
}

/*
====================================
AUDIT
====================================
*/

func (c *Client) emitAudit(ctx context.Context, eventType, userID string, success bool, cause error, metadata map[string]string) {
	if c.audit == nil {
		return
	}

	event := newAuditEvent(eventType, c.instanceID)
	event.UserID = userID
	event.Success = success
	if cause != nil {
		event.Error = cause.Error()
	}
	event.Metadata = metadata

	c.audit.Emit(ctx, event)
}
