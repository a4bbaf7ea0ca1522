package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/ratelimit"
)

// LoginResult is returned by [Client.Login]. On failure the token fields are
// empty and Lockout carries the post-attempt limiter status, so callers can
// render remaining attempts or a countdown without a second round-trip.
//
//	Docs: docs/login.md
type LoginResult struct {
	AccessToken string
	UserID      string
	UserRole    string
	ExpiresIn   time.Duration

	Lockout ratelimit.Status
}

// ValidationResult is returned by [Client.ValidateSession].
//
// RequiresLogin distinguishes "no usable session, go authenticate" from a
// transient validation failure the caller may retry.
type ValidationResult struct {
	Valid         bool
	RequiresLogin bool
	UserID        string
	UserRole      string
}

// SessionInfo is a point-in-time snapshot of the held session, for display
// and debugging. Token values are intentionally absent.
type SessionInfo struct {
	Authenticated bool
	UserID        string
	UserRole      string
	Expired       bool
}
