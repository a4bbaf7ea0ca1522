package session

import "time"

// Record defines a public type used by goSession APIs.
//
// Record instances are intended to be treated as immutable snapshots; the
// [Store] replaces the whole record on every mutation.
type Record struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserRole     string

	// ExpiresAt is the absolute access-token expiry in unix milliseconds.
	// Invariant: a non-empty AccessToken always carries a non-zero ExpiresAt.
	ExpiresAt int64
}

// Bundle is the token material handed to [Store.Store] after a successful
// login or rotating refresh.
type Bundle struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserRole     string

	// ExpiresIn is the access-token lifetime. Zero means the configured
	// default lifetime applies.
	ExpiresIn time.Duration
}
