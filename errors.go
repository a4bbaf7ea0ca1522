package goSession

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the session engine.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is an exported constant or variable used by the session engine.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrRateLimited is an exported constant or variable used by the session engine.
	ErrRateLimited = errors.New("login attempts rate limited")
	// ErrSessionExpired is an exported constant or variable used by the session engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoRefreshToken is an exported constant or variable used by the session engine.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrNetwork is an exported constant or variable used by the session engine.
	ErrNetwork = errors.New("network failure")
	// ErrServer is an exported constant or variable used by the session engine.
	ErrServer = errors.New("server error")
	// ErrUnexpectedResponse is an exported constant or variable used by the session engine.
	ErrUnexpectedResponse = errors.New("unexpected server response")
	// ErrValidation is an exported constant or variable used by the session engine.
	ErrValidation = errors.New("invalid request")
)
