package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork wraps transport failures that never produced an HTTP status.
var ErrNetwork = errors.New("network failure")

// ErrUnexpectedResponse is returned when a success response carries no
// recognizable token bundle.
var ErrUnexpectedResponse = errors.New("unexpected response shape")

// TokenResponse is the normalized outcome of a successful login or refresh.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserRole     string

	// ExpiresIn is zero when the server did not state a lifetime.
	ExpiresIn time.Duration
}

// StatusError is a transport failure that carries an HTTP status, plus the
// optional server-supplied message and lockout deadline.
type StatusError struct {
	StatusCode   int
	Message      string
	LockoutUntil time.Time
}

// Error describes the error operation and its observable behavior.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth api status %d", e.StatusCode)
}

// Client is the wire contract consumed by the session client. The remote
// server remains the source of truth for credential validity and lockouts.
type Client interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}
