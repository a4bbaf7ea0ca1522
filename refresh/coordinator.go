package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// ErrNoRefreshToken is returned when no refresh token is held, so no flight
// is attempted.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ErrReauthenticationRequired is returned when the refresh outcome is
// terminal: the server rejected the refresh token, or the session was
// cleared while the flight was in progress. Stored credentials are gone and
// the user must log in again.
var ErrReauthenticationRequired = errors.New("reauthentication required")

// Result carries the settled outcome of a refresh flight. Every concurrent
// caller that joined the flight receives the same Result.
type Result struct {
	AccessToken string
	ExpiresIn   time.Duration
	// Rotated is true when the server issued a new refresh token.
	Rotated bool
}

// Coordinator funnels all refresh demand through a single in-flight network
// call against the transport and installs the outcome into the token store.
//
//	Docs: docs/refresh.md
type Coordinator struct {
	client transport.Client
	store  *session.Store
	group  singleflight.Group
}

// NewCoordinator creates a refresh [Coordinator] over the given transport
// client and token store.
func NewCoordinator(client transport.Client, store *session.Store) (*Coordinator, error) {
	if client == nil {
		return nil, errors.New("transport client required")
	}
	if store == nil {
		return nil, errors.New("session store required")
	}
	return &Coordinator{client: client, store: store}, nil
}

// Refresh obtains a fresh access token, joining the flight already in
// progress if there is one. On success the token store has already been
// updated and rescheduled before Refresh returns.
//
// Terminal failures (token revoked server-side, session cleared mid-flight)
// return [ErrReauthenticationRequired]; transient failures wrap the
// underlying transport error and leave stored credentials untouched.
func (c *Coordinator) Refresh(ctx context.Context) (*Result, error) {
	value, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.run(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.(*Result), nil
}

// run is the flight body. It executes at most once per settled flight.
func (c *Coordinator) run(ctx context.Context) (*Result, error) {
	refreshToken := c.store.GetRefreshToken(ctx)
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	// Tag the flight with the generation observed before the network call.
	// ApplyRefresh rejects the outcome if the session mutated underneath us.
	generation := c.store.Generation()

	resp, err := c.client.Refresh(ctx, refreshToken)
	if err != nil {
		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) && isTerminalStatus(statusErr.StatusCode) {
			c.store.Clear(ctx)
			return nil, fmt.Errorf("%w: refresh token rejected", ErrReauthenticationRequired)
		}
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh failed: %w", transport.ErrUnexpectedResponse)
	}

	if !c.store.ApplyRefresh(ctx, generation, resp.AccessToken, resp.ExpiresIn, resp.RefreshToken) {
		return nil, fmt.Errorf("%w: session cleared during refresh", ErrReauthenticationRequired)
	}

	return &Result{
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		Rotated:     resp.RefreshToken != "",
	}, nil
}

// isTerminalStatus reports whether an HTTP status from the refresh endpoint
// means the refresh token itself is no longer acceptable.
func isTerminalStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
