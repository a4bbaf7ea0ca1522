package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBody = 1 << 20

// HTTPConfig holds HTTP client tuning parameters.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the underlying http.Client; nil builds one from
	// Timeout.
	Client *http.Client
}

// HTTPClient is the concrete [Client] over net/http.
//
// HTTPClient instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an [HTTPClient] for the given base URL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL required")
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}, nil
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login is safe for concurrent use.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body, err := c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return Normalize(body)
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh is safe for concurrent use.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body, err := c.post(ctx, "/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	return Normalize(body)
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout is safe for concurrent use.
func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.post(ctx, "/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	})
	return err
}

func (c *HTTPClient) post(ctx context.Context, path string, payload map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeStatusError(resp.StatusCode, body)
	}

	return body, nil
}

// wireFailure tolerates both epoch-millisecond and RFC 3339 lockout
// deadlines; deployed API versions have emitted both.
type wireFailure struct {
	Message      string          `json:"message"`
	Error        string          `json:"error"`
	LockoutUntil json.RawMessage `json:"lockoutUntil"`
}

func decodeStatusError(status int, body []byte) *StatusError {
	out := &StatusError{StatusCode: status}

	var failure wireFailure
	if err := json.Unmarshal(body, &failure); err != nil {
		return out
	}

	out.Message = failure.Message
	if out.Message == "" {
		out.Message = failure.Error
	}
	out.LockoutUntil = parseLockoutUntil(failure.LockoutUntil)

	return out
}

func parseLockoutUntil(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil && millis > 0 {
		return time.UnixMilli(millis)
	}

	var stamp string
	if err := json.Unmarshal(raw, &stamp); err == nil {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			return t
		}
	}

	return time.Time{}
}
