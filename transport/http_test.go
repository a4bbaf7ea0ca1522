package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	return client
}

func TestHTTPClient_LoginSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body decode: %v", err)
		}
		if body["email"] != "a@b.com" || body["password"] != "Secret123!" {
			t.Errorf("unexpected credentials payload: %v", body)
		}
		_, _ = w.Write([]byte(`{"data":{"accessToken":"tok1","refreshToken":"ref1","expiresIn":900000,"user":{"role":"admin"}}}`))
	})

	resp, err := client.Login(context.Background(), "a@b.com", "Secret123!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.AccessToken != "tok1" || resp.UserRole != "admin" || resp.ExpiresIn != 15*time.Minute {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHTTPClient_StatusErrorWithLockout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"locked","lockoutUntil":1700000000000}`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "pw")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || statusErr.Message != "locked" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if statusErr.LockoutUntil.UnixMilli() != 1700000000000 {
		t.Fatalf("lockout deadline not decoded: %v", statusErr.LockoutUntil)
	}
}

func TestHTTPClient_NetworkErrorWrapped(t *testing.T) {
	client, err := NewHTTPClient(HTTPConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}

	if _, err := client.Refresh(context.Background(), "ref"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
}

func TestHTTPClient_RefreshAndLogoutPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	})

	ctx := context.Background()
	if _, err := client.Refresh(ctx, "ref1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if err := client.Logout(ctx, "ref1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/auth/refresh" || paths[1] != "/auth/logout" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestHTTPClient_UndecodableFailureBodyStillTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>gateway error</html>`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "pw")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
}
