//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/storage"
)

// stubAuthServer speaks the wire shape the HTTP transport expects: one
// valid user, rotating refresh tokens, counted calls.
type stubAuthServer struct {
	mu            sync.Mutex
	refreshToken  string
	loginCalls    int
	refreshCalls  int
	logoutCalls   int
	refreshDelay  time.Duration
	rotateCounter int
}

func (s *stubAuthServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loginCalls++
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			req.Email != "alice@example.com" || req.Password != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid email or password"})
			return
		}
		s.refreshToken = "refresh-0"
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-0",
			"refreshToken": s.refreshToken,
			"userId":       "u1",
			"role":         "admin",
			"expiresIn":    int64(15 * time.Minute / time.Millisecond),
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		s.mu.Lock()
		delay := s.refreshDelay
		s.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.refreshCalls++
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != s.refreshToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "refresh token revoked"})
			return
		}
		s.rotateCounter++
		s.refreshToken = "refresh-" + strconv.Itoa(s.rotateCounter)
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-" + strconv.Itoa(s.rotateCounter),
			"refreshToken": s.refreshToken,
			"expiresIn":    int64(15 * time.Minute / time.Millisecond),
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.logoutCalls++
		s.refreshToken = ""
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *stubAuthServer) counts() (login, refresh, logout int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls, s.refreshCalls, s.logoutCalls
}

type integrationEnv struct {
	server  *stubAuthServer
	backend *storage.Redis
	rdb     *redis.Client
	baseURL string
}

// newIntegrationEnv wires miniredis-backed storage plus a stub auth
// server. Clients built from it share both, so a second client simulates
// a restarted consumer process.
func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	stub := &stubAuthServer{}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	return &integrationEnv{
		server:  stub,
		backend: storage.NewRedis(rdb, "it"),
		rdb:     rdb,
		baseURL: srv.URL,
	}
}

func (e *integrationEnv) newClient(t *testing.T) *goSession.Client {
	t.Helper()

	cfg := goSession.DefaultConfig()
	cfg.Credential.Secret = "integration-secret"
	cfg.Transport.BaseURL = e.baseURL
	cfg.Transport.Timeout = 5 * time.Second
	cfg.RateLimit.InitialDelay = 0

	client, err := goSession.New().
		WithConfig(cfg).
		WithStorage(e.backend).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
