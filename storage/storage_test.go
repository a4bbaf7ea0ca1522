package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testBackendContract(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := backend.Get(ctx, "absent"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get on missing key: want ErrKeyNotFound, got %v", err)
	}

	if err := backend.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := backend.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "v1" {
		t.Fatalf("Get = %q, want %q", got, "v1")
	}

	// Overwrite.
	if err := backend.Set(ctx, "k1", "v2", 0); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, _ := backend.Get(ctx, "k1"); got != "v2" {
		t.Fatalf("after overwrite Get = %q, want %q", got, "v2")
	}

	if err := backend.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := backend.Get(ctx, "k1"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after delete: want ErrKeyNotFound, got %v", err)
	}

	// Delete of a missing key is a no-op.
	if err := backend.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestMemory_Contract(t *testing.T) {
	testBackendContract(t, NewMemory())
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	now := time.Now()
	backend.now = func() time.Time { return now }

	if err := backend.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := backend.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := backend.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after expiry: want ErrKeyNotFound, got %v", err)
	}
}

func TestBolt_Contract(t *testing.T) {
	backend, err := OpenBolt(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer backend.Close()

	testBackendContract(t, backend)
}

func TestBolt_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	backend, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	if err := backend.Set(ctx, "persisted", "value", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persisted")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "value" {
		t.Fatalf("Get after reopen = %q, want %q", got, "value")
	}
}

func TestBolt_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenBolt(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer backend.Close()

	now := time.Now()
	backend.now = func() time.Time { return now }

	if err := backend.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := backend.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after expiry: want ErrKeyNotFound, got %v", err)
	}
}

func newRedisBackend(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedis(rdb, "gst"), mr
}

func TestRedis_Contract(t *testing.T) {
	backend, _ := newRedisBackend(t)
	testBackendContract(t, backend)
}

func TestRedis_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	backend, mr := newRedisBackend(t)

	if err := backend.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := backend.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after TTL: want ErrKeyNotFound, got %v", err)
	}
}
