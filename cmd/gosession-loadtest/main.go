// Command gosession-loadtest measures the persistence path of goSession
// against a real (or embedded) Redis: obfuscated session backups written
// through the credential codec, cold restores, and rate-limit state
// read-modify-write cycles.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/ratelimit"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/storage"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 20000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (restore + ratelimit)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gs", "storage key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backend := storage.NewRedis(client, *prefix)

	codec, err := credential.NewCodec("loadtest-secret")
	if err != nil {
		fmt.Fprintf(os.Stderr, "codec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		store, err := session.NewStore(backend, codec, storeConfig(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "store: %v\n", err)
			os.Exit(1)
		}
		if err := store.Store(ctx, buildBundle(i)); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restoreStats := runRestorePhase(ctx, backend, codec, *sessions, *ops, *concurrency)
	limiterStats := runRateLimitPhase(ctx, backend, *sessions, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("restore", restoreStats)
	printStats("ratelimit", limiterStats)
}

// runRestorePhase builds a fresh store per operation so every read goes
// through the backend and the codec decode path instead of the in-memory
// record.
func runRestorePhase(ctx context.Context, backend storage.Backend, codec *credential.Codec, sessions, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(sessions)
				t0 := time.Now()
				store, err := session.NewStore(backend, codec, storeConfig(idx))
				var token string
				if err == nil {
					token = store.GetRefreshToken(ctx)
				}
				d := time.Since(t0)
				if err != nil || token == "" {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRateLimitPhase hammers the failed-attempt read-modify-write cycle,
// one limiter key per simulated device.
func runRateLimitPhase(ctx context.Context, backend storage.Backend, sessions, ops, concurrency int) phaseStats {
	engines := make([]*ratelimit.Engine, sessions)
	for i := range engines {
		engine, err := ratelimit.New(backend, limiterConfig(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ratelimit: %v\n", err)
			os.Exit(1)
		}
		engines[i] = engine
	}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				engine := engines[r.Intn(len(engines))]
				t0 := time.Now()
				engine.RecordFailedAttempt(ctx, time.Time{})
				decision := engine.CanAttemptLogin(ctx)
				d := time.Since(t0)
				if !decision.Allowed {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func storeConfig(i int) session.Config {
	return session.Config{
		RefreshThreshold: time.Minute,
		DefaultAccessTTL: 24 * time.Hour,
		StorageKey:       fmt.Sprintf("sess-%d", i),
		MaxScheduleDelay: 24 * time.Hour,
	}
}

func limiterConfig(i int) ratelimit.Config {
	return ratelimit.Config{
		MaxAttempts:        1 << 30,
		BaseLockout:        time.Minute,
		LockoutMultiplier:  2,
		MaxLockout:         time.Hour,
		InitialDelay:       0,
		DelayBackoffFactor: 2,
		MaxDelay:           time.Second,
		StaleAfter:         24 * time.Hour,
		StorageKey:         fmt.Sprintf("attempts-%d", i),
	}
}

func buildBundle(i int) session.Bundle {
	return session.Bundle{
		AccessToken:  fmt.Sprintf("access-%d", i),
		RefreshToken: fmt.Sprintf("refresh-%d", i),
		UserID:       fmt.Sprintf("user-%d", i),
		UserRole:     "member",
		ExpiresIn:    24 * time.Hour,
	}
}
