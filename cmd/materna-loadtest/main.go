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

	materna "github.com/materna-health/materna-go"
	"github.com/materna-health/materna-go/store"
)

// stubGateway fakes the backend so the load test exercises the session
// client and the store without a network in the way.
type stubGateway struct {
	failRate float64
}

func (g *stubGateway) Login(_ context.Context, creds materna.Credentials) (*materna.AuthPayload, error) {
	if g.failRate > 0 && rand.Float64() < g.failRate {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &materna.AuthPayload{
		Token: "lt-token-" + creds.Email,
		User: materna.UserRecord{
			ID:    "lt-" + creds.Email,
			Email: creds.Email,
			Role:  materna.RolePatient,
		},
	}, nil
}

func (g *stubGateway) Register(_ context.Context, input materna.RegisterInput) (*materna.AuthPayload, error) {
	return &materna.AuthPayload{
		Token: "lt-token-" + input.Email,
		User:  materna.UserRecord{ID: "lt-" + input.Email, Email: input.Email, Role: materna.RolePatient},
	}, nil
}

func (g *stubGateway) CurrentUser(context.Context) (*materna.UserRecord, error) {
	return &materna.UserRecord{ID: "lt", Role: materna.RolePatient}, nil
}

func (g *stubGateway) Logout(context.Context) error { return nil }

func (g *stubGateway) Refresh(context.Context) (*materna.AuthPayload, error) {
	return &materna.AuthPayload{
		Token: "lt-token-rotated",
		User:  materna.UserRecord{ID: "lt", Role: materna.RolePatient},
	}, nil
}

func main() {
	var (
		cycles      = flag.Int("cycles", 50000, "login/restore/logout cycles to run")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		failRate    = flag.Float64("fail-rate", 0.05, "fraction of logins the stub backend rejects")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "materna-lt", "store key prefix")
	)
	flag.Parse()

	if *cycles <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "cycles and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	st := store.NewRedisStore(rdb, *prefix)

	gw := &stubGateway{failRate: *failRate}
	client, err := materna.New().
		WithStore(st).
		WithGateway(gw).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	loginStats := runPhase(ctx, "login", *cycles, *concurrency, func(ctx context.Context, worker, i int) error {
		email := fmt.Sprintf("w%d@loadtest.local", worker)
		_, err := client.Login(ctx, materna.Credentials{Email: email, Password: "loadtest-pass"})
		return err
	})

	restoreStats := runPhase(ctx, "restore", *cycles, *concurrency, func(ctx context.Context, worker, i int) error {
		return client.Initialize(ctx)
	})

	logoutStats := runPhase(ctx, "logout", *cycles, *concurrency, func(ctx context.Context, worker, i int) error {
		return client.Logout(ctx)
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("restore", restoreStats)
	printStats("logout", logoutStats)

	counters := client.MetricsSnapshot().Counters
	fmt.Printf("counters: login_success=%d login_failure=%d wipes=%d\n",
		counters[materna.MetricLoginSuccess],
		counters[materna.MetricLoginFailure],
		counters[materna.MetricWipe],
	)
}

func runPhase(ctx context.Context, name string, ops, concurrency int, fn func(ctx context.Context, worker, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	fmt.Printf("running %s phase: %d ops across %d workers...\n", name, ops, concurrency)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(ctx, worker, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
