package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Method: http.MethodPost, Path: "/jobs/refresh", Limit: 6, Window: time.Minute, Burst: 2},
		},
	}
}

func newTestLimiter(t *testing.T, cfg *Config, now *time.Time) *Limiter {
	t.Helper()
	l := NewLimiter(cfg)
	l.now = func() time.Time { return *now }
	t.Cleanup(l.Stop)
	return l
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, testConfig(), &now)

	ok, info := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	require.True(t, ok)
	assert.Equal(t, 6, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	require.True(t, ok)

	ok, info = l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	assert.False(t, ok)
	assert.False(t, info.Allowed)
	assert.InDelta(t, float64(10*time.Second), float64(info.RetryAfter), float64(time.Millisecond))
}

func TestLimiter_Refill(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, testConfig(), &now)

	for range 2 {
		ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
		require.True(t, ok)
	}
	ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	require.False(t, ok)

	now = now.Add(10 * time.Second)
	ok, _ = l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	assert.True(t, ok, "one token refills every window/limit")
}

func TestLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, testConfig(), &now)

	for range 2 {
		l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	}
	for range 5 {
		ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
		require.False(t, ok)
	}

	now = now.Add(10 * time.Second)
	ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	assert.True(t, ok)
}

func TestLimiter_PerClient(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, testConfig(), &now)

	for range 2 {
		l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	}
	ok, _ := l.Allow("10.0.0.2", http.MethodPost, "/jobs/refresh")
	assert.True(t, ok)
}

func TestLimiter_UnlimitedRoutes(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, testConfig(), &now)

	for range 50 {
		ok, info := l.Allow("10.0.0.1", http.MethodGet, "/jobs")
		require.True(t, ok)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_DisabledAndWhitelist(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cfg := testConfig()
	cfg.Enabled = false
	l := newTestLimiter(t, cfg, &now)
	for range 10 {
		ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
		require.True(t, ok)
	}

	cfg = testConfig()
	cfg.Whitelist = map[string]bool{"127.0.0.1": true}
	l = newTestLimiter(t, cfg, &now)
	for range 10 {
		ok, _ := l.Allow("127.0.0.1", http.MethodPost, "/jobs/refresh")
		require.True(t, ok)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.IdleTTL = time.Minute
	l := newTestLimiter(t, cfg, &now)

	l.Allow("10.0.0.1", http.MethodPost, "/jobs/refresh")
	now = now.Add(30 * time.Second)
	l.Allow("10.0.0.2", http.MethodPost, "/jobs/refresh")

	now = now.Add(45 * time.Second)
	l.evictIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.entries, 1)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Method: http.MethodPost, Path: "/email/sync", Limit: 10, Window: time.Hour, Burst: 10},
		},
	})
	defer l.Stop()

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.1", http.MethodPost, "/email/sync"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultConfig().EndpointConfigs

	require.NotNil(t, MatchEndpoint(http.MethodPost, "/email/sync", configs))
	assert.Nil(t, MatchEndpoint(http.MethodGet, "/email/sync", configs))
	assert.Nil(t, MatchEndpoint(http.MethodPost, "/jobs/refresh/", configs))
}

func TestStop_Idempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}
