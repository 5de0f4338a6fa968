package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

func newTestKeyed(burst, rate float64, m *metrics.Metrics) (*KeyedLimiter, *fakeClock) {
	clock := newFakeClock()
	kl := NewKeyedLimiter(KeyedConfig{Name: "test", Burst: burst, RefillRate: rate, Metrics: m})
	kl.now = clock.now
	return kl, clock
}

func TestKeyedLimiterSeparatesKeys(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	kl, _ := newTestKeyed(1, 0.1, m)
	defer kl.Stop()

	assert.True(t, kl.Allow("U1"))
	assert.False(t, kl.Allow("U1"))
	assert.True(t, kl.Allow("U2"))
	assert.Equal(t, 2, kl.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimitedTotal.WithLabelValues("test")), 0)
}

func TestKeyedLimiterEmptyKeyAndNil(t *testing.T) {
	t.Parallel()
	kl, _ := newTestKeyed(1, 0.1, nil)
	defer kl.Stop()

	for range 5 {
		assert.True(t, kl.Allow(""))
	}
	assert.Equal(t, 0, kl.Len())

	var disabled *KeyedLimiter
	assert.True(t, disabled.Allow("U1"))
	disabled.Stop()
}

func TestKeyedLimiterSweep(t *testing.T) {
	t.Parallel()
	kl, clock := newTestKeyed(2, 1, nil)
	defer kl.Stop()

	kl.Allow("idle")
	kl.Allow("busy")
	kl.Allow("busy")

	clock.advance(time.Second)
	kl.Sweep()
	assert.Equal(t, 1, kl.Len(), "idle bucket is full again")

	clock.advance(time.Second)
	kl.Sweep()
	assert.Equal(t, 0, kl.Len())
}

func TestKeyedLimiterCleanupLoop(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "loop", Burst: 5, RefillRate: 1000, CleanupPeriod: 10 * time.Millisecond})
	defer kl.Stop()

	kl.Allow("U1")
	assert.Eventually(t, func() bool { return kl.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestKeyedLimiterConcurrent(t *testing.T) {
	t.Parallel()
	kl, _ := newTestKeyed(50, 0, nil)
	defer kl.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Go(func() {
			if kl.Allow("U1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "stop", Burst: 1, RefillRate: 1, CleanupPeriod: time.Minute})
	kl.Stop()
	kl.Stop()
}
