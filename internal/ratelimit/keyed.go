package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels drops in ders_rate_limited_total ("line", "chat").
	Name string

	Burst      float64 // bucket capacity
	RefillRate float64 // tokens per second

	// CleanupPeriod is how often idle buckets are dropped. Zero disables
	// the cleanup goroutine.
	CleanupPeriod time.Duration

	Metrics *metrics.Metrics
}

// KeyedLimiter keeps one token bucket per key (LINE user, client IP).
// A nil *KeyedLimiter allows everything.
type KeyedLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*Limiter
	config  KeyedConfig
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewKeyedLimiter creates a per-key limiter. Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	kl := &KeyedLimiter{
		buckets: make(map[string]*Limiter),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go kl.cleanupLoop()
	}
	return kl
}

// Allow reports whether key may make another request and consumes a token
// if so. Empty keys are never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if kl == nil || key == "" {
		return true
	}
	if kl.bucket(key).Allow() {
		return true
	}
	kl.config.Metrics.RecordRateLimited(kl.config.Name)
	return false
}

func (kl *KeyedLimiter) bucket(key string) *Limiter {
	kl.mu.RLock()
	b, ok := kl.buckets[key]
	kl.mu.RUnlock()
	if ok {
		return b
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if b, ok = kl.buckets[key]; ok {
		return b
	}
	b = newWithClock(kl.config.Burst, kl.config.RefillRate, kl.now)
	kl.buckets[key] = b
	return b
}

// Len returns the number of tracked keys.
func (kl *KeyedLimiter) Len() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.buckets)
}

// Sweep drops buckets that have refilled completely.
func (kl *KeyedLimiter) Sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, b := range kl.buckets {
		if b.IsFull() {
			delete(kl.buckets, key)
		}
	}
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.Sweep()
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	if kl == nil {
		return
	}
	kl.once.Do(func() { close(kl.stopCh) })
}
