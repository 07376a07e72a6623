// Package ratelimit provides per-client request throttling for the query API
// using token buckets keyed by client, path and method.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an idle client bucket survives before eviction.
const staleAfter = time.Hour

// tokenBucket is a continuous-refill token bucket: capacity bounds the burst
// and tokens accrue at perSecond up to that capacity.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	perSecond  float64
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, perSecond float64) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		perSecond:  perSecond,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// refill credits tokens for the time elapsed since the last refill.
// Callers hold mu.
func (b *tokenBucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.perSecond)
	b.lastRefill = now
}

// take consumes one token when available.
func (b *tokenBucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// status reports the remaining whole tokens and when the bucket refills
// completely, without consuming anything.
func (b *tokenBucket) status() (remaining int, resetTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refill(now)

	resetTime = now
	if b.tokens < b.capacity {
		refillSeconds := (b.capacity - b.tokens) / b.perSecond
		resetTime = now.Add(time.Duration(refillSeconds * float64(time.Second)))
	}
	return int(b.tokens), resetTime
}

// Info describes the rate limit state of one request, for response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter tracks one token bucket per client+path+method combination.
type Limiter struct {
	config *Config

	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	lastSeen map[string]time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a Limiter for the given configuration; nil selects the
// built-in defaults.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
		}
	}

	l := &Limiter{
		config:   config,
		buckets:  make(map[string]*tokenBucket),
		lastSeen: make(map[string]time.Time),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanupLoop()
	}
	return l
}

// Allow decides whether a request from clientID against path and method may
// proceed. The returned Info carries the limit state either way.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	cfg := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if cfg == nil {
		cfg = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	// Unlimited endpoints (health checks) carry no bucket at all.
	if cfg.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	b := l.bucket(clientID+":"+path+":"+method, cfg)
	allowed := b.take()
	remaining, resetTime := b.status()

	info := Info{
		Allowed:   allowed,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	if !allowed {
		if wait := time.Until(resetTime); wait > 0 {
			info.RetryAfter = wait
		}
	}
	return allowed, info
}

// bucket returns the bucket for key, creating it on first sight, and marks
// the key as recently used.
func (l *Limiter) bucket(key string, cfg *EndpointConfig) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Limit
		}
		b = newTokenBucket(burst, float64(cfg.Limit)/cfg.Window.Seconds())
		l.buckets[key] = b
	}
	l.lastSeen[key] = time.Now()
	return b
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.dropStaleBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

// dropStaleBuckets evicts buckets idle longer than staleAfter, bounding
// memory across many one-off clients.
func (l *Limiter) dropStaleBuckets() {
	cutoff := time.Now().Add(-staleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastSeen, key)
		}
	}
}

// Stop terminates the cleanup goroutine. Safe on limiters that never
// started one.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
