package ratelimiter

import (
	"sync"
	"time"

	"github.com/Mailfleet/mailfleet/pkg/clock"
)

// Defaults applied when a limit is missing from configuration.
const (
	DefaultPerDomainLimit = 30
	DefaultGlobalLimit    = 100
	DefaultWindow         = time.Minute
)

// Config holds the two fixed-window limits enforced on automation actions.
type Config struct {
	// PerDomainLimit caps actions per sending domain per window.
	PerDomainLimit int
	// GlobalLimit caps actions across all domains per window.
	GlobalLimit int
	// Window is the fixed window length shared by both counters.
	Window time.Duration
}

func (c Config) normalized() Config {
	if c.PerDomainLimit <= 0 {
		c.PerDomainLimit = DefaultPerDomainLimit
	}
	if c.GlobalLimit <= 0 {
		c.GlobalLimit = DefaultGlobalLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

type window struct {
	start time.Time
	count int
}

// expired reports whether the fixed window has rolled over.
func (w *window) expired(now time.Time, length time.Duration) bool {
	return now.Sub(w.start) >= length
}

// RateLimiter enforces two fixed-window counters over automation actions:
// one per sending domain and one global. Windows are reset lazily the first
// time they are touched after expiring; no background goroutine is involved.
//
// An acquisition consumes capacity from both counters atomically: if either
// window is full, nothing is consumed.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     Config
	clock   clock.Clock
	domains map[string]*window
	global  window
}

// New creates a rate limiter with the given limits. Non-positive limits fall
// back to the defaults (30 per domain, 100 global, one minute window).
func New(cfg Config, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		cfg:     cfg.normalized(),
		clock:   clk,
		domains: make(map[string]*window),
	}
}

// TryAcquire reports whether an automation action for the given domain may
// proceed now, consuming one unit from the per-domain and the global window
// when it may. Denials consume nothing.
func (rl *RateLimiter) TryAcquire(domainID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()

	if rl.global.expired(now, rl.cfg.Window) {
		rl.global = window{start: now}
		rl.pruneLocked(now)
	}

	dom := rl.domains[domainID]
	if dom == nil {
		dom = &window{start: now}
		rl.domains[domainID] = dom
	} else if dom.expired(now, rl.cfg.Window) {
		*dom = window{start: now}
	}

	if dom.count >= rl.cfg.PerDomainLimit || rl.global.count >= rl.cfg.GlobalLimit {
		return false
	}

	dom.count++
	rl.global.count++
	return true
}

// RetryAfter returns how long the given domain has to wait until a blocked
// acquisition can succeed, or zero when it is not currently limited.
func (rl *RateLimiter) RetryAfter(domainID string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	var wait time.Duration

	if !rl.global.expired(now, rl.cfg.Window) && rl.global.count >= rl.cfg.GlobalLimit {
		wait = rl.global.start.Add(rl.cfg.Window).Sub(now)
	}
	if dom := rl.domains[domainID]; dom != nil {
		if !dom.expired(now, rl.cfg.Window) && dom.count >= rl.cfg.PerDomainLimit {
			if d := dom.start.Add(rl.cfg.Window).Sub(now); d > wait {
				wait = d
			}
		}
	}
	return wait
}

// Window returns the configured window length.
func (rl *RateLimiter) Window() time.Duration {
	return rl.cfg.Window
}

// Usage returns the consumed capacity in the current per-domain and global
// windows. Expired windows report zero.
func (rl *RateLimiter) Usage(domainID string) (domainCount, globalCount int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if !rl.global.expired(now, rl.cfg.Window) {
		globalCount = rl.global.count
	}
	if dom := rl.domains[domainID]; dom != nil && !dom.expired(now, rl.cfg.Window) {
		domainCount = dom.count
	}
	return domainCount, globalCount
}

// pruneLocked drops per-domain windows that have expired. Called when the
// global window rolls over, so the map cannot grow past one entry per domain
// touched within a window.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for id, w := range rl.domains {
		if w.expired(now, rl.cfg.Window) {
			delete(rl.domains, id)
		}
	}
}
