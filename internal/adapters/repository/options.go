package repository

import (
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// GuardOption applies a configuration option to Guarded.
type GuardOption func(*Guarded)

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guarded) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open.
func WithBreakerTimeout(d time.Duration) GuardOption {
	return func(g *Guarded) {
		if d > 0 {
			g.breakerTimeout = d
		}
	}
}

// WithTripAfter sets how many consecutive failures open the breaker.
func WithTripAfter(n uint32) GuardOption {
	return func(g *Guarded) {
		if n > 0 {
			g.tripAfter = n
		}
	}
}

// CacheOption applies a configuration option to PopulationCache.
type CacheOption func(*PopulationCache)

// WithTTL sets how long a population snapshot is served before a refresh.
func WithTTL(d time.Duration) CacheOption {
	return func(c *PopulationCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithRefreshRate limits population scans per second across all metrics.
func WithRefreshRate(perSecond float64, burst int) CacheOption {
	return func(c *PopulationCache) {
		if perSecond > 0 && burst > 0 {
			c.rate, c.burst = perSecond, burst
		}
	}
}

// WithRefreshTimeout bounds a population refresh shared between callers.
func WithRefreshTimeout(d time.Duration) CacheOption {
	return func(c *PopulationCache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithSnapshotStore adds a shared second-level snapshot store.
func WithSnapshotStore(s SnapshotStore) CacheOption {
	return func(c *PopulationCache) {
		c.shared = s
	}
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(l logger.Logger) CacheOption {
	return func(c *PopulationCache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) CacheOption {
	return func(c *PopulationCache) {
		if now != nil {
			c.now = now
		}
	}
}
