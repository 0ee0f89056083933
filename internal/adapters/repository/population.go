package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

// Default population cache configuration constants.
const (
	defaultPopulationTTL  = 5 * time.Minute
	defaultRefreshRate    = 2.0
	defaultRefreshBurst   = 4
	defaultRefreshTimeout = 30 * time.Second
	// retainDays is how many evaluation days of snapshots stay in memory.
	retainDays = 45
)

// Snapshot is one point-in-time read of a metric over the whole population.
type Snapshot struct {
	Metric  types.MetricType     `json:"metric"`
	AsOf    time.Time            `json:"asOf"`
	TakenAt time.Time            `json:"takenAt"`
	Samples []model.MetricSample `json:"samples"`
	// Stale is set when the snapshot is served because a refresh failed.
	Stale bool `json:"-"`
}

// SnapshotStore shares population snapshots between processes. Load returns
// ErrNoSnapshot when nothing is stored.
type SnapshotStore interface {
	Load(ctx context.Context, metric types.MetricType, asOf time.Time) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

type snapshotKey struct {
	metric types.MetricType
	day    time.Time
}

func (k snapshotKey) String() string {
	return string(k.metric) + "@" + k.day.Format(time.DateOnly)
}

// PopulationCache serves population snapshots from memory, refreshing them
// from the store at most once per TTL and key, with a global refresh rate
// limit. When a refresh fails the last good snapshot is served and marked
// stale.
type PopulationCache struct {
	store  Store
	shared SnapshotStore
	ttl    time.Duration
	rate   float64
	burst  int
	now    func() time.Time
	log    logger.Logger

	// refreshTimeout bounds a coalesced store read.
	refreshTimeout time.Duration

	limiter *rate.Limiter
	group   singleflight.Group

	mu     sync.RWMutex
	byKey  map[snapshotKey]*atomic.Pointer[Snapshot]
	latest map[types.MetricType]*atomic.Pointer[Snapshot]
}

// NewPopulationCache wraps store.
func NewPopulationCache(store Store, opts ...CacheOption) *PopulationCache {
	c := &PopulationCache{
		store:  store,
		ttl:    defaultPopulationTTL,
		rate:   defaultRefreshRate,
		burst:  defaultRefreshBurst,
		now:    time.Now,

		refreshTimeout: defaultRefreshTimeout,
		log:    logger.Get().Named("population"),
		byKey:  make(map[snapshotKey]*atomic.Pointer[Snapshot]),
		latest: make(map[types.MetricType]*atomic.Pointer[Snapshot]),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = rate.NewLimiter(rate.Limit(c.rate), c.burst)
	return c
}

// Get returns the population snapshot of metric for the evaluation day.
func (c *PopulationCache) Get(ctx context.Context, metric types.MetricType, asOf time.Time) (Snapshot, error) {
	key := snapshotKey{metric: metric, day: model.StartOfDay(asOf)}
	if s := c.load(key); s != nil && c.fresh(s) {
		metrics.RecordCacheHit(string(metric))
		return *s, nil
	}
	metrics.RecordCacheMiss(string(metric))

	// The refresh is shared by every caller waiting on the key, so it must
	// not die with the caller that happened to start it.
	ch := c.group.DoChan(key.String(), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.refresh(rctx, key)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("population %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return *res.Val.(*Snapshot), nil
	}
}

// Invalidate drops every cached snapshot so the next Get reads the store.
func (c *PopulationCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[snapshotKey]*atomic.Pointer[Snapshot])
}

// Len is the number of cached snapshots.
func (c *PopulationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

func (c *PopulationCache) fresh(s *Snapshot) bool {
	return c.now().Sub(s.TakenAt) < c.ttl
}

func (c *PopulationCache) load(key snapshotKey) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.byKey[key]; ok {
		return p.Load()
	}
	return nil
}

// lastGood returns the newest snapshot of the metric that is not newer than
// the requested day, the key's own snapshot included.
func (c *PopulationCache) lastGood(key snapshotKey) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Snapshot
	consider := func(s *Snapshot) {
		if s != nil && !s.AsOf.After(key.day) && (best == nil || s.AsOf.After(best.AsOf)) {
			best = s
		}
	}
	for k, p := range c.byKey {
		if k.metric == key.metric {
			consider(p.Load())
		}
	}
	if p, ok := c.latest[key.metric]; ok {
		consider(p.Load())
	}
	return best
}

func (c *PopulationCache) refresh(ctx context.Context, key snapshotKey) (*Snapshot, error) {
	if s := c.load(key); s != nil && c.fresh(s) {
		return s, nil
	}
	if s := c.loadShared(ctx, key); s != nil {
		c.publish(key, s)
		return s, nil
	}

	if !c.limiter.Allow() {
		if s := c.load(key); s != nil {
			return c.stale(key, s, errors.New("refresh rate limited")), nil
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("population %s: %w", key, err)
		}
	}

	start := c.now()
	samples, err := c.store.PopulationMetric(ctx, key.metric, key.day)
	if err != nil {
		if s := c.lastGood(key); s != nil && !errors.Is(err, types.ErrInvalidMetricType) {
			return c.stale(key, s, err), nil
		}
		return nil, fmt.Errorf("population %s: %w", key, err)
	}
	metrics.RecordSnapshotRebuildDuration(float64(c.now().Sub(start).Microseconds()) / 1000)

	s := &Snapshot{Metric: key.metric, AsOf: key.day, TakenAt: c.now(), Samples: samples}
	c.publish(key, s)
	metrics.UpdatePopulationSize(string(key.metric), len(samples))
	if c.shared != nil {
		if err := c.shared.Save(ctx, s); err != nil {
			c.log.Warn(ctx, "failed to share population snapshot",
				logger.String("key", key.String()),
				logger.Error(err),
			)
		}
	}
	return s, nil
}

func (c *PopulationCache) loadShared(ctx context.Context, key snapshotKey) *Snapshot {
	if c.shared == nil {
		return nil
	}
	s, err := c.shared.Load(ctx, key.metric, key.day)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			c.log.Warn(ctx, "failed to load shared population snapshot",
				logger.String("key", key.String()),
				logger.Error(err),
			)
		}
		return nil
	}
	if !c.fresh(s) {
		return nil
	}
	return s
}

func (c *PopulationCache) stale(key snapshotKey, s *Snapshot, cause error) *Snapshot {
	metrics.RecordCacheStale(string(key.metric))
	c.log.Warn(context.Background(), "serving stale population snapshot",
		logger.String("key", key.String()),
		logger.String("takenAt", s.TakenAt.Format(time.RFC3339)),
		logger.Error(cause),
	)
	out := *s
	out.Stale = true
	return &out
}

// publish stores the snapshot and drops snapshots older than retainDays.
func (c *PopulationCache) publish(key snapshotKey, s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.byKey[key]
	if !ok {
		p = &atomic.Pointer[Snapshot]{}
		c.byKey[key] = p
	}
	p.Store(s)

	l, ok := c.latest[key.metric]
	if !ok {
		l = &atomic.Pointer[Snapshot]{}
		c.latest[key.metric] = l
	}
	if cur := l.Load(); cur == nil || !cur.AsOf.After(s.AsOf) {
		l.Store(s)
	}

	cutoff := key.day.AddDate(0, 0, -retainDays)
	for k := range c.byKey {
		if k.day.Before(cutoff) {
			delete(c.byKey, k)
		}
	}
	metrics.IncrementSnapshotCount()
}
