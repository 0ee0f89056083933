package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

// Default guard configuration constants.
const (
	defaultStoreTimeout   = 2 * time.Second
	defaultBreakerTimeout = 30 * time.Second
	defaultTripAfter      = 3
)

// Guarded bounds every call to the wrapped Store by a timeout and sheds load
// through a circuit breaker once the store keeps failing. Timeouts and an
// open breaker surface as ErrUpstreamTimeout.
type Guarded struct {
	next           Store
	cb             *gobreaker.CircuitBreaker
	timeout        time.Duration
	breakerTimeout time.Duration
	tripAfter      uint32
	log            logger.Logger
}

var _ Store = (*Guarded)(nil)

// NewGuarded wraps next.
func NewGuarded(next Store, opts ...GuardOption) *Guarded {
	g := &Guarded{
		next:           next,
		timeout:        defaultStoreTimeout,
		breakerTimeout: defaultBreakerTimeout,
		tripAfter:      defaultTripAfter,
		log:            logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "store",
		Interval: time.Minute,
		Timeout:  g.breakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= g.tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, types.ErrInvalidMetricType) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			g.log.Warn(context.Background(), "store breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return g
}

// State returns the breaker state.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }

// BreakerState returns the breaker state name for reporting.
func (g *Guarded) BreakerState() string { return g.cb.State().String() }

func guard[T any](ctx context.Context, g *Guarded, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	out, err := g.cb.Execute(func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		v, err := fn(cctx)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%s after %s: %w", op, g.timeout, ErrUpstreamTimeout)
		}
		return v, err
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordStoreError(op, "circuit_open")
		return zero, fmt.Errorf("%s: %w: %w", op, ErrUpstreamTimeout, ErrCircuitOpen)
	case errors.Is(err, ErrUpstreamTimeout):
		metrics.RecordStoreError(op, "timeout")
		return zero, err
	case err != nil:
		metrics.RecordStoreError(op, "query")
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// RevenueHistory implements Store.
func (g *Guarded) RevenueHistory(ctx context.Context, clientID string, w model.Window) ([]model.RevenuePoint, error) {
	return guard(ctx, g, "revenue_history", func(ctx context.Context) ([]model.RevenuePoint, error) {
		return g.next.RevenueHistory(ctx, clientID, w)
	})
}

// PaymentHistory implements Store.
func (g *Guarded) PaymentHistory(ctx context.Context, clientID string, w model.Window) ([]model.Payment, error) {
	return guard(ctx, g, "payment_history", func(ctx context.Context) ([]model.Payment, error) {
		return g.next.PaymentHistory(ctx, clientID, w)
	})
}

// DebtAging implements Store.
func (g *Guarded) DebtAging(ctx context.Context, clientID string, asOf time.Time) ([]model.DebtBucket, error) {
	return guard(ctx, g, "debt_aging", func(ctx context.Context) ([]model.DebtBucket, error) {
		return g.next.DebtAging(ctx, clientID, asOf)
	})
}

// Tenure implements Store.
func (g *Guarded) Tenure(ctx context.Context, clientID string) (time.Time, error) {
	return guard(ctx, g, "tenure", func(ctx context.Context) (time.Time, error) {
		return g.next.Tenure(ctx, clientID)
	})
}

// PopulationMetric implements Store.
func (g *Guarded) PopulationMetric(ctx context.Context, metric types.MetricType, asOf time.Time) ([]model.MetricSample, error) {
	return guard(ctx, g, "population", func(ctx context.Context) ([]model.MetricSample, error) {
		return g.next.PopulationMetric(ctx, metric, asOf)
	})
}

// ActiveClientIDs implements Store.
func (g *Guarded) ActiveClientIDs(ctx context.Context) ([]string, error) {
	return guard(ctx, g, "active_clients", func(ctx context.Context) ([]string, error) {
		return g.next.ActiveClientIDs(ctx)
	})
}
