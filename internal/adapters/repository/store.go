// Package repository provides read access to the transactional history the
// credit engine evaluates, plus the caching and guarding layers around it.
package repository

import (
	"context"
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/signals"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Store is the read-only view of the transactional store. Every method is a
// single point-in-time read.
type Store interface {
	signals.Source

	// PopulationMetric returns one sample per client for the metric as of the
	// given day. Every client is returned in one call; eligibility is decided
	// by the ranker.
	PopulationMetric(ctx context.Context, metric types.MetricType, asOf time.Time) ([]model.MetricSample, error)

	// ActiveClientIDs lists the clients a batch recalculation should cover.
	ActiveClientIDs(ctx context.Context) ([]string, error)
}
