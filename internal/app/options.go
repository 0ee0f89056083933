package service

import (
	"slices"
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/adapters/repository"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPolicy sets the engine policy. The policy is expected to be valid.
func WithPolicy(p policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithClock sets the time source used to derive the evaluation day.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPopulationCache sets the cache population reads go through.
func WithPopulationCache(c *repository.PopulationCache) Option {
	return func(s *Service) {
		if c != nil {
			s.population = c
		}
	}
}

// WithTopK sets the default number of leading leaderboard entries.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k >= 0 {
			s.topK = k
		}
	}
}

// WithNeighborhood sets how many entries either side of the client are
// returned.
func WithNeighborhood(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.neighborhood = n
		}
	}
}

// WithMaxLimit caps caller supplied entry limits.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithTrendLookbackDays sets how far back rank movement is measured.
func WithTrendLookbackDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.trendLookbackDays = days
		}
	}
}

// WithHistoryDays sets the lookbacks sampled for a leaderboard's rank
// history. Non-positive values are dropped; no days disables history.
func WithHistoryDays(days ...int) Option {
	return func(s *Service) {
		kept := make([]int, 0, len(days))
		for _, d := range days {
			if d > 0 && !slices.Contains(kept, d) {
				kept = append(kept, d)
			}
		}
		slices.Sort(kept)
		slices.Reverse(kept)
		s.historyDays = kept
	}
}

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}
