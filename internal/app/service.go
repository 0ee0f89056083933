// Package service wires the credit capacity and ranking engine into the
// operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EvanTenenbaum/TERP-sub019/internal/adapters/batch"
	"github.com/EvanTenenbaum/TERP-sub019/internal/adapters/repository"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/capacity"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/explain"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/ranking"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/scoring"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/signals"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/suggest"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultTopK              = 10
	defaultNeighborhood      = 2
	defaultMaxLimit          = 100
	defaultTrendLookbackDays = 30
)

// defaultHistoryDays are the lookbacks of the rank history, oldest first.
var defaultHistoryDays = []int{90, 60, 30, 7} //nolint:gochecknoglobals // read-only default

// Operation names used in metrics.
const (
	opCredit      = "credit"
	opLeaderboard = "leaderboard"
	opBatch       = "batch"
)

// Service evaluates credit capacity and leaderboard standing. Evaluations are
// read-only and idempotent within one evaluation day.
type Service struct {
	store      repository.Store
	population *repository.PopulationCache
	pool       *batch.Pool

	policy    policy.Policy
	extractor *signals.Extractor
	scorer    *scoring.CompositeScorer
	capacity  *capacity.Calculator
	explainer *explain.Generator
	ranker    *ranking.Ranker
	suggester *suggest.Generator

	now               func() time.Time
	topK              int
	neighborhood      int
	maxLimit          int
	trendLookbackDays int
	historyDays       []int
	workerCount       int

	credits      atomic.Int64
	leaderboards atomic.Int64
	failures     atomic.Int64

	logger logger.Logger
}

// New constructs a Service reading from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		policy:            policy.Default(),
		now:               time.Now,
		topK:              defaultTopK,
		neighborhood:      defaultNeighborhood,
		maxLimit:          defaultMaxLimit,
		trendLookbackDays: defaultTrendLookbackDays,
		historyDays:       defaultHistoryDays,
		logger:            logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	p := s.policy
	s.extractor = signals.New(store, p)
	s.scorer = scoring.NewCompositeScorer(scoring.WithWeights(p.Weights), scoring.WithMinSignals(p.MinSignals))
	s.capacity = capacity.New(p.Capacity)
	s.explainer = explain.New(p.Bands, p.Weights)
	s.ranker = ranking.New(p.Ranking)
	s.suggester = suggest.New(p.Weights, p.Bands, p.Suggestions)
	if s.population == nil {
		s.population = repository.NewPopulationCache(store, repository.WithClock(s.now))
	}
	s.pool = batch.NewPool(s.workerCount)
	return s
}

// asOf is the evaluation day.
func (s *Service) asOf() time.Time {
	return model.StartOfDay(s.now())
}

// EvaluateCreditCapacity computes the client's credit limit with its
// explanation. A client without enough history gets the NEW_CLIENT limit.
func (s *Service) EvaluateCreditCapacity(ctx context.Context, clientID string) (res model.CreditCapacityResult, err error) {
	start := time.Now()
	defer func() { s.observe(opCredit, start, err) }()

	if clientID == "" {
		return res, fmt.Errorf("empty client id: %w", ErrClientNotFound)
	}
	asOf := s.asOf()

	ex, err := s.extractor.Extract(ctx, clientID, asOf)
	if err != nil {
		return res, fmt.Errorf("evaluate credit capacity for %s: %w", clientID, err)
	}

	var score *scoring.Result
	sc, err := s.scorer.Score(ex.Set)
	switch {
	case err == nil:
		score = &sc
	case errors.Is(err, ErrInsufficientData):
		s.logger.Debug(ctx, "scoring new client",
			logger.String("clientId", clientID),
			logger.Int("signals", sc.Present),
		)
	default:
		return res, fmt.Errorf("score %s: %w", clientID, err)
	}

	res = s.capacity.Calculate(ex.Facts, score)
	res.Signals = ex.Set
	res.Trend = signals.Overall(ex.Set.Trends, s.policy.TrendThreshold)
	res.Explanation = s.explainer.Explain(res, score, ex.Set)

	metrics.ObserveCreditLimit(res.CreditLimit)
	if v, ok := res.CreditHealthScore.Get(); ok {
		metrics.ObserveCreditHealthScore(v)
	}
	s.credits.Add(1)
	return res, nil
}

// EvaluateLeaderboard ranks the client on the requested leaderboard. limit
// overrides the number of leading entries; zero keeps the configured
// default.
func (s *Service) EvaluateLeaderboard(ctx context.Context, clientID, leaderboardType, displayMode string, limit int) (res model.LeaderboardResult, err error) {
	start := time.Now()
	defer func() { s.observe(opLeaderboard, start, err) }()

	metric, err := types.ParseLeaderboardType(leaderboardType)
	if err != nil {
		return res, err
	}
	mode, err := types.ParseDisplayMode(displayMode)
	if err != nil {
		return res, err
	}
	if clientID == "" {
		return res, fmt.Errorf("empty client id: %w", ErrClientNotFound)
	}
	topK := s.topK
	if limit > 0 {
		topK = min(limit, s.maxLimit)
	}
	asOf := s.asOf()

	snap, err := s.population.Get(ctx, metric, asOf)
	if err != nil {
		return res, fmt.Errorf("load %s population: %w", metric, err)
	}
	if !hasClient(snap.Samples, clientID) {
		return res, fmt.Errorf("client %s: %w", clientID, ErrClientNotFound)
	}
	current, err := s.ranker.Rank(metric, snap.Samples)
	if err != nil {
		return res, err
	}
	entry, err := current.Position(clientID)
	if err != nil {
		return res, err
	}

	res = model.LeaderboardResult{
		ClientID:        clientID,
		LeaderboardType: metric,
		ClientRank:      entry.Rank,
		TotalClients:    current.Len(),
		Percentile:      current.Percentile(entry.Rank),
		GapToNextRank:   ranking.Gap(current, clientID),
		Entries:         current.Window(clientID, topK, s.neighborhood),
		Stale:           snap.Stale,
		SnapshotAt:      snap.TakenAt,
	}

	ctxData := s.leaderboardContext(ctx, metric, clientID, asOf)
	res.Trend, res.TrendAmount, res.PriorRank = ranking.Movement(current, ctxData.prior, clientID)
	res.History = ctxData.history
	if p, ok := ranking.Point(current, clientID, snap.AsOf); ok {
		res.History = appendPoint(res.History, p)
	}
	res.CategoryRanks = ctxData.categories
	res.Suggestions = s.suggester.Suggest(ctxData.set, res)

	ranking.ApplyDisplay(&res, mode)
	s.leaderboards.Add(1)
	return res, nil
}

// leaderboardData is the best-effort context around a ranking: the prior
// ranking for movement, the category ranks and the signal set for
// suggestions. Failures degrade the result instead of failing it.
type leaderboardData struct {
	prior      ranking.Ranking
	categories []model.CategoryRank
	history    []model.RankPoint
	set        model.ClientSignalSet
}

func (s *Service) leaderboardContext(ctx context.Context, metric types.MetricType, clientID string, asOf time.Time) leaderboardData {
	out := leaderboardData{
		categories: make([]model.CategoryRank, len(types.Categories)),
		set:        model.NewClientSignalSet(clientID, model.TrailingWindow(asOf, s.policy.WindowDays)),
	}

	points := make([]model.RankPoint, len(s.historyDays))
	var g errgroup.Group
	for i, days := range s.historyDays {
		g.Go(func() error {
			snap, err := s.population.Get(ctx, metric, asOf.AddDate(0, 0, -days))
			if err != nil {
				s.warn(ctx, "history population unavailable", clientID, err)
				return nil
			}
			if rk, err := s.ranker.Rank(metric, snap.Samples); err == nil {
				points[i], _ = ranking.Point(rk, clientID, snap.AsOf)
			}
			return nil
		})
	}
	g.Go(func() error {
		day := asOf.AddDate(0, 0, -s.trendLookbackDays)
		snap, err := s.population.Get(ctx, metric, day)
		if err != nil {
			s.warn(ctx, "prior population unavailable", clientID, err)
			return nil
		}
		if prior, err := s.ranker.Rank(metric, snap.Samples); err == nil {
			out.prior = prior
		}
		return nil
	})
	for i, c := range types.Categories {
		g.Go(func() error {
			snap, err := s.population.Get(ctx, c.Metric(), asOf)
			if err != nil {
				s.warn(ctx, "category population unavailable", clientID, err)
				out.categories[i] = model.CategoryRank{Category: c, Metric: c.Metric()}
				return nil
			}
			out.categories[i] = s.ranker.Category(c, snap.Samples, clientID)
			return nil
		})
	}
	g.Go(func() error {
		ex, err := s.extractor.Extract(ctx, clientID, asOf)
		if err != nil {
			s.warn(ctx, "signals unavailable for suggestions", clientID, err)
			return nil
		}
		out.set = ex.Set
		return nil
	})
	_ = g.Wait()

	for _, p := range points {
		if p.Rank > 0 {
			out.history = appendPoint(out.history, p)
		}
	}
	return out
}

// appendPoint keeps history ordered by day. A stale fallback can serve the
// same snapshot for two lookbacks; the later point replaces the earlier.
func appendPoint(history []model.RankPoint, p model.RankPoint) []model.RankPoint {
	if n := len(history); n > 0 && !history[n-1].AsOf.Before(p.AsOf) {
		if history[n-1].AsOf.Equal(p.AsOf) {
			history[n-1] = p
		}
		return history
	}
	return append(history, p)
}

// BatchResult is the outcome of a batch recalculation.
type BatchResult struct {
	batch.Report
	Results []model.CreditCapacityResult `json:"results"`
}

// EvaluateBatch recomputes credit capacity for clientIDs, or for every active
// client when none are given. Per-client failures are reported, not returned.
func (s *Service) EvaluateBatch(ctx context.Context, clientIDs []string) (out BatchResult, err error) {
	start := time.Now()
	defer func() { s.observe(opBatch, start, err) }()

	if len(clientIDs) == 0 {
		clientIDs, err = s.store.ActiveClientIDs(ctx)
		if err != nil {
			return out, fmt.Errorf("list active clients: %w", err)
		}
		if len(clientIDs) == 0 {
			return BatchResult{Results: []model.CreditCapacityResult{}}, nil
		}
	}

	var mu sync.Mutex
	results := make([]model.CreditCapacityResult, 0, len(clientIDs))
	rep, err := s.pool.Run(ctx, clientIDs, batch.ProcessorFunc(func(ctx context.Context, id string) error {
		r, err := s.EvaluateCreditCapacity(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		return nil
	}))
	sort.Slice(results, func(i, j int) bool { return results[i].ClientID < results[j].ClientID })
	out = BatchResult{Report: rep, Results: results}
	if err != nil {
		return out, err
	}

	s.logger.Info(ctx, "batch recalculation finished",
		logger.String("runId", rep.RunID),
		logger.Int("succeeded", rep.Succeeded),
		logger.Int("failed", rep.Failed()),
	)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"policyVersion":       s.policy.Version,
		"asOf":                s.asOf().Format(time.DateOnly),
		"workerCount":         s.pool.Workers(),
		"topK":                s.topK,
		"neighborhood":        s.neighborhood,
		"trendLookbackDays":   s.trendLookbackDays,
		"cachedSnapshots":     s.population.Len(),
		"creditEvaluations":   s.credits.Load(),
		"leaderboardRequests": s.leaderboards.Load(),
		"failedEvaluations":   s.failures.Load(),
	}
	if b, ok := s.store.(interface{ BreakerState() string }); ok {
		stats["breakerState"] = b.BreakerState()
	}
	return stats
}

func (s *Service) observe(op string, start time.Time, err error) {
	metrics.RecordEvaluation(op, outcome(err))
	metrics.RecordEvaluationLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		s.failures.Add(1)
	}
}

func (s *Service) warn(ctx context.Context, msg, clientID string, err error) {
	s.logger.Warn(ctx, msg, logger.String("clientId", clientID), logger.Error(err))
}

func hasClient(samples []model.MetricSample, clientID string) bool {
	for _, smp := range samples {
		if smp.ClientID == clientID {
			return true
		}
	}
	return false
}
