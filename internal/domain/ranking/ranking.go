// Package ranking orders the client population by a metric and derives rank,
// percentile, movement and gap analytics from the ordering.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Entry is one ranked client.
type Entry struct {
	ClientID string
	Value    float64
	Rank     int
	// Position is the 1-based index in the ordering.
	Position int

	fp valueFP
}

// Ranking is an immutable ordering of the eligible population for a metric.
type Ranking struct {
	Metric  types.MetricType
	Entries []Entry
	index   map[string]int
}

// Ranker builds rankings under the configured eligibility rules.
type Ranker struct {
	cfg policy.Ranking
}

// New returns a Ranker using the given eligibility rules.
func New(cfg policy.Ranking) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank orders the eligible samples. A sample is eligible when it is active,
// has a known value and meets the metric's minimum activity. It returns
// ErrPopulationTooSmall when fewer clients than the configured minimum remain.
func (r *Ranker) Rank(metric types.MetricType, samples []model.MetricSample) (Ranking, error) {
	rk := Build(metric, samples, r.cfg.MinActivityFor(metric))
	if n := len(rk.Entries); n < r.cfg.MinimumClients {
		return rk, fmt.Errorf("%s has %d eligible clients, need %d: %w", metric, n, r.cfg.MinimumClients, ErrPopulationTooSmall)
	}
	return rk, nil
}

// Build ranks the eligible samples without a population floor.
func Build(metric types.MetricType, samples []model.MetricSample, minActivity int) Ranking {
	entries := make([]Entry, 0, len(samples))
	for _, s := range samples {
		v, ok := s.Value.Get()
		if !ok || !s.Active || s.SampleSize < minActivity || math.IsNaN(v) {
			continue
		}
		entries = append(entries, Entry{ClientID: s.ClientID, Value: v, fp: toFixedPoint(v)})
	}

	sortEntries(entries, metric.Direction())
	assignCompetitionRanks(entries)

	idx := make(map[string]int, len(entries))
	for i := range entries {
		entries[i].Position = i + 1
		idx[entries[i].ClientID] = i
	}
	return Ranking{Metric: metric, Entries: entries, index: idx}
}

func sortEntries(entries []Entry, dir types.Direction) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].fp != entries[j].fp {
			if dir == types.LowerIsBetter {
				return entries[i].fp < entries[j].fp
			}
			return entries[i].fp > entries[j].fp
		}
		return entries[i].ClientID < entries[j].ClientID
	})
}

// assignCompetitionRanks gives tied values the same rank and skips the
// positions they occupy, so 500,500,300 ranks as 1,1,3.
func assignCompetitionRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].fp == entries[i-1].fp {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// Len is the number of ranked clients.
func (r Ranking) Len() int { return len(r.Entries) }

// Lookup returns the client's entry.
func (r Ranking) Lookup(clientID string) (Entry, bool) {
	i, ok := r.index[clientID]
	if !ok {
		return Entry{}, false
	}
	return r.Entries[i], true
}

// Position returns the client's entry or ErrClientNotRanked.
func (r Ranking) Position(clientID string) (Entry, error) {
	e, ok := r.Lookup(clientID)
	if !ok {
		return Entry{}, fmt.Errorf("client %s on %s: %w", clientID, r.Metric, ErrClientNotRanked)
	}
	return e, nil
}

// Percentile is the share of the population ranked strictly below rank.
func Percentile(rank, total int) float64 {
	if total <= 0 || rank < 1 || rank > total {
		return 0
	}
	return float64(total-rank) / float64(total) * 100
}

// Percentile returns the percentile of rank within this ranking.
func (r Ranking) Percentile(rank int) float64 {
	return Percentile(rank, r.Len())
}

// Window materializes the first topK entries plus radius entries either side
// of the client. Both runs are contiguous and the result is ordered by
// position; a client outside the ranking only gets the top run.
func (r Ranking) Window(clientID string, topK, radius int) []model.LeaderboardEntry {
	n := r.Len()
	if n == 0 {
		return []model.LeaderboardEntry{}
	}
	topK = min(max(topK, 0), n)
	take := make([]bool, n)
	for i := 0; i < topK; i++ {
		take[i] = true
	}
	if i, ok := r.index[clientID]; ok {
		for j := max(0, i-radius); j <= min(n-1, i+radius); j++ {
			take[j] = true
		}
	}

	out := make([]model.LeaderboardEntry, 0, topK+2*radius+1)
	for i, ok := range take {
		if !ok {
			continue
		}
		e := r.Entries[i]
		out = append(out, model.LeaderboardEntry{
			Rank:            e.Rank,
			Position:        e.Position,
			ClientID:        e.ClientID,
			MetricValue:     model.Some(e.Value),
			IsCurrentClient: e.ClientID == clientID,
			Medal:           Medal(e.Rank),
		})
	}
	return out
}

// Point is the client's standing in r on day asOf. ok is false when the
// client is not ranked.
func Point(r Ranking, clientID string, asOf time.Time) (p model.RankPoint, ok bool) {
	e, ok := r.Lookup(clientID)
	if !ok {
		return p, false
	}
	return model.RankPoint{AsOf: asOf, Rank: e.Rank, TotalClients: r.Len(), Percentile: r.Percentile(e.Rank)}, true
}

// Movement compares the client's rank with a prior ranking. trendAmount is
// priorRank minus rank, so climbing is positive. A client missing from the
// prior ranking is stable with no prior rank.
func Movement(current, prior Ranking, clientID string) (trend model.RankTrend, amount, priorRank int) {
	cur, ok := current.Lookup(clientID)
	if !ok {
		return model.RankStable, 0, 0
	}
	old, ok := prior.Lookup(clientID)
	if !ok {
		return model.RankStable, 0, 0
	}
	amount = old.Rank - cur.Rank
	switch {
	case amount > 0:
		trend = model.RankUp
	case amount < 0:
		trend = model.RankDown
	default:
		trend = model.RankStable
	}
	return trend, amount, old.Rank
}

// Gap measures the distance to the next better rank. It is nil at rank 1.
// Clients sharing a rank share the gap to the nearest strictly better value.
func Gap(r Ranking, clientID string) *model.Gap {
	i, ok := r.index[clientID]
	if !ok {
		return nil
	}
	e := r.Entries[i]
	if e.Rank == 1 {
		return nil
	}
	j := i - 1
	for j > 0 && r.Entries[j].fp == e.fp {
		j--
	}
	return &model.Gap{
		Metric:   r.Metric,
		Gap:      model.Some(math.Abs(r.Entries[j].Value - e.Value)),
		NextRank: e.Rank - 1,
	}
}

// Category ranks the client over the category's metric. The category is
// unavailable when the population is too small or the client is ineligible.
func (r *Ranker) Category(c types.Category, samples []model.MetricSample, clientID string) model.CategoryRank {
	out := model.CategoryRank{Category: c, Metric: c.Metric()}
	rk, err := r.Rank(c.Metric(), samples)
	if err != nil {
		return out
	}
	e, ok := rk.Lookup(clientID)
	if !ok {
		return out
	}
	out.Available = true
	out.Rank = e.Rank
	out.TotalClients = rk.Len()
	out.Percentile = model.Some(rk.Percentile(e.Rank))
	return out
}
