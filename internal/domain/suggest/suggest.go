// Package suggest turns the weakest signals and category ranks into
// improvement statements ordered by expected impact.
package suggest

import (
	"fmt"
	"sort"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

const (
	// weakest is how many signals or categories are considered.
	weakest = 2
	// topQuartile is the percentile at and above which a category is left alone.
	topQuartile = 75
)

var signalAdvice = map[model.SignalName]string{
	model.RevenueMomentum:        "Grow order volume to lift revenue momentum",
	model.CashCollectionStrength: "Reduce average days-to-pay to strengthen cash collection",
	model.ProfitabilityQuality:   "Favor higher-margin products to improve profitability quality",
	model.DebtAgingRisk:          "Clear aged balances to lower debt aging",
	model.RepaymentVelocity:      "Pay invoices in full as they come due to raise repayment velocity",
	model.TenureDepth:            "Keep ordering steadily to build relationship tenure",
}

var categoryAdvice = map[types.Category]string{
	types.Financial:   "Increase year-to-date spend to climb the financial ranking",
	types.Engagement:  "Order more often to climb the engagement ranking",
	types.Reliability: "Pay on or before the due date to climb the reliability ranking",
	types.Growth:      "Grow spend over last year to climb the growth ranking",
}

type candidate struct {
	key    string
	score  float64
	impact float64
	text   string
}

// Generator builds suggestions from the configured weights and bands.
type Generator struct {
	weights policy.Weights
	bands   policy.Bands
	cfg     policy.Suggestions
}

// New returns a Generator.
func New(weights policy.Weights, bands policy.Bands, cfg policy.Suggestions) *Generator {
	return &Generator{weights: weights, bands: bands, cfg: cfg}
}

// Suggest selects the two lowest known signals below the excellent band. When
// fewer than two qualify, categories ranked below the top quartile fill in.
// The result is ordered by weight × (target − score), highest first.
func (g *Generator) Suggest(set model.ClientSignalSet, res model.LeaderboardResult) []string {
	var signals []candidate
	for _, name := range model.AllSignals {
		v, ok := set.Signal(name).Get()
		if !ok || v >= g.bands.Excellent {
			continue
		}
		signals = append(signals, candidate{
			key:    string(name),
			score:  v,
			impact: g.weights.Of(name) * (g.cfg.Target - v),
			text:   fmt.Sprintf("%s (currently %.0f/100).", signalAdvice[name], v),
		})
	}
	picked := lowest(signals, weakest)

	if len(picked) < weakest {
		var cats []candidate
		for _, cr := range res.CategoryRanks {
			pct, ok := cr.Percentile.Get()
			if !cr.Available || !ok || pct >= topQuartile {
				continue
			}
			cats = append(cats, candidate{
				key:    string(cr.Category),
				score:  pct,
				impact: g.cfg.CategoryWeights[string(cr.Category)] * (100 - pct),
				text:   fmt.Sprintf("%s (rank %d of %d).", categoryAdvice[cr.Category], cr.Rank, cr.TotalClients),
			})
		}
		picked = append(picked, lowest(cats, weakest-len(picked))...)
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].impact != picked[j].impact {
			return picked[i].impact > picked[j].impact
		}
		return picked[i].key < picked[j].key
	})
	if g.cfg.Max > 0 && len(picked) > g.cfg.Max {
		picked = picked[:g.cfg.Max]
	}

	out := make([]string, 0, len(picked))
	for _, c := range picked {
		out = append(out, c.text)
	}
	return out
}

func lowest(cs []candidate, n int) []candidate {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score < cs[j].score
		}
		return cs[i].key < cs[j].key
	})
	if len(cs) > n {
		cs = cs[:n]
	}
	return cs
}
