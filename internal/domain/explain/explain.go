// Package explain renders the auditable breakdown behind a credit limit.
// It formats the numbers produced by the scorer and the capacity calculator
// and never recomputes them.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/scoring"
)

// Trend glyphs.
const (
	GlyphUp     = "↑"
	GlyphDown   = "↓"
	GlyphStable = "→"
)

const labelUnknown = "insufficient data"

// Generator builds explanations.
type Generator struct {
	bands   policy.Bands
	weights policy.Weights
	printer *message.Printer
}

// New creates a Generator. Weights are only displayed for line items when
// no score was produced.
func New(bands policy.Bands, weights policy.Weights) *Generator {
	return &Generator{
		bands:   bands,
		weights: weights,
		printer: message.NewPrinter(language.English),
	}
}

// Explain builds the explanation for res. score is nil in NEW_CLIENT mode.
func (g *Generator) Explain(res model.CreditCapacityResult, score *scoring.Result, set model.ClientSignalSet) model.Explanation {
	ex := model.Explanation{
		Breakdown: model.Breakdown{
			BaseCapacity:      res.BaseCapacity,
			RiskModifier:      res.RiskModifier,
			CreditHealthScore: res.CreditHealthScore,
			CreditLimit:       res.CreditLimit,
			Formula:           g.formula(res),
		},
		LineItems: g.lineItems(score, set),
	}
	if score != nil {
		ex.DominantDriver = DominantDriver(score.Contributions)
	}
	ex.Summary = g.summary(res, ex)
	return ex
}

func (g *Generator) lineItems(score *scoring.Result, set model.ClientSignalSet) []model.LineItem {
	items := make([]model.LineItem, 0, len(model.AllSignals))
	for _, name := range model.AllSignals {
		item := model.LineItem{
			Signal:     name,
			Name:       name.Label(),
			Score:      set.Signal(name),
			Label:      labelUnknown,
			Trend:      set.Trend(name),
			TrendGlyph: Glyph(set.Trend(name)),
			Weight:     g.weights.Of(name),
		}
		if v, ok := item.Score.Get(); ok {
			item.Label = g.bands.Label(v)
		}
		if score != nil {
			if c, ok := score.Contribution(name); ok {
				item.Weight = c.EffectiveWeight
				if c.Value.Valid() {
					item.Contribution = model.Some(c.Points)
				}
			}
		}
		items = append(items, item)
	}
	return items
}

// Glyph returns the arrow for a trend, blank when the trend is unknown.
func Glyph(trend model.Value) string {
	v, ok := trend.Get()
	switch {
	case !ok:
		return ""
	case v > 0:
		return GlyphUp
	case v < 0:
		return GlyphDown
	}
	return GlyphStable
}

// DominantDriver returns the known signal with the largest weighted
// contribution. Ties go to the larger configured weight, then to the
// alphabetically first name.
func DominantDriver(cs []scoring.Contribution) model.SignalName {
	known := make([]scoring.Contribution, 0, len(cs))
	for _, c := range cs {
		if c.Value.Valid() {
			known = append(known, c)
		}
	}
	if len(known) == 0 {
		return ""
	}
	sort.SliceStable(known, func(i, j int) bool {
		a, b := known[i], known[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Signal < b.Signal
	})
	return known[0].Signal
}

func (g *Generator) money(v float64) string {
	return g.printer.Sprintf("$%.2f", v)
}

func (g *Generator) formula(res model.CreditCapacityResult) string {
	f := g.printer.Sprintf("%s × %.2f = %s", g.money(res.BaseCapacity), res.RiskModifier, g.money(res.CreditLimit))
	if res.Clamped {
		f += " (clamped to the configured limit band)"
	}
	return f
}

func (g *Generator) summary(res model.CreditCapacityResult, ex model.Explanation) string {
	var b strings.Builder
	switch res.Mode {
	case model.ModeNewClient:
		fmt.Fprintf(&b, "Not enough transaction history to score this client yet, so a conservative starting limit of %s applies (%s).",
			g.money(res.CreditLimit), ex.Breakdown.Formula)
		return b.String()
	case model.ModeLowData:
		fmt.Fprintf(&b, "Credit limit of %s uses the default base capacity of %s because revenue history is short, adjusted by %.2f× for a credit health score of %s/100.",
			g.money(res.CreditLimit), g.money(res.BaseCapacity), res.RiskModifier, res.CreditHealthScore)
	default:
		fmt.Fprintf(&b, "Credit limit of %s is the revenue based capacity of %s adjusted by %.2f× for a credit health score of %s/100.",
			g.money(res.CreditLimit), g.money(res.BaseCapacity), res.RiskModifier, res.CreditHealthScore)
	}
	if res.Clamped {
		b.WriteString(" The result was clamped to the configured limit band.")
	}
	for _, item := range ex.LineItems {
		if item.Signal != ex.DominantDriver || ex.DominantDriver == "" {
			continue
		}
		fmt.Fprintf(&b, " The main driver is %s (%s, %s/100).", item.Name, item.Label, item.Score)
	}
	return b.String()
}
