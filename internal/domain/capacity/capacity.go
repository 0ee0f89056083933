// Package capacity derives a credit limit from revenue history and the
// Credit Health Score.
package capacity

import (
	"math"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/policy"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/scoring"
)

const percent = 100

// Calculator maps facts and a composite score to a CreditCapacityResult.
// It is a pure function of its inputs.
type Calculator struct {
	cfg policy.Capacity
}

// New creates a Calculator.
func New(cfg policy.Capacity) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate computes the capacity result. A nil score selects the
// NEW_CLIENT variant. Explanation, signals and trend are filled in by the
// caller.
func (c *Calculator) Calculate(facts model.ClientFacts, score *scoring.Result) model.CreditCapacityResult {
	res := model.CreditCapacityResult{
		ClientID:        facts.ClientID,
		AsOf:            facts.AsOf,
		CurrentExposure: round2(facts.OpenReceivables),
		ConfidenceScore: c.confidence(facts),
	}

	base, haveRevenue := c.BaseCapacity(facts)
	res.BaseCapacity = base

	switch {
	case score == nil:
		res.Mode = model.ModeNewClient
		res.CreditHealthScore = model.None()
		res.RiskModifier = c.cfg.NewClientModifier
		res.DataReadiness = model.ReadinessInsufficient
	case !haveRevenue:
		res.Mode = model.ModeLowData
		res.CreditHealthScore = model.Some(round2(score.Score))
		res.RiskModifier = c.RiskModifier(score.Score)
		res.DataReadiness = model.ReadinessPartial
	default:
		res.Mode = model.ModeStandard
		res.CreditHealthScore = model.Some(round2(score.Score))
		res.RiskModifier = c.RiskModifier(score.Score)
		res.DataReadiness = model.ReadinessFull
		if score.Present < len(model.AllSignals) {
			res.DataReadiness = model.ReadinessPartial
		}
	}

	res.CreditLimit, res.Clamped = c.Limit(res.BaseCapacity, res.RiskModifier)
	res.AvailableCredit = round2(math.Max(0, res.CreditLimit-res.CurrentExposure))
	if res.CreditLimit > 0 {
		res.UtilizationPercent = round2(res.CurrentExposure / res.CreditLimit * percent)
	}
	return res
}

// BaseCapacity returns the revenue multiple of the trailing monthly average
// and whether enough months backed it. Without enough history the
// configured default applies.
func (c *Calculator) BaseCapacity(facts model.ClientFacts) (float64, bool) {
	avg, ok := facts.AvgMonthlyRevenue.Get()
	if !ok || facts.MonthsOfHistory < c.cfg.MinMonths {
		return c.cfg.DefaultBaseCapacity, false
	}
	return round2(c.cfg.RevenueMultiple * avg), true
}

// RiskModifier reads the risk modifier curve at score.
func (c *Calculator) RiskModifier(score float64) float64 {
	return round4(c.cfg.RiskModifierCurve.At(score))
}

// Limit multiplies and clamps; the bool reports whether clamping applied.
func (c *Calculator) Limit(base, modifier float64) (float64, bool) {
	raw := round2(base * modifier)
	limit := math.Max(c.cfg.MinLimit, math.Min(c.cfg.MaxLimit, raw))
	return limit, limit != raw
}

func (c *Calculator) confidence(facts model.ClientFacts) float64 {
	if c.cfg.MinInvoicesForActivation <= 0 {
		return percent
	}
	v := float64(facts.InvoiceCount) / float64(c.cfg.MinInvoicesForActivation) * percent
	return round2(math.Min(percent, v))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
