package policy

import (
	"fmt"
	"math"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Bounds enforced on the risk modifier curve.
const (
	ModifierFloor   = 0.25
	ModifierCeiling = 1.5
	weightTotal     = 100
	weightTolerance = 1e-9
)

// Weights are the composite score weights per signal; they sum to 100.
type Weights struct {
	RevenueMomentum        float64 `koanf:"revenue_momentum"`
	CashCollectionStrength float64 `koanf:"cash_collection_strength"`
	ProfitabilityQuality   float64 `koanf:"profitability_quality"`
	DebtAgingRisk          float64 `koanf:"debt_aging_risk"`
	RepaymentVelocity      float64 `koanf:"repayment_velocity"`
	TenureDepth            float64 `koanf:"tenure_depth"`
}

// Of returns the weight of a signal.
func (w Weights) Of(name model.SignalName) float64 {
	switch name {
	case model.RevenueMomentum:
		return w.RevenueMomentum
	case model.CashCollectionStrength:
		return w.CashCollectionStrength
	case model.ProfitabilityQuality:
		return w.ProfitabilityQuality
	case model.DebtAgingRisk:
		return w.DebtAgingRisk
	case model.RepaymentVelocity:
		return w.RepaymentVelocity
	case model.TenureDepth:
		return w.TenureDepth
	}
	return 0
}

// Sum totals all weights.
func (w Weights) Sum() float64 {
	s := 0.0
	for _, name := range model.AllSignals {
		s += w.Of(name)
	}
	return s
}

// Benchmarks are the raw-to-score normalization curves, one per signal.
type Benchmarks struct {
	// RevenueGrowth maps growth percent (window vs comparison) to a score.
	RevenueGrowth Curve `koanf:"revenue_growth"`
	// DaysToPay maps average days to pay to a score.
	DaysToPay Curve `koanf:"days_to_pay"`
	// Margin maps stability adjusted margin percent to a score.
	Margin Curve `koanf:"margin"`
	// DebtAge maps amount weighted receivable age in days to a score.
	DebtAge Curve `koanf:"debt_age"`
	// RepaymentRatio maps repaid over newly invoiced to a score.
	RepaymentRatio Curve `koanf:"repayment_ratio"`
	// TenureMonths maps relationship length to a score; the last knot is
	// the tenure ceiling.
	TenureMonths Curve `koanf:"tenure_months"`
}

// Capacity configures the capacity calculator.
type Capacity struct {
	RevenueMultiple          float64 `koanf:"revenue_multiple"`
	LookbackMonths           int     `koanf:"lookback_months"`
	MinMonths                int     `koanf:"min_months"`
	DefaultBaseCapacity      float64 `koanf:"default_base_capacity"`
	NewClientModifier        float64 `koanf:"new_client_modifier"`
	MinLimit                 float64 `koanf:"min_limit"`
	MaxLimit                 float64 `koanf:"max_limit"`
	MinInvoicesForActivation int     `koanf:"min_invoices_for_activation"`
	// RiskModifierCurve is the named table mapping credit health score to
	// the risk modifier.
	RiskModifierCurve Curve `koanf:"risk_modifier_curve"`
}

// Bands are the qualitative label thresholds.
type Bands struct {
	Excellent float64 `koanf:"excellent"`
	Good      float64 `koanf:"good"`
	Moderate  float64 `koanf:"moderate"`
}

// Label returns the band label of a score.
func (b Bands) Label(score float64) string {
	switch {
	case score >= b.Excellent:
		return "excellent"
	case score >= b.Good:
		return "good"
	case score >= b.Moderate:
		return "moderate"
	default:
		return "needs attention"
	}
}

// Suggestions configures the suggestion generator.
type Suggestions struct {
	Target          float64            `koanf:"target"`
	Max             int                `koanf:"max"`
	CategoryWeights map[string]float64 `koanf:"category_weights"`
}

// Ranking configures population eligibility.
type Ranking struct {
	MinimumClients int            `koanf:"minimum_clients"`
	MinActivity    map[string]int `koanf:"min_activity"`
}

// MinActivityFor returns the eligibility threshold of a metric.
func (r Ranking) MinActivityFor(m types.MetricType) int {
	return r.MinActivity[string(m)]
}

// Policy is the complete, versioned set of engine tables.
type Policy struct {
	Version          string      `koanf:"version"`
	WindowDays       int         `koanf:"window_days"`
	MinTransactions  int         `koanf:"min_transactions"`
	MinSignals       int         `koanf:"min_signals"`
	StabilityPenalty float64     `koanf:"stability_penalty"`
	TrendThreshold   float64     `koanf:"trend_threshold"`
	Weights          Weights     `koanf:"weights"`
	Benchmarks       Benchmarks  `koanf:"benchmarks"`
	Capacity         Capacity    `koanf:"capacity"`
	Bands            Bands       `koanf:"bands"`
	Suggestions      Suggestions `koanf:"suggestions"`
	Ranking          Ranking     `koanf:"ranking"`
}

// Default returns the built-in policy.
func Default() Policy {
	return Policy{
		Version:          "2025.1",
		WindowDays:       90,
		MinTransactions:  3,
		MinSignals:       3,
		StabilityPenalty: 1.0,
		TrendThreshold:   3,
		Weights: Weights{
			RevenueMomentum:        20,
			CashCollectionStrength: 25,
			ProfitabilityQuality:   20,
			DebtAgingRisk:          15,
			RepaymentVelocity:      10,
			TenureDepth:            10,
		},
		Benchmarks: Benchmarks{
			RevenueGrowth:  Curve{{X: -50, Y: 0}, {X: 0, Y: 50}, {X: 50, Y: 100}},
			DaysToPay:      Curve{{X: 0, Y: 100}, {X: 15, Y: 85}, {X: 30, Y: 60}, {X: 60, Y: 0}},
			Margin:         Curve{{X: 0, Y: 0}, {X: 20, Y: 50}, {X: 40, Y: 90}, {X: 50, Y: 100}},
			DebtAge:        Curve{{X: 0, Y: 100}, {X: 30, Y: 70}, {X: 60, Y: 35}, {X: 90, Y: 0}},
			RepaymentRatio: Curve{{X: 0, Y: 0}, {X: 0.5, Y: 40}, {X: 1, Y: 80}, {X: 1.5, Y: 100}},
			TenureMonths:   Curve{{X: 0, Y: 0}, {X: 3, Y: 30}, {X: 6, Y: 50}, {X: 12, Y: 75}, {X: 24, Y: 100}},
		},
		Capacity: Capacity{
			RevenueMultiple:          2,
			LookbackMonths:           6,
			MinMonths:                3,
			DefaultBaseCapacity:      10_000,
			NewClientModifier:        0.5,
			MinLimit:                 1_000,
			MaxLimit:                 500_000,
			MinInvoicesForActivation: 5,
			RiskModifierCurve: Curve{
				{X: 0, Y: 0.25},
				{X: 40, Y: 0.6},
				{X: 60, Y: 0.9},
				{X: 80, Y: 1.2},
				{X: 100, Y: 1.5},
			},
		},
		Bands: Bands{Excellent: 80, Good: 60, Moderate: 40},
		Suggestions: Suggestions{
			Target: 100,
			Max:    3,
			CategoryWeights: map[string]float64{
				string(types.Financial):   20,
				string(types.Engagement):  15,
				string(types.Reliability): 25,
				string(types.Growth):      20,
			},
		},
		Ranking: Ranking{
			MinimumClients: 5,
			MinActivity: map[string]int{
				string(types.YTDSpend):          1,
				string(types.PaymentSpeed):      3,
				string(types.OrderFrequency):    1,
				string(types.CreditUtilization): 1,
				string(types.OnTimePaymentRate): 3,
				string(types.RevenueGrowth):     1,
			},
		},
	}
}

// Validate checks weights, curves and thresholds.
func (p Policy) Validate() error {
	if p.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive: %w", ErrInvalidPolicy)
	}
	if p.MinSignals < 1 || p.MinSignals > len(model.AllSignals) {
		return fmt.Errorf("min_signals must be within 1..%d: %w", len(model.AllSignals), ErrInvalidPolicy)
	}
	for _, name := range model.AllSignals {
		if p.Weights.Of(name) < 0 {
			return fmt.Errorf("weight %s is negative: %w", name, ErrInvalidPolicy)
		}
	}
	if math.Abs(p.Weights.Sum()-weightTotal) > weightTolerance {
		return fmt.Errorf("weights sum to %.4f, want %d: %w", p.Weights.Sum(), weightTotal, ErrInvalidPolicy)
	}

	b := p.Benchmarks
	curves := []struct {
		name string
		c    Curve
	}{
		{"benchmarks.revenue_growth", b.RevenueGrowth},
		{"benchmarks.days_to_pay", b.DaysToPay},
		{"benchmarks.margin", b.Margin},
		{"benchmarks.debt_age", b.DebtAge},
		{"benchmarks.repayment_ratio", b.RepaymentRatio},
		{"benchmarks.tenure_months", b.TenureMonths},
	}
	for _, c := range curves {
		if err := c.c.validateScoreCurve(c.name); err != nil {
			return err
		}
	}

	c := p.Capacity
	if err := c.RiskModifierCurve.Validate("capacity.risk_modifier_curve"); err != nil {
		return err
	}
	if !c.RiskModifierCurve.Increasing() {
		return fmt.Errorf("capacity.risk_modifier_curve must be non-decreasing: %w", ErrInvalidPolicy)
	}
	if c.RiskModifierCurve.Min() < ModifierFloor || c.RiskModifierCurve.Max() > ModifierCeiling {
		return fmt.Errorf("capacity.risk_modifier_curve must stay within [%.2f, %.2f]: %w", ModifierFloor, ModifierCeiling, ErrInvalidPolicy)
	}
	if c.NewClientModifier < ModifierFloor || c.NewClientModifier > ModifierCeiling {
		return fmt.Errorf("capacity.new_client_modifier out of range: %w", ErrInvalidPolicy)
	}
	if c.MinLimit < 0 || c.MaxLimit < c.MinLimit {
		return fmt.Errorf("capacity limits must satisfy 0 <= min_limit <= max_limit: %w", ErrInvalidPolicy)
	}
	if c.RevenueMultiple <= 0 || c.LookbackMonths < c.MinMonths || c.MinMonths < 1 {
		return fmt.Errorf("capacity revenue settings are inconsistent: %w", ErrInvalidPolicy)
	}

	if !(p.Bands.Excellent > p.Bands.Good && p.Bands.Good > p.Bands.Moderate) {
		return fmt.Errorf("bands must be strictly ordered: %w", ErrInvalidPolicy)
	}
	if p.Ranking.MinimumClients < 1 {
		return fmt.Errorf("ranking.minimum_clients must be positive: %w", ErrInvalidPolicy)
	}
	return nil
}
