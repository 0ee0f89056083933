package model

import "time"

// Mode identifies which capacity formula variant applied.
type Mode string

// Modes.
const (
	ModeStandard  Mode = "STANDARD"
	ModeLowData   Mode = "LOW_DATA"
	ModeNewClient Mode = "NEW_CLIENT"
)

// DataReadiness is a coarse indicator of how much history backed a result.
type DataReadiness string

// Readiness levels.
const (
	ReadinessFull         DataReadiness = "FULL"
	ReadinessPartial      DataReadiness = "PARTIAL"
	ReadinessInsufficient DataReadiness = "INSUFFICIENT"
)

// OverallTrend summarizes the direction of all signal trends.
type OverallTrend string

// Overall trends.
const (
	TrendImproving OverallTrend = "IMPROVING"
	TrendStable    OverallTrend = "STABLE"
	TrendWorsening OverallTrend = "WORSENING"
)

// CreditCapacityResult is the outcome of one credit capacity evaluation.
type CreditCapacityResult struct {
	ClientID           string          `json:"clientId"`
	AsOf               time.Time       `json:"asOf"`
	BaseCapacity       float64         `json:"baseCapacity"`
	RiskModifier       float64         `json:"riskModifier"`
	CreditHealthScore  Value           `json:"creditHealthScore"`
	CreditLimit        float64         `json:"creditLimit"`
	Clamped            bool            `json:"clamped"`
	CurrentExposure    float64         `json:"currentExposure"`
	AvailableCredit    float64         `json:"availableCredit"`
	UtilizationPercent float64         `json:"utilizationPercent"`
	Mode               Mode            `json:"mode"`
	DataReadiness      DataReadiness   `json:"dataReadiness"`
	ConfidenceScore    float64         `json:"confidenceScore"`
	Trend              OverallTrend    `json:"trend"`
	Signals            ClientSignalSet `json:"signalSet"`
	Explanation        Explanation     `json:"explanation"`
}

// Explanation is the auditable breakdown behind a credit limit.
type Explanation struct {
	Breakdown      Breakdown  `json:"breakdown"`
	LineItems      []LineItem `json:"lineItems"`
	DominantDriver SignalName `json:"dominantDriver,omitempty"`
	Summary        string     `json:"summary"`
}

// Breakdown restates the capacity arithmetic.
type Breakdown struct {
	BaseCapacity      float64 `json:"baseCapacity"`
	RiskModifier      float64 `json:"riskModifier"`
	CreditHealthScore Value   `json:"creditHealthScore"`
	CreditLimit       float64 `json:"creditLimit"`
	Formula           string  `json:"formula"`
}

// LineItem explains one signal.
type LineItem struct {
	Signal       SignalName `json:"signal"`
	Name         string     `json:"name"`
	Score        Value      `json:"score"`
	Label        string     `json:"label"`
	Trend        Value      `json:"trend"`
	TrendGlyph   string     `json:"trendGlyph"`
	Weight       float64    `json:"weight"`
	Contribution Value      `json:"contribution"`
}
