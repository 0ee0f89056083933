// Package types contains the enumerations shared by the ranking engine and
// its callers.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors.
var (
	// ErrInvalidMetricType is returned for an unsupported leaderboard type.
	ErrInvalidMetricType = errors.New("invalid metric type")
	// ErrInvalidDisplayMode is returned for an unknown display mode.
	ErrInvalidDisplayMode = errors.New("invalid display mode")
)

// MetricType names a population metric.
type MetricType string

// Leaderboard metric types.
const (
	YTDSpend          MetricType = "ytd_spend"
	PaymentSpeed      MetricType = "payment_speed"
	OrderFrequency    MetricType = "order_frequency"
	CreditUtilization MetricType = "credit_utilization"
	OnTimePaymentRate MetricType = "ontime_payment_rate"

	// RevenueGrowth only backs the growth category rank.
	RevenueGrowth MetricType = "revenue_growth"
)

// LeaderboardTypes lists the metric types callers may request.
var LeaderboardTypes = []MetricType{
	YTDSpend,
	PaymentSpeed,
	OrderFrequency,
	CreditUtilization,
	OnTimePaymentRate,
}

// ParseLeaderboardType validates a caller supplied leaderboard type.
func ParseLeaderboardType(s string) (MetricType, error) {
	m := MetricType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range LeaderboardTypes {
		if t == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidMetricType)
}

// Direction is the sort order under which a metric ranks.
type Direction int

const (
	// HigherIsBetter sorts descending.
	HigherIsBetter Direction = iota
	// LowerIsBetter sorts ascending.
	LowerIsBetter
)

// Direction returns how the metric is ordered.
func (m MetricType) Direction() Direction {
	switch m {
	case PaymentSpeed, CreditUtilization:
		return LowerIsBetter
	default:
		return HigherIsBetter
	}
}

// Label is a human readable metric name.
func (m MetricType) Label() string {
	switch m {
	case YTDSpend:
		return "year-to-date spend"
	case PaymentSpeed:
		return "average days to pay"
	case OrderFrequency:
		return "orders in the last 90 days"
	case CreditUtilization:
		return "credit utilization"
	case OnTimePaymentRate:
		return "on-time payment rate"
	case RevenueGrowth:
		return "year-over-year growth"
	}
	return string(m)
}

// Category groups the leaderboard into sub-rankings.
type Category string

// Categories.
const (
	Financial   Category = "financial"
	Engagement  Category = "engagement"
	Reliability Category = "reliability"
	Growth      Category = "growth"
)

// Categories fixes iteration order.
var Categories = []Category{Financial, Engagement, Reliability, Growth}

// Metric returns the metric that ranks the category.
func (c Category) Metric() MetricType {
	switch c {
	case Financial:
		return YTDSpend
	case Engagement:
		return OrderFrequency
	case Reliability:
		return OnTimePaymentRate
	case Growth:
		return RevenueGrowth
	}
	return ""
}

// DisplayMode controls how much of the ranking a client may see.
type DisplayMode string

// Display modes.
const (
	Transparent DisplayMode = "transparent"
	Blackbox    DisplayMode = "blackbox"
)

// ParseDisplayMode accepts transparent, blackbox (or black_box); empty means
// blackbox.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blackbox", "black_box":
		return Blackbox, nil
	case "transparent":
		return Transparent, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidDisplayMode)
}
