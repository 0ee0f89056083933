// Package probe exercises a running credit API and checks ranking
// invariants across the leaderboards it returns.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	ClientIDs  []string      // Clients to probe; empty selects every active client
	Types      []string      // Leaderboard types; empty selects all
	Limit      int           // Top entries requested per leaderboard
	Workers    int           // Number of concurrent requests
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional JSON report destination
	Verbose    bool          // Log every violation as it is found
}

// Rules checked by the probe.
const (
	RulePercentile   = "percentile_formula"
	RuleRankBounds   = "rank_bounds"
	RuleOrdering     = "entry_ordering"
	RuleGap          = "gap_round_trip"
	RuleTotal        = "population_total"
	RuleCompetition  = "competition_ranking"
	RuleCreditBounds = "credit_bounds"
)

// Violation is one failed invariant.
type Violation struct {
	ClientID string `json:"clientId,omitempty"`
	Type     string `json:"type,omitempty"`
	Rule     string `json:"rule"`
	Detail   string `json:"detail"`
}

// Report summarizes a probe run.
type Report struct {
	Clients      int           `json:"clients"`
	Leaderboards int           `json:"leaderboards"`
	Credits      int           `json:"credits"`
	Skipped      int           `json:"skipped"`
	Violations   []Violation   `json:"violations"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether every check passed.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// entry mirrors a leaderboard entry on the wire.
type entry struct {
	Rank            int      `json:"rank"`
	Position        int      `json:"position"`
	ClientID        string   `json:"clientId"`
	MetricValue     *float64 `json:"metricValue"`
	IsCurrentClient bool     `json:"isCurrentClient"`
}

type gap struct {
	Gap      *float64 `json:"gap"`
	NextRank int      `json:"nextRank"`
}

// leaderboard mirrors the leaderboard response fields the probe checks.
type leaderboard struct {
	ClientID      string  `json:"clientId"`
	Type          string  `json:"leaderboardType"`
	ClientRank    int     `json:"clientRank"`
	TotalClients  int     `json:"totalClients"`
	Percentile    float64 `json:"percentile"`
	GapToNextRank *gap    `json:"gapToNextRank"`
	Entries       []entry `json:"entries"`
}

type credit struct {
	ClientID        string  `json:"clientId"`
	CreditLimit     float64 `json:"creditLimit"`
	CurrentExposure float64 `json:"currentExposure"`
	AvailableCredit float64 `json:"availableCredit"`
}

type batchResult struct {
	Results []credit `json:"results"`
}
