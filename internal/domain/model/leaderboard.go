package model

import (
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// RankTrend is the direction of rank movement.
type RankTrend string

// Rank trends.
const (
	RankUp     RankTrend = "up"
	RankDown   RankTrend = "down"
	RankStable RankTrend = "stable"
)

// LeaderboardEntry is one ranked client.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	Position        int    `json:"position"`
	ClientID        string `json:"clientId"`
	MetricValue     Value  `json:"metricValue"`
	IsCurrentClient bool   `json:"isCurrentClient"`
	Medal           string `json:"medal,omitempty"`
}

// CategoryRank is a sub-rank over a category specific metric. Available is
// false when the category could not be ranked for this client; its
// percentile is then null, while last place is a known 0.
type CategoryRank struct {
	Category     types.Category   `json:"category"`
	Metric       types.MetricType `json:"metric"`
	Available    bool             `json:"available"`
	Rank         int              `json:"rank,omitempty"`
	TotalClients int              `json:"totalClients,omitempty"`
	Percentile   Value            `json:"percentile"`
}

// RankPoint is the client's standing on one evaluation day.
type RankPoint struct {
	AsOf         time.Time `json:"asOf"`
	Rank         int       `json:"rank"`
	TotalClients int       `json:"totalClients"`
	Percentile   float64   `json:"percentile"`
}

// Gap is the distance to the next better rank.
type Gap struct {
	Metric   types.MetricType `json:"metric"`
	Gap      Value            `json:"gap"`
	NextRank int              `json:"nextRank"`
}

// LeaderboardResult is the outcome of one leaderboard evaluation.
type LeaderboardResult struct {
	ClientID        string             `json:"clientId"`
	LeaderboardType types.MetricType   `json:"leaderboardType"`
	DisplayMode     types.DisplayMode  `json:"displayMode"`
	ClientRank      int                `json:"clientRank"`
	TotalClients    int                `json:"totalClients"`
	Percentile      float64            `json:"percentile"`
	Trend           RankTrend          `json:"trend"`
	TrendAmount     int                `json:"trendAmount"`
	PriorRank       int                `json:"priorRank,omitempty"`
	History         []RankPoint        `json:"history"`
	CategoryRanks   []CategoryRank     `json:"categoryRanks"`
	GapToNextRank   *Gap               `json:"gapToNextRank"`
	Suggestions     []string           `json:"suggestions"`
	Entries         []LeaderboardEntry `json:"entries"`
	Stale           bool               `json:"stale"`
	SnapshotAt      time.Time          `json:"snapshotAt"`
}
