package ranking

import (
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Medals for the podium.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// Medal returns the medal for rank, or "" off the podium.
func Medal(rank int) string {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	}
	return ""
}

// ApplyDisplay redacts the result for the display mode. Blackbox hides every
// absolute metric value and the gap amount; ranks and medals remain.
func ApplyDisplay(res *model.LeaderboardResult, mode types.DisplayMode) {
	res.DisplayMode = mode
	if mode == types.Transparent {
		return
	}
	for i := range res.Entries {
		res.Entries[i].MetricValue = model.None()
	}
	if res.GapToNextRank != nil {
		g := *res.GapToNextRank
		g.Gap = model.None()
		res.GapToNextRank = &g
	}
}
