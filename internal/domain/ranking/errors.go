package ranking

import "github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"

// Sentinel errors surfaced by the ranker.
var (
	ErrPopulationTooSmall = model.ErrPopulationTooSmall
	ErrClientNotRanked    = model.ErrClientNotRanked
)
