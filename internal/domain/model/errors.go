package model

import (
	"errors"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// Sentinel kinds for engine errors. Callers classify with errors.Is.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrPopulationTooSmall = errors.New("population too small")
	ErrUpstreamTimeout    = errors.New("upstream read timeout")
	ErrInvalidMetricType  = types.ErrInvalidMetricType
	ErrInvalidDisplayMode = types.ErrInvalidDisplayMode
	ErrClientNotFound     = errors.New("client not found")
	ErrClientNotRanked    = errors.New("client not ranked")
)
