package service

import (
	"errors"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
)

// Error kinds surfaced by the service. They alias the engine taxonomy so
// callers only need this package.
var (
	ErrInsufficientData   = model.ErrInsufficientData
	ErrPopulationTooSmall = model.ErrPopulationTooSmall
	ErrUpstreamTimeout    = model.ErrUpstreamTimeout
	ErrInvalidMetricType  = model.ErrInvalidMetricType
	ErrInvalidDisplayMode = model.ErrInvalidDisplayMode
	ErrClientNotFound     = model.ErrClientNotFound
	ErrClientNotRanked    = model.ErrClientNotRanked
)

// outcome classifies err for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPopulationTooSmall):
		return "population_too_small"
	case errors.Is(err, ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, ErrInvalidMetricType), errors.Is(err, ErrInvalidDisplayMode):
		return "invalid_request"
	case errors.Is(err, ErrClientNotFound):
		return "client_not_found"
	case errors.Is(err, ErrClientNotRanked):
		return "client_not_ranked"
	}
	return "error"
}
