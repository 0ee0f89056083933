package repository

import (
	"errors"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound        = model.ErrClientNotFound
	ErrUpstreamTimeout = model.ErrUpstreamTimeout
	ErrCircuitOpen     = errors.New("store circuit open")
	ErrNoSnapshot      = errors.New("no population snapshot")
)
