package batch

import (
	"time"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithJobTimeout bounds every job.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.jobTimeout = d
		}
	}
}

// WithRunID overrides the generated run id.
func WithRunID(gen func() string) Option {
	return func(p *Pool) {
		if gen != nil {
			p.runID = gen
		}
	}
}
