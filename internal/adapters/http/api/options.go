package api

import (
	"context"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxLimit caps the leaderboard limit query parameter.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithPinger adds a named readiness check to /healthz.
func WithPinger(name string, p Pinger) Option {
	return func(s *Server) {
		if p != nil {
			s.pingers = append(s.pingers, namedPinger{name: name, Pinger: p})
		}
	}
}

// WithMetrics toggles the /metrics route.
func WithMetrics(enabled bool) Option {
	return func(s *Server) { s.metricsEnabled = enabled }
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
