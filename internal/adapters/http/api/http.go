// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/EvanTenenbaum/TERP-sub019/internal/app"
	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	EvaluateCreditCapacity(ctx context.Context, clientID string) (model.CreditCapacityResult, error)
	EvaluateLeaderboard(ctx context.Context, clientID, leaderboardType, displayMode string, limit int) (model.LeaderboardResult, error)
	EvaluateBatch(ctx context.Context, clientIDs []string) (service.BatchResult, error)
	StatsProvider
}

var _ Dependencies = (*service.Service)(nil)

type namedPinger struct {
	name string
	Pinger
}

// Server wires HTTP routes for the credit API.
type Server struct {
	deps           Dependencies
	logger         logger.Logger
	maxLimit       int
	pingers        []namedPinger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		logger:         logger.Get().Named("http"),
		maxLimit:       defaultMaxLimit,
		metricsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes and middleware to r.
func (s *Server) Register(r *mux.Router) {
	r.Use(RequestIDMiddleware, s.LoggingMiddleware, MetricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if s.metricsEnabled {
		r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)
	}

	clients := r.PathPrefix("/clients/{clientId}").Subrouter()
	clients.HandleFunc("/credit", s.handleCredit).Methods(http.MethodGet)
	clients.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)

	r.HandleFunc("/recalculate", s.handleRecalculate).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "method not allowed"})
	})
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail answers with the public mapping of err and logs the cause.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := classify(err)
	fields := []logger.Field{
		logger.String("path", r.URL.Path),
		logger.Int("status", p.status),
		logger.Error(err),
	}
	if p.status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", fields...)
	} else {
		s.logger.Debug(r.Context(), "request rejected", fields...)
	}
	writeJSON(w, p.status, errorResponse{Code: p.code, Message: p.message})
}
