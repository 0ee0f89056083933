package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// handleLeaderboard handles
// GET /clients/{clientId}/leaderboard?type=&mode=&limit=.
// An absent mode selects blackbox.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	clientID := strings.TrimSpace(mux.Vars(r)["clientId"])
	if clientID == "" {
		s.fail(w, r, badRequest(op, "missing client id"))
		return
	}

	q := r.URL.Query()
	limit, err := s.parseLimit(op, q.Get("limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.deps.EvaluateLeaderboard(r.Context(), clientID, q.Get("type"), q.Get("mode"), limit)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseLimit returns 0 for an absent limit.
func (s *Server) parseLimit(op, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest(op, "limit %q", raw)
	}
	if n > s.maxLimit {
		return 0, NewKind(op, ErrLimitExceeded)
	}
	return n, nil
}
