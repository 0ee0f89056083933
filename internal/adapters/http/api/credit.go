package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// handleCredit handles GET /clients/{clientId}/credit.
func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_credit"
	clientID := strings.TrimSpace(mux.Vars(r)["clientId"])
	if clientID == "" {
		s.fail(w, r, badRequest(op, "missing client id"))
		return
	}
	res, err := s.deps.EvaluateCreditCapacity(r.Context(), clientID)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
