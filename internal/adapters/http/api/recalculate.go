package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const maxRecalculateBody = 1 << 20

type recalculateRequest struct {
	ClientIDs []string `json:"clientIds"`
}

// handleRecalculate handles POST /recalculate. An empty body or id list
// recalculates every active client.
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalculate"
	var req recalculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecalculateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, badRequest(op, "decode body: %v", err))
		return
	}
	for i, id := range req.ClientIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			s.fail(w, r, badRequest(op, "blank client id at %d", i))
			return
		}
		req.ClientIDs[i] = id
	}

	res, err := s.deps.EvaluateBatch(r.Context(), req.ClientIDs)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
