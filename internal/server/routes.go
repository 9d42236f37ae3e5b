package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quarkfield/lightcone/internal/engine"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req engine.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Observable == "" {
		http.Error(w, `{"error":"observable required"}`, http.StatusBadRequest)
		return
	}

	resp, err := s.core.Query(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetEntry is the raw point lookup: always serves the unaltered
// payload regardless of decay state.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	key, err := engine.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, `{"error":"invalid key"}`, http.StatusBadRequest)
		return
	}

	p, err := s.core.GetRaw(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":        key.Float(),
		"id":         p.ID,
		"kind":       p.Kind,
		"observable": p.Observable,
		"data":       p.Data,
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start int `json:"start"`
		Goal  int `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	route, err := s.core.Route(req.Start, req.Goal)
	if err != nil {
		writeError(w, err)
		return
	}
	// Trapped and NoPath are defined terminal results, served as 200s.
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string  `json:"kind"`
		Observable string  `json:"observable"`
		Data       []byte  `json:"data"`
		MinKey     float64 `json:"min_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if len(req.Data) == 0 {
		http.Error(w, `{"error":"data required"}`, http.StatusBadRequest)
		return
	}

	prim := engine.Primitive{
		Kind:       engine.PayloadKind(req.Kind),
		Observable: req.Observable,
		Data:       req.Data,
	}
	if !engine.ValidKind(prim.Kind) {
		writeError(w, engine.ErrUnknownKind)
		return
	}

	// The primitive fact lands first; the core entry references it.
	if err := s.db.PutPrimitive(r.Context(), &prim); err != nil {
		writeError(w, err)
		return
	}

	key, err := s.core.Append(r.Context(), prim, engine.KeyFromFloat(req.MinKey))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"assigned_key": key.Float(),
		"payload_ref":  prim.ID,
	})
}
