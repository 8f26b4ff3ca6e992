package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/conviction"
)

// healthResponse reports component availability.
type healthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Strategies string    `json:"strategy_store"` // "available" | "unconfigured"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		Strategies: "available",
	}
	if s.strategies == nil {
		resp.Strategies = "unconfigured"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScore evaluates a conviction request. The request body is the full
// scoring input; a strategy ID may be given instead of an inline strategy
// when a strategy store is configured.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		conviction.Input
		StrategyID string `json:"strategy_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Strategy == nil && req.StrategyID != "" {
		if s.strategies == nil {
			http.Error(w, "strategy store is not configured", http.StatusServiceUnavailable)
			return
		}
		strategy, err := s.strategies.GetByID(r.Context(), req.StrategyID)
		if err != nil {
			log.Error().Err(err).Str("strategy_id", req.StrategyID).Msg("strategy lookup failed")
			http.Error(w, "strategy lookup failed", http.StatusBadGateway)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}
		req.Strategy = strategy
	}

	result := s.scorer.Score(req.Input)
	if s.metrics != nil {
		s.metrics.ScoreObserved(result.Score)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		http.Error(w, "strategy store is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var err error
	var out interface{}
	if regime := r.URL.Query().Get("regime"); regime != "" {
		out, err = s.strategies.ListByDominantRegime(r.Context(), regime, limit)
	} else {
		out, err = s.strategies.List(r.Context(), r.URL.Query().Get("coin"), r.URL.Query().Get("timeframe"), limit)
	}
	if err != nil {
		log.Error().Err(err).Msg("strategy list failed")
		http.Error(w, "strategy list failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
