package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"picks-sizing/db/clickhouse"
	"picks-sizing/internal/sizing"
	sizingerrors "picks-sizing/pkg/errors"
)

// =============================================================================
// CALCULATE ENDPOINT
// =============================================================================

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var mix sizing.ChannelMix
	if err := s.decodeBody(w, r, &mix); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := mix.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.sizing.EstimateAndMatch(r.Context(), mix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.recordEstimate(r.Context(), report)
	s.jsonResponse(w, http.StatusOK, report.Response())
}

// recordEstimate appends the report to the history store. Failures are
// logged and never fail the request.
func (s *Server) recordEstimate(ctx context.Context, report *sizing.Report) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Record(ctx, clickhouse.NewEntry(report)); err != nil {
		s.log.Warn().Err(err).Msg("failed to record estimate")
	}
}

// =============================================================================
// MATCH ENDPOINTS
// =============================================================================

func (s *Server) handleClosest(w http.ResponseWriter, r *http.Request) {
	demand, err := queryNumber(r, "totalRM")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	match, err := s.sizing.MatchCapacity(r.Context(), demand)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !match.Found && match.Overflow == nil {
		s.jsonError(w, http.StatusNotFound, "No suitable model found")
		return
	}
	s.jsonResponse(w, http.StatusOK, match.ClosestResponse())
}

func (s *Server) handleExact(w http.ResponseWriter, r *http.Request) {
	demand, err := queryNumber(r, "pm")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	hm, err := s.sizing.ExactMatch(r.Context(), demand)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hm == nil {
		s.jsonError(w, http.StatusNotFound, "No model found for the calculated RM")
		return
	}
	s.jsonResponse(w, http.StatusOK, hm)
}

// =============================================================================
// HISTORY ENDPOINT
// =============================================================================

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.jsonError(w, http.StatusNotFound, "estimate history is not enabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, r, sizingerrors.NewInvalidInputError("limit", "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

func queryNumber(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, sizingerrors.NewInvalidInputError(name, "Invalid "+name+" value")
	}
	return v, nil
}
