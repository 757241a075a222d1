package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/analytics"
)

// daysParam parses the trailing-window query parameter. Out-of-range
// values are clamped by the analytics service.
func daysParam(r *http.Request) int {
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return analytics.DefaultWindowDays
}

func limitParam(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kpis, err := s.analyticsService.KPIs(r.Context(), daysParam(r))
	if err != nil {
		s.logger.Error("KPI aggregation failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, kpis)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metric := r.URL.Query().Get("metric")
	points, err := s.analyticsService.TimeSeries(r.Context(), daysParam(r), metric)
	if errors.Is(err, analytics.ErrInvalidMetric) {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("time-series aggregation failed", zap.String("metric", metric), zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, points)
}

func (s *Server) handleProductStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.analyticsService.ProductStats(r.Context(), daysParam(r))
	if err != nil {
		s.logger.Error("product aggregation failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, stats)
}

func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stages, err := s.analyticsService.Funnel(r.Context(), daysParam(r))
	if err != nil {
		s.logger.Error("funnel aggregation failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, stages)
}

func (s *Server) handleRecentUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := s.analyticsService.RecentUsers(r.Context(), limitParam(r))
	if err != nil {
		s.logger.Error("recent users failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, rows)
}
