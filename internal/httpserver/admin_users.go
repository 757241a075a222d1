package httpserver

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/analytics"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// userFilterParams reads the shared list/export filter parameters.
func userFilterParams(r *http.Request) storage.UserFilter {
	q := r.URL.Query()
	f := storage.UserFilter{
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("sortDir") != "asc",
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := q.Get("dateFrom"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("dateTo"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// Include the whole end day.
			end := t.AddDate(0, 0, 1).Add(-time.Second)
			f.DateTo = &end
		}
	}
	return f
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.analyticsService.UserStatistics(r.Context())
	if err != nil {
		s.logger.Error("user statistics failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, stats)
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}

	result, err := s.analyticsService.ListUsers(r.Context(), page, userFilterParams(r))
	if err != nil {
		s.logger.Error("users list failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, result)
}

func (s *Server) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	suggestions, err := s.analyticsService.SearchUsers(r.Context(), r.URL.Query().Get("q"), limitParam(r))
	if err != nil {
		s.logger.Error("user search failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, suggestions)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	if id == "" || strings.Contains(id, "/") {
		s.errorResponse(w, "user id required", http.StatusBadRequest)
		return
	}

	detail, err := s.analyticsService.UserByID(r.Context(), id)
	if errors.Is(err, analytics.ErrUserNotFound) {
		s.errorResponse(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("user detail failed", zap.String("user_id", id), zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, detail)
}

func (s *Server) handleUsersExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := s.analyticsService.ExportUsers(r.Context(), userFilterParams(r))
	if err != nil {
		s.logger.Error("users export failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="felhasznalok.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "name", "email", "age", "created_at", "purchases", "chakra_health"})
	for _, row := range rows {
		age := ""
		if row.Age != nil {
			age = strconv.Itoa(*row.Age)
		}
		_ = cw.Write([]string{
			row.ID,
			row.Name,
			row.Email,
			age,
			row.CreatedAt,
			strconv.Itoa(row.PurchaseCount),
			row.ChakraHealth,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("csv export write failed", zap.Error(err))
	}
}
