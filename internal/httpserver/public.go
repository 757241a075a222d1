package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/gift"
	"github.com/eredeticsakra/csakra-api/internal/quiz"
	"github.com/eredeticsakra/csakra-api/internal/tracking"
)

// ---- Quiz ----

type quizSubmitRequest struct {
	quiz.Submission
	SessionToken string `json:"sessionId,omitempty"`
}

func (s *Server) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req quizSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := s.quizService.Submit(r.Context(), req.Submission)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordQuizSubmission("rejected")
		}
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Tie off the live session row when the frontend sent its token.
	if req.SessionToken != "" {
		if err := s.trackingService.CompleteSession(r.Context(), req.SessionToken, req.Email); err != nil {
			s.logger.Warn("failed to complete quiz session", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordQuizSubmission("saved")
	}
	s.jsonResponse(w, result)
}

func (s *Server) handleQuizCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := s.quizService.Count(r.Context())
	if err != nil {
		s.logger.Error("quiz count failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]int64{"count": n})
}

func (s *Server) handleResultByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/results/")
	if id == "" || strings.Contains(id, "/") {
		s.errorResponse(w, "result id required", http.StatusBadRequest)
		return
	}

	result, err := s.quizService.GetResult(r.Context(), id)
	if err != nil {
		s.logger.Error("result lookup failed", zap.String("result_id", id), zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		s.errorResponse(w, "result not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, result)
}

// ---- Event tracking ----

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev tracking.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := s.trackingService.Record(r.Context(), ev); err != nil {
		s.logger.Error("event tracking failed", zap.String("event", ev.Name), zap.Error(err))
		s.errorResponse(w, "failed to record event", http.StatusBadRequest)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEvent(ev.Name)
	}
	s.jsonResponse(w, map[string]bool{"ok": true})
}

// ---- Purchases ----

func (s *Server) handlePurchasesByResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resultID := strings.TrimPrefix(r.URL.Path, "/api/purchases/")
	if resultID == "" || strings.Contains(resultID, "/") {
		s.errorResponse(w, "result id required", http.StatusBadRequest)
		return
	}

	result, err := s.results.GetByID(r.Context(), resultID)
	if err != nil {
		s.logger.Error("result lookup failed", zap.String("result_id", resultID), zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		s.errorResponse(w, "result not found", http.StatusNotFound)
		return
	}

	purchases, err := s.purchases.ListByEmail(r.Context(), result.Email)
	if err != nil {
		s.logger.Error("purchase history failed", zap.String("result_id", resultID), zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, purchases)
}

// ---- Gift codes ----

func (s *Server) handleGiftValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.errorResponse(w, "code is required", http.StatusBadRequest)
		return
	}

	verdict, err := s.giftService.Validate(r.Context(), code)
	if err != nil {
		s.logger.Error("gift validation failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, verdict)
}

func (s *Server) handleGiftRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req gift.Redemption
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	redeemed, err := s.giftService.Redeem(r.Context(), req)
	switch {
	case errors.Is(err, gift.ErrNotFound):
		if s.metrics != nil {
			s.metrics.RecordGiftRedemption("not_found")
		}
		s.errorResponse(w, "gift code not found", http.StatusNotFound)
		return
	case errors.Is(err, gift.ErrNotRedeemable):
		if s.metrics != nil {
			s.metrics.RecordGiftRedemption("rejected")
		}
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("gift redemption failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordGiftRedemption("redeemed")
	}
	s.jsonResponse(w, redeemed)
}

// ---- Newsletter opt-out ----

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		s.errorResponse(w, "email is required", http.StatusBadRequest)
		return
	}
	if err := s.newsletterService.Unsubscribe(r.Context(), req.Email); err != nil {
		s.logger.Error("unsubscribe failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]bool{"ok": true})
}
