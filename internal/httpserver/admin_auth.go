package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/auth"
	"github.com/eredeticsakra/csakra-api/internal/newsletter"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		s.errorResponse(w, "admin auth is disabled", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	session, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.errorResponse(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.logger.Error("login failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		s.jsonResponse(w, map[string]bool{"ok": true})
		return
	}

	token := bearerTokenFromRequest(r)
	if err := s.sessions.Logout(r.Context(), token); err != nil {
		s.logger.Error("logout failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]bool{"ok": true})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		s.jsonResponse(w, map[string]interface{}{"valid": true, "email": "dev"})
		return
	}

	session, err := s.sessions.Verify(r.Context(), bearerTokenFromRequest(r))
	if err != nil {
		s.jsonResponse(w, map[string]bool{"valid": false})
		return
	}
	s.jsonResponse(w, map[string]interface{}{
		"valid":     true,
		"email":     session.Email,
		"expiresAt": session.ExpiresAt,
	})
}

func bearerTokenFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// ---- Newsletter ----

func (s *Server) handleNewsletterSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var c newsletter.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	report, err := s.newsletterService.SendCampaign(r.Context(), c)
	if errors.Is(err, newsletter.ErrEmptyCampaign) {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("newsletter send failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEmails("sent", report.Sent)
		s.metrics.RecordEmails("failed", report.Failed)
	}
	s.jsonResponse(w, report)
}

func (s *Server) handleNewsletterTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		newsletter.Campaign
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := s.newsletterService.SendTest(r.Context(), req.Campaign, req.To); err != nil {
		if errors.Is(err, newsletter.ErrEmptyCampaign) {
			s.errorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("newsletter test send failed", zap.Error(err))
		s.errorResponse(w, "failed to send test email", http.StatusBadGateway)
		return
	}
	s.jsonResponse(w, map[string]bool{"ok": true})
}
