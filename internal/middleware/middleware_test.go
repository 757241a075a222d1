package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/auth"
	"github.com/eredeticsakra/csakra-api/internal/config"
)

type denyAll struct{}

func (denyAll) Check(*http.Request) auth.Decision {
	return auth.Deny("no session")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminGateBlocksAdminRoutes(t *testing.T) {
	gate := NewAdminGateMiddleware(denyAll{}, zap.NewNop())
	handler := gate.Handler(okHandler())

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/admin/stats", http.StatusUnauthorized},
		{"/api/admin/users", http.StatusUnauthorized},
		{"/api/admin/auth/login", http.StatusOK}, // login stays open
		{"/api/quiz/count", http.StatusOK},
		{"/health", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status %d, want %d", tt.path, rec.Code, tt.wantStatus)
		}
	}
}

func TestAdminGatePassesAllowedRequests(t *testing.T) {
	gate := NewAdminGateMiddleware(auth.AllowAll{}, zap.NewNop())
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/admin/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("allowed request got %d", rec.Code)
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:     true,
		PublicRPS:   1,
		PublicBurst: 2,
		AdminRPS:    1,
		AdminBurst:  1,
	}
	rl := NewRateLimitMiddleware(cfg, zap.NewNop())
	handler := rl.Handler(okHandler())

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/quiz/count", nil))
		statuses = append(statuses, rec.Code)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("burst requests rejected: %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("over-burst request got %d, want 429", statuses[2])
	}
}

func TestRateLimitDisabled(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false}, zap.NewNop())
	handler := rl.Handler(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/quiz/count", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}
