package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eredeticsakra/csakra-api/internal/config"
)

func testConfig(t *testing.T, adminEnabled bool) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Addr: ":0", Env: "development"},
		Admin:  config.AdminConfig{Enabled: false},
		Mail: config.MailConfig{
			FromAddress: "hello@eredeticsakra.hu",
			FromName:    "Eredeti Csakra",
		},
	}
	if adminEnabled {
		hash, err := bcrypt.GenerateFromPassword([]byte("titkos123"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt failed: %v", err)
		}
		cfg.Admin = config.AdminConfig{
			Enabled:      true,
			Email:        "admin@eredeticsakra.hu",
			PasswordHash: string(hash),
			JWTSecret:    "test-secret",
			SessionTTL:   time.Hour,
		}
	}
	return cfg
}

func newTestServer(t *testing.T, adminEnabled bool) http.Handler {
	t.Helper()
	return NewServer(&Dependencies{
		Config: testConfig(t, adminEnabled),
		Logger: zap.NewNop(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitQuiz(t *testing.T, h http.Handler, name, email string) string {
	t.Helper()
	answers := make([]int, 28)
	for i := range answers {
		answers[i] = 3
	}
	rec := doJSON(t, h, http.MethodPost, "/api/quiz/submit", map[string]interface{}{
		"name":    name,
		"email":   email,
		"answers": answers,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz submit returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad submit response: %v", err)
	}
	return resp.ID
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, false)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health returned %d", rec.Code)
	}
}

func TestQuizSubmitAndFetch(t *testing.T) {
	h := newTestServer(t, false)

	id := submitQuiz(t, h, "Kovács Anna", "anna@x.hu")

	rec := doJSON(t, h, http.MethodGet, "/api/results/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result fetch returned %d", rec.Code)
	}
	var result struct {
		Email        string         `json:"email"`
		ChakraScores map[string]int `json:"chakra_scores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad result body: %v", err)
	}
	if result.Email != "anna@x.hu" || len(result.ChakraScores) != 7 {
		t.Errorf("unexpected result: %+v", result)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/results/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing result returned %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/quiz/count", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Errorf("quiz count: %d %s", rec.Code, rec.Body.String())
	}
}

func TestQuizSubmitRejectsInvalid(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodPost, "/api/quiz/submit", map[string]interface{}{
		"name":    "X",
		"email":   "x@x.hu",
		"answers": []int{1, 2, 3},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short answers returned %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("missing error body: %s", rec.Body.String())
	}
}

func TestTimeSeriesInvalidMetric(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodGet, "/api/admin/stats/timeseries?metric=foo&days=7", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid metric returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/admin/stats/timeseries?metric=quizzes&days=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid metric returned %d", rec.Code)
	}
	var points []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("bad time-series body: %v", err)
	}
	if len(points) != 8 {
		t.Errorf("expected 8 points for days=7, got %d", len(points))
	}
}

func TestKPIsEndpoint(t *testing.T) {
	h := newTestServer(t, false)
	submitQuiz(t, h, "Teszt", "t@x.hu")

	rec := doJSON(t, h, http.MethodGet, "/api/admin/stats?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("KPIs returned %d", rec.Code)
	}
	var kpis map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &kpis); err != nil {
		t.Fatalf("bad KPI body: %v", err)
	}
	for _, key := range []string{"totalVisitors", "completedQuizzes", "conversionRate",
		"totalRevenue", "averageOrderValue", "activeSessions"} {
		if _, ok := kpis[key]; !ok {
			t.Errorf("KPI response missing %s", key)
		}
	}
}

func TestUserDetailNotFound(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodGet, "/api/admin/users/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user returned %d, want 404", rec.Code)
	}

	id := submitQuiz(t, h, "Anna", "anna@x.hu")
	rec = doJSON(t, h, http.MethodGet, "/api/admin/users/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("known user returned %d", rec.Code)
	}
}

func TestEventTracking(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodPost, "/api/events", map[string]interface{}{
		"event":     "page_view",
		"sessionId": "s1",
		"data":      map[string]interface{}{"path": "/kviz"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("event tracking returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/events", map[string]interface{}{"event": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty event returned %d, want 400", rec.Code)
	}
}

func TestGiftValidateUnknownCode(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodGet, "/api/gift/validate?code=GIFT-NOPE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("gift validate returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not_found") {
		t.Errorf("verdict body: %s", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/gift/validate", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing code returned %d, want 400", rec.Code)
	}
}

func TestGiftRedeemUnknownCode(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodPost, "/api/gift/redeem", map[string]string{
		"code": "GIFT-NOPE", "resultId": "r1", "email": "x@x.hu",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown gift returned %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/gift/redeem", map[string]string{
		"code": "CARD-1", "resultId": "r1", "email": "x@x.hu",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed gift code returned %d, want 400", rec.Code)
	}
}

func TestAdminGateEndToEnd(t *testing.T) {
	h := newTestServer(t, true)

	// No token: admin stats are closed.
	rec := doJSON(t, h, http.MethodGet, "/api/admin/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ungated admin request returned %d, want 401", rec.Code)
	}

	// Login stays open and issues a usable token.
	rec = doJSON(t, h, http.MethodPost, "/api/admin/auth/login", map[string]string{
		"email": "admin@eredeticsakra.hu", "password": "titkos123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("bad login response: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Errorf("authorized admin request returned %d", authed.Code)
	}

	// Wrong password is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/admin/auth/login", map[string]string{
		"email": "admin@eredeticsakra.hu", "password": "rossz",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login returned %d, want 401", rec.Code)
	}
}

func TestUsersListAndExport(t *testing.T) {
	h := newTestServer(t, false)
	for i := 0; i < 3; i++ {
		submitQuiz(t, h, fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@x.hu", i))
	}

	rec := doJSON(t, h, http.MethodGet, "/api/admin/users?limit=10&page=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("users list returned %d", rec.Code)
	}
	var page struct {
		Users []map[string]interface{} `json:"users"`
		Total int                      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if page.Total != 3 || len(page.Users) != 3 {
		t.Errorf("list = total %d rows %d", page.Total, len(page.Users))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/admin/users/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("export content type = %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 4 { // header + 3 rows
		t.Errorf("export lines = %d, want 4", len(lines))
	}
}

func TestNewsletterUnsubscribe(t *testing.T) {
	h := newTestServer(t, false)

	rec := doJSON(t, h, http.MethodPost, "/api/newsletter/unsubscribe", map[string]string{"email": "ki@x.hu"})
	if rec.Code != http.StatusOK {
		t.Errorf("unsubscribe returned %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/newsletter/unsubscribe", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty unsubscribe returned %d, want 400", rec.Code)
	}
}
