package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/analytics"
	"github.com/eredeticsakra/csakra-api/internal/auth"
	"github.com/eredeticsakra/csakra-api/internal/config"
	"github.com/eredeticsakra/csakra-api/internal/database"
	"github.com/eredeticsakra/csakra-api/internal/gift"
	"github.com/eredeticsakra/csakra-api/internal/metrics"
	"github.com/eredeticsakra/csakra-api/internal/middleware"
	"github.com/eredeticsakra/csakra-api/internal/newsletter"
	"github.com/eredeticsakra/csakra-api/internal/quiz"
	"github.com/eredeticsakra/csakra-api/internal/storage"
	"github.com/eredeticsakra/csakra-api/internal/tracking"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps the HTTP handlers and domain services.
type Server struct {
	quizService       *quiz.Service
	analyticsService  *analytics.Service
	giftService       *gift.Service
	trackingService   *tracking.Service
	newsletterService *newsletter.Service
	purchases         storage.PurchaseRepo
	results           storage.QuizResultRepo
	sessions          *auth.Manager
	logger            *zap.Logger
	config            *config.Config
	metrics           *metrics.Metrics
}

// NewServer constructs an http.Handler with all routes registered and
// the middleware chain applied.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories; without Postgres everything runs on
	// the in-memory stores.
	var (
		resultRepo   storage.QuizResultRepo
		purchaseRepo storage.PurchaseRepo
		sessionRepo  storage.SessionRepo
		pageViewRepo storage.PageViewRepo
		eventRepo    storage.EventRepo
		giftRepo     storage.GiftRepo
		unsubRepo    storage.UnsubscribeRepo
	)
	if deps.DB != nil {
		resultRepo = storage.NewPostgresQuizResultRepo(deps.DB.Pool)
		purchaseRepo = storage.NewPostgresPurchaseRepo(deps.DB.Pool)
		sessionRepo = storage.NewPostgresSessionRepo(deps.DB.Pool)
		pageViewRepo = storage.NewPostgresPageViewRepo(deps.DB.Pool)
		eventRepo = storage.NewPostgresEventRepo(deps.DB.Pool)
		giftRepo = storage.NewPostgresGiftRepo(deps.DB.Pool)
		unsubRepo = storage.NewPostgresUnsubscribeRepo(deps.DB.Pool)
	} else {
		resultRepo = storage.NewMemoryQuizResultRepo()
		purchaseRepo = storage.NewMemoryPurchaseRepo()
		sessionRepo = storage.NewMemorySessionRepo()
		pageViewRepo = storage.NewMemoryPageViewRepo()
		eventRepo = storage.NewMemoryEventRepo()
		giftRepo = storage.NewMemoryGiftRepo()
		unsubRepo = storage.NewMemoryUnsubscribeRepo()
	}

	// Admin sessions live in Redis when it is up; otherwise they die
	// with the process.
	var sessionStore auth.SessionStore
	if deps.Redis != nil {
		sessionStore = auth.NewRedisSessionStore(deps.Redis.Client)
	} else {
		sessionStore = auth.NewMemorySessionStore()
	}

	var sessionManager *auth.Manager
	var gate auth.Authorizer
	if deps.Config.Admin.Enabled {
		sessionManager = auth.NewManager(deps.Config.Admin, sessionStore, deps.Logger)
		gate = sessionManager
	} else {
		gate = auth.AllowAll{}
	}

	mailer := newsletter.NewResendClient(deps.Config.Mail, deps.Logger)

	s := &Server{
		quizService:       quiz.NewService(resultRepo, deps.Logger),
		analyticsService:  analytics.NewService(resultRepo, purchaseRepo, sessionRepo, pageViewRepo, eventRepo, deps.Logger),
		giftService:       gift.NewService(giftRepo, deps.Logger),
		trackingService:   tracking.NewService(eventRepo, pageViewRepo, sessionRepo, deps.Logger),
		newsletterService: newsletter.NewService(mailer, unsubRepo, deps.Config.Mail, deps.Logger),
		purchases:         purchaseRepo,
		results:           resultRepo,
		sessions:          sessionManager,
		logger:            deps.Logger,
		config:            deps.Config,
		metrics:           deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Public funnel endpoints
	mux.HandleFunc("/api/quiz/submit", s.handleQuizSubmit)
	mux.HandleFunc("/api/quiz/count", s.handleQuizCount)
	mux.HandleFunc("/api/results/", s.handleResultByID)
	mux.HandleFunc("/api/events", s.handleTrackEvent)
	mux.HandleFunc("/api/purchases/", s.handlePurchasesByResult)
	mux.HandleFunc("/api/gift/validate", s.handleGiftValidate)
	mux.HandleFunc("/api/gift/redeem", s.handleGiftRedeem)
	mux.HandleFunc("/api/newsletter/unsubscribe", s.handleUnsubscribe)

	// Admin auth
	mux.HandleFunc("/api/admin/auth/login", s.handleLogin)
	mux.HandleFunc("/api/admin/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/admin/auth/verify", s.handleVerify)

	// Admin dashboard
	mux.HandleFunc("/api/admin/stats", s.handleKPIs)
	mux.HandleFunc("/api/admin/stats/timeseries", s.handleTimeSeries)
	mux.HandleFunc("/api/admin/stats/products", s.handleProductStats)
	mux.HandleFunc("/api/admin/stats/funnel", s.handleFunnel)
	mux.HandleFunc("/api/admin/stats/recent-users", s.handleRecentUsers)

	// Admin user management
	mux.HandleFunc("/api/admin/users", s.handleUsersList)
	mux.HandleFunc("/api/admin/users/stats", s.handleUserStats)
	mux.HandleFunc("/api/admin/users/search", s.handleUserSearch)
	mux.HandleFunc("/api/admin/users/export", s.handleUsersExport)
	mux.HandleFunc("/api/admin/users/", s.handleUserByID)

	// Admin newsletter
	mux.HandleFunc("/api/admin/newsletter/send", s.handleNewsletterSend)
	mux.HandleFunc("/api/admin/newsletter/test", s.handleNewsletterTest)

	// Middleware chain, innermost first: admin gate, rate limit,
	// request logging, panic recovery.
	adminGate := middleware.NewAdminGateMiddleware(gate, deps.Logger)
	rateLimit := middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger)
	rateLimit.SetMetrics(deps.Metrics)
	logging := middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics)
	recovery := middleware.NewRecoveryMiddleware(deps.Logger)

	var handler http.Handler = mux
	handler = adminGate.Handler(handler)
	handler = rateLimit.Handler(handler)
	handler = logging.Handler(handler)
	handler = recovery.Handler(handler)
	return handler
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Response helpers ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
