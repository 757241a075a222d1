package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Funnel metrics
	QuizSubmissions *prometheus.CounterVec
	EventsRecorded  *prometheus.CounterVec

	// Commerce metrics
	GiftRedemptions *prometheus.CounterVec

	// Newsletter metrics
	EmailsSent *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// System metrics
	DBConnections *prometheus.GaugeVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by path and status",
			},
			[]string{"path", "method", "status"},
		),
		HTTPLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"path"},
		),
		QuizSubmissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_submissions_total",
				Help:      "Quiz submissions by outcome",
			},
			[]string{"outcome"},
		),
		EventsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "funnel_events_total",
				Help:      "Funnel events recorded by name",
			},
			[]string{"event"},
		),
		GiftRedemptions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gift_redemptions_total",
				Help:      "Gift code redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
		EmailsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "newsletter_emails_total",
				Help:      "Newsletter emails by delivery outcome",
			},
			[]string{"outcome"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"endpoint"},
		),
		DBConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database connection pool stats",
			},
			[]string{"state"}, // idle, in_use, total
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one finished HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, latency time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(path).Observe(latency.Seconds())
}

// RecordQuizSubmission records a quiz submission outcome.
func (m *Metrics) RecordQuizSubmission(outcome string) {
	m.QuizSubmissions.WithLabelValues(outcome).Inc()
}

// RecordEvent records a funnel event.
func (m *Metrics) RecordEvent(event string) {
	m.EventsRecorded.WithLabelValues(event).Inc()
}

// RecordGiftRedemption records a redemption attempt outcome.
func (m *Metrics) RecordGiftRedemption(outcome string) {
	m.GiftRedemptions.WithLabelValues(outcome).Inc()
}

// RecordEmail records a newsletter delivery outcome.
func (m *Metrics) RecordEmail(outcome string) {
	m.EmailsSent.WithLabelValues(outcome).Inc()
}

// RecordEmails records a batch of newsletter delivery outcomes.
func (m *Metrics) RecordEmails(outcome string, n int) {
	if n > 0 {
		m.EmailsSent.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}
