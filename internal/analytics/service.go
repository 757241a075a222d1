package analytics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// Window clamping bounds shared by every aggregator.
const (
	MinWindowDays     = 1
	MaxWindowDays     = 365
	DefaultWindowDays = 30
)

// Service computes dashboard aggregates. Every method recomputes from
// the store on each call; nothing is cached between requests.
type Service struct {
	results   storage.QuizResultRepo
	purchases storage.PurchaseRepo
	sessions  storage.SessionRepo
	pageViews storage.PageViewRepo
	events    storage.EventRepo
	logger    *zap.Logger
}

// NewService creates an analytics service over the given repositories.
func NewService(
	results storage.QuizResultRepo,
	purchases storage.PurchaseRepo,
	sessions storage.SessionRepo,
	pageViews storage.PageViewRepo,
	events storage.EventRepo,
	logger *zap.Logger,
) *Service {
	return &Service{
		results:   results,
		purchases: purchases,
		sessions:  sessions,
		pageViews: pageViews,
		events:    events,
		logger:    logger,
	}
}

// ClampDays normalizes a requested window length. Zero or negative
// input falls back to the default window.
func ClampDays(days int) int {
	if days == 0 {
		return DefaultWindowDays
	}
	if days < MinWindowDays {
		return MinWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// windowStart returns the cutoff for a trailing window ending now.
func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// percent computes part/whole*100 rounded to 2 decimals, 0 when the
// denominator is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(part / whole * 100)
}
