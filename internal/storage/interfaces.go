package storage

import (
	"context"
	"time"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// UserFilter bounds and orders a quiz-result listing. SortBy must be
// one of the whitelisted columns; callers validate before building it.
type UserFilter struct {
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// =============================================
// QUIZ RESULTS
// =============================================

// QuizResultRepo defines operations over completed quizzes.
type QuizResultRepo interface {
	Insert(ctx context.Context, r *models.QuizResult) error
	GetByID(ctx context.Context, id string) (*models.QuizResult, error)

	CountAll(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.QuizResult, error)
	ListRecent(ctx context.Context, limit int) ([]*models.QuizResult, error)
	ListEmails(ctx context.Context) ([]string, error)
	ListAges(ctx context.Context) ([]int, error)
	Search(ctx context.Context, query string, limit int) ([]*models.QuizResult, error)
	List(ctx context.Context, f UserFilter) ([]*models.QuizResult, int64, error)
}

// =============================================
// PURCHASES
// =============================================

// PurchaseRepo defines operations over payment attempts.
type PurchaseRepo interface {
	Insert(ctx context.Context, p *models.Purchase) error
	UpdateStatus(ctx context.Context, id, status string) error

	ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Purchase, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
	// ListByEmail returns all purchases for an email, newest first.
	ListByEmail(ctx context.Context, email string) ([]*models.Purchase, error)
	// CompletedCountsByEmail returns completed-purchase counts keyed by email.
	CompletedCountsByEmail(ctx context.Context, emails []string) (map[string]int, error)
	ListCompletedEmails(ctx context.Context) ([]string, error)
}

// =============================================
// QUIZ SESSIONS
// =============================================

// SessionRepo defines operations over quiz attempts.
type SessionRepo interface {
	Upsert(ctx context.Context, s *models.QuizSession) error
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// ListByEmail returns all sessions for an email, newest first.
	ListByEmail(ctx context.Context, email string) ([]*models.QuizSession, error)
}

// =============================================
// PAGE VIEWS AND FUNNEL EVENTS
// =============================================

// PageViewRepo defines operations over page loads.
type PageViewRepo interface {
	Insert(ctx context.Context, pv *models.PageView) error
	CountDistinctSessionsSince(ctx context.Context, since time.Time) (int64, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.PageView, error)
}

// EventRepo defines operations over client-side funnel events.
type EventRepo interface {
	Insert(ctx context.Context, e *models.AnalyticsEvent) error
	CountDistinctSessions(ctx context.Context, eventName string, since time.Time) (int64, error)
	ListByName(ctx context.Context, eventName string, since time.Time) ([]*models.AnalyticsEvent, error)
}

// =============================================
// GIFT CODES AND NEWSLETTER
// =============================================

// GiftRepo defines operations over gift purchases.
type GiftRepo interface {
	Insert(ctx context.Context, g *models.GiftPurchase) error
	GetByCode(ctx context.Context, code string) (*models.GiftPurchase, error)
	UpdateStatus(ctx context.Context, code, status string) error
	MarkRedeemed(ctx context.Context, code, resultID, email string, at time.Time) error
}

// UnsubscribeRepo tracks addresses that opted out of newsletters.
type UnsubscribeRepo interface {
	Add(ctx context.Context, email string) error
	ListAll(ctx context.Context) ([]string, error)
}
