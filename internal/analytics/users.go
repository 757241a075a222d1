package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/quiz"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// ErrUserNotFound marks a lookup for a quiz result id that does not
// exist, as opposed to a store failure on the same request.
var ErrUserNotFound = errors.New("user not found")

// Limit bounds for the user endpoints.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
	DefaultPageSize    = 25
	exportLimit        = 10000
)

// pageSizes whitelists the per-page sizes the users list accepts.
var pageSizes = map[int]bool{10: true, 25: true, 50: true, 100: true}

// ClampRecentLimit normalizes the recent-users limit.
func ClampRecentLimit(limit int) int {
	if limit == 0 {
		return DefaultRecentLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// ClampSearchLimit normalizes the autocomplete limit.
func ClampSearchLimit(limit int) int {
	if limit == 0 {
		return DefaultSearchLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// NormalizePageSize snaps a requested page size onto the whitelist.
func NormalizePageSize(limit int) int {
	if pageSizes[limit] {
		return limit
	}
	return DefaultPageSize
}

// UserStats is the cohort summary block of the users page.
type UserStats struct {
	TotalUsers      int64   `json:"totalUsers"`
	Last7Days       int64   `json:"last7Days"`
	Last30Days      int64   `json:"last30Days"`
	ConversionRate  float64 `json:"conversionRate"`
	AverageAge      float64 `json:"averageAge"`
	CompletionRate  float64 `json:"completionRate"`
	AbandonmentRate float64 `json:"abandonmentRate"`
}

// UserStatistics computes cohort statistics over all quiz results and
// sessions.
func (s *Service) UserStatistics(ctx context.Context) (*UserStats, error) {
	now := time.Now().UTC()

	total, err := s.results.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	last7, err := s.results.CountSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent users: %w", err)
	}
	last30, err := s.results.CountSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent users: %w", err)
	}

	buyerEmails, err := s.purchases.ListCompletedEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}
	buyers := make(map[string]bool, len(buyerEmails))
	for _, e := range buyerEmails {
		buyers[e] = true
	}

	ages, err := s.results.ListAges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ages: %w", err)
	}
	avgAge := 0.0
	if len(ages) > 0 {
		sum := 0
		for _, a := range ages {
			sum += a
		}
		avgAge = round1(float64(sum) / float64(len(ages)))
	}

	byStatus, err := s.sessions.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	var totalSessions int64
	for _, n := range byStatus {
		totalSessions += n
	}

	return &UserStats{
		TotalUsers:      total,
		Last7Days:       last7,
		Last30Days:      last30,
		ConversionRate:  percent(float64(len(buyers)), float64(total)),
		AverageAge:      avgAge,
		CompletionRate:  percent(float64(byStatus[models.SessionCompleted]), float64(totalSessions)),
		AbandonmentRate: percent(float64(byStatus[models.SessionAbandoned]), float64(totalSessions)),
	}, nil
}

// UserDetail joins one quiz result with the purchase and session
// history behind its email.
type UserDetail struct {
	Result       *models.QuizResult    `json:"result"`
	ChakraHealth string                `json:"chakraHealth"`
	Purchases    []*models.Purchase    `json:"purchases"`
	Sessions     []*models.QuizSession `json:"sessions"`
}

// UserByID returns the detail view for one quiz result. An unknown id
// yields ErrUserNotFound.
func (s *Service) UserByID(ctx context.Context, id string) (*UserDetail, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if result == nil {
		return nil, ErrUserNotFound
	}

	purchases, err := s.purchases.ListByEmail(ctx, result.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	sessions, err := s.sessions.ListByEmail(ctx, result.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	return &UserDetail{
		Result:       result,
		ChakraHealth: quiz.Health(result.ChakraScores),
		Purchases:    purchases,
		Sessions:     sessions,
	}, nil
}

// UserRow is one entry of the users list, recent users, and export.
type UserRow struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Age           *int    `json:"age,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	PurchaseCount int     `json:"purchaseCount"`
	ChakraHealth  string  `json:"chakraHealth"`
}

// RecentUsers returns the newest quiz results with their completed
// purchase counts.
func (s *Service) RecentUsers(ctx context.Context, limit int) ([]UserRow, error) {
	results, err := s.results.ListRecent(ctx, ClampRecentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	return s.toUserRows(ctx, results)
}

// UserPage is one page of the users list.
type UserPage struct {
	Users []UserRow `json:"users"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// ListUsers returns a filtered, sorted page of users.
func (s *Service) ListUsers(ctx context.Context, page int, f storage.UserFilter) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	f.Limit = NormalizePageSize(f.Limit)
	f.Offset = (page - 1) * f.Limit

	results, total, err := s.results.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	rows, err := s.toUserRows(ctx, results)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: rows, Total: total, Page: page, Limit: f.Limit}, nil
}

// Suggestion is one autocomplete hit.
type Suggestion struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SearchUsers returns autocomplete suggestions for a name or email
// fragment. Queries shorter than 2 characters return an empty list
// without touching the store.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	if len(query) < 2 {
		return []Suggestion{}, nil
	}

	results, err := s.results.Search(ctx, query, ClampSearchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(results))
	for _, q := range results {
		suggestions = append(suggestions, Suggestion{ID: q.ID, Name: q.Name, Email: q.Email})
	}
	return suggestions, nil
}

// ExportUsers returns the rows matching the filter, up to the export
// cap, for CSV download.
func (s *Service) ExportUsers(ctx context.Context, f storage.UserFilter) ([]UserRow, error) {
	f.Limit = exportLimit
	f.Offset = 0

	results, _, err := s.results.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	return s.toUserRows(ctx, results)
}

func (s *Service) toUserRows(ctx context.Context, results []*models.QuizResult) ([]UserRow, error) {
	emails := make([]string, 0, len(results))
	for _, q := range results {
		emails = append(emails, q.Email)
	}
	counts, err := s.purchases.CompletedCountsByEmail(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	rows := make([]UserRow, 0, len(results))
	for _, q := range results {
		rows = append(rows, UserRow{
			ID:            q.ID,
			Name:          q.Name,
			Email:         q.Email,
			Age:           q.Age,
			CreatedAt:     q.CreatedAt.Format(time.RFC3339),
			PurchaseCount: counts[q.Email],
			ChakraHealth:  quiz.Health(q.ChakraScores),
		})
	}
	return rows, nil
}
