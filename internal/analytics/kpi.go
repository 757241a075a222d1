package analytics

import (
	"context"
	"fmt"
	"time"
)

// KPISummary is the flat dashboard headline block.
type KPISummary struct {
	TotalVisitors     int64   `json:"totalVisitors"`
	CompletedQuizzes  int64   `json:"completedQuizzes"`
	ConversionRate    float64 `json:"conversionRate"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	ActiveSessions    int64   `json:"activeSessions"`
}

// KPIs computes the summary for a trailing window of days. Active
// sessions always cover the trailing 24 hours regardless of the
// requested window, which is what the dashboard expects.
func (s *Service) KPIs(ctx context.Context, days int) (*KPISummary, error) {
	days = ClampDays(days)
	now := time.Now().UTC()
	since := windowStart(now, days)

	visitors, err := s.pageViews.CountDistinctSessionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate visitors: %w", err)
	}

	quizzes, err := s.results.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate quizzes: %w", err)
	}

	completed, err := s.purchases.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate purchases: %w", err)
	}

	active, err := s.sessions.CountActiveSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active sessions: %w", err)
	}

	var revenue float64
	for _, p := range completed {
		revenue += p.Amount
	}

	avgOrder := 0.0
	if len(completed) > 0 {
		avgOrder = round2(revenue / float64(len(completed)))
	}

	return &KPISummary{
		TotalVisitors:     visitors,
		CompletedQuizzes:  quizzes,
		ConversionRate:    percent(float64(quizzes), float64(visitors)),
		TotalRevenue:      round2(revenue),
		AverageOrderValue: avgOrder,
		ActiveSessions:    active,
	}, nil
}
