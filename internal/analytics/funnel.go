package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// FunnelStage is one step of the landing-to-purchase funnel.
type FunnelStage struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	DropOff    float64 `json:"dropOff"`
}

// halfwayQuestion marks a session as mid-quiz once it has answered
// this many questions.
const halfwayQuestion = 10

// Funnel computes the eight-stage conversion funnel for a trailing
// window. Percentages are relative to the first stage; drop-off is
// relative to the previous stage.
func (s *Service) Funnel(ctx context.Context, days int) ([]FunnelStage, error) {
	days = ClampDays(days)
	since := windowStart(time.Now().UTC(), days)

	landed, err := s.events.CountDistinctSessions(ctx, models.EventPageView, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count landings: %w", err)
	}
	started, err := s.events.CountDistinctSessions(ctx, models.EventQuizStart, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count quiz starts: %w", err)
	}

	halfway, err := s.countHalfwaySessions(ctx, since)
	if err != nil {
		return nil, err
	}

	completed, err := s.results.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}
	viewed, err := s.events.CountDistinctSessions(ctx, models.EventResultViewed, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count result views: %w", err)
	}
	checkout, err := s.events.CountDistinctSessions(ctx, models.EventCheckoutOpened, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkouts: %w", err)
	}
	selected, err := s.events.CountDistinctSessions(ctx, models.EventProductSelected, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count product selections: %w", err)
	}
	purchased, err := s.purchases.CountCompletedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}

	counts := []struct {
		name  string
		count int64
	}{
		{"landing_page", landed},
		{"quiz_started", started},
		{"quiz_halfway", halfway},
		{"quiz_completed", completed},
		{"result_viewed", viewed},
		{"checkout_opened", checkout},
		{"product_selected", selected},
		{"purchase_completed", purchased},
	}

	stages := make([]FunnelStage, 0, len(counts))
	var prev int64
	for i, c := range counts {
		stage := FunnelStage{
			Name:       c.name,
			Count:      c.count,
			Percentage: percent(float64(c.count), float64(counts[0].count)),
		}
		if i > 0 && prev > 0 {
			stage.DropOff = percent(float64(prev-c.count), float64(prev))
		}
		stages = append(stages, stage)
		prev = c.count
	}
	return stages, nil
}

// countHalfwaySessions counts distinct sessions that answered at least
// the halfway question.
func (s *Service) countHalfwaySessions(ctx context.Context, since time.Time) (int64, error) {
	events, err := s.events.ListByName(ctx, models.EventQuestionAnswer, since)
	if err != nil {
		return 0, fmt.Errorf("failed to load answer events: %w", err)
	}
	sessions := make(map[string]bool)
	for _, e := range events {
		if e.QuestionIndex() >= halfwayQuestion {
			sessions[e.SessionToken] = true
		}
	}
	return int64(len(sessions)), nil
}
