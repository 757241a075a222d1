package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// Service appends funnel events and keeps the page-view and session
// tables in step with them.
type Service struct {
	events    storage.EventRepo
	pageViews storage.PageViewRepo
	sessions  storage.SessionRepo
	logger    *zap.Logger
}

// NewService creates a tracking service.
func NewService(events storage.EventRepo, pageViews storage.PageViewRepo, sessions storage.SessionRepo, logger *zap.Logger) *Service {
	return &Service{events: events, pageViews: pageViews, sessions: sessions, logger: logger}
}

// Event is the client-posted tracking payload.
type Event struct {
	Name         string                 `json:"event"`
	SessionToken string                 `json:"sessionId"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

// Record appends one event. Page views are mirrored into the page-view
// table that feeds the visitor KPIs, and quiz progress events keep the
// session row current.
func (s *Service) Record(ctx context.Context, ev Event) error {
	if ev.Name == "" {
		return errors.New("event name is required")
	}
	if ev.SessionToken == "" {
		return errors.New("session id is required")
	}

	now := time.Now().UTC()
	e := &models.AnalyticsEvent{
		ID:           uuid.New().String(),
		EventName:    ev.Name,
		SessionToken: ev.SessionToken,
		EventData:    ev.Data,
		CreatedAt:    now,
	}
	if err := s.events.Insert(ctx, e); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	switch ev.Name {
	case models.EventPageView:
		path, _ := ev.Data["path"].(string)
		if path == "" {
			path = "/"
		}
		pv := &models.PageView{
			ID:           uuid.New().String(),
			Path:         path,
			SessionToken: ev.SessionToken,
			CreatedAt:    now,
		}
		if err := s.pageViews.Insert(ctx, pv); err != nil {
			return fmt.Errorf("failed to record page view: %w", err)
		}

	case models.EventQuizStart:
		if err := s.upsertSession(ctx, ev.SessionToken, 0, now); err != nil {
			return err
		}

	case models.EventQuestionAnswer:
		if err := s.upsertSession(ctx, ev.SessionToken, e.QuestionIndex(), now); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) upsertSession(ctx context.Context, token string, question int, now time.Time) error {
	session := &models.QuizSession{
		ID:              token,
		SessionToken:    token,
		CurrentQuestion: question,
		Status:          models.SessionActive,
		StartedAt:       now,
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return fmt.Errorf("failed to update quiz session: %w", err)
	}
	return nil
}

// CompleteSession marks a session finished once its quiz result is in.
func (s *Service) CompleteSession(ctx context.Context, token, email string) error {
	if token == "" {
		return nil
	}
	now := time.Now().UTC()
	session := &models.QuizSession{
		ID:              token,
		SessionToken:    token,
		Email:           email,
		CurrentQuestion: models.QuizAnswerCount,
		Status:          models.SessionCompleted,
		StartedAt:       now,
		CompletedAt:     &now,
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return fmt.Errorf("failed to complete quiz session: %w", err)
	}
	s.logger.Debug("quiz session completed", zap.String("session_token", token))
	return nil
}
