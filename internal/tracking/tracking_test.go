package tracking

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

func newTestService() (*Service, *storage.MemoryEventRepo, *storage.MemoryPageViewRepo, *storage.MemorySessionRepo) {
	events := storage.NewMemoryEventRepo()
	views := storage.NewMemoryPageViewRepo()
	sessions := storage.NewMemorySessionRepo()
	return NewService(events, views, sessions, zap.NewNop()), events, views, sessions
}

func TestRecordPageViewMirrorsBothTables(t *testing.T) {
	svc, events, views, _ := newTestService()
	ctx := context.Background()

	err := svc.Record(ctx, Event{
		Name:         models.EventPageView,
		SessionToken: "s1",
		Data:         map[string]interface{}{"path": "/kviz"},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	since := time.Now().UTC().Add(-time.Minute)
	n, _ := events.CountDistinctSessions(ctx, models.EventPageView, since)
	if n != 1 {
		t.Errorf("event sessions = %d, want 1", n)
	}
	stored, _ := views.ListSince(ctx, since)
	if len(stored) != 1 || stored[0].Path != "/kviz" {
		t.Errorf("page views = %+v", stored)
	}
}

func TestRecordQuizProgressUpdatesSession(t *testing.T) {
	svc, _, _, sessions := newTestService()
	ctx := context.Background()

	if err := svc.Record(ctx, Event{Name: models.EventQuizStart, SessionToken: "s1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	err := svc.Record(ctx, Event{
		Name:         models.EventQuestionAnswer,
		SessionToken: "s1",
		Data:         map[string]interface{}{"question_index": float64(12)},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	active, _ := sessions.CountActiveSince(ctx, time.Now().UTC().Add(-time.Minute))
	if active != 1 {
		t.Errorf("active sessions = %d, want 1", active)
	}
}

func TestRecordRejectsMissingFields(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.Record(ctx, Event{Name: "", SessionToken: "s1"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Record(ctx, Event{Name: "page_view", SessionToken: ""}); err == nil {
		t.Error("expected error for missing session id")
	}
}

func TestCompleteSession(t *testing.T) {
	svc, _, _, sessions := newTestService()
	ctx := context.Background()

	if err := svc.Record(ctx, Event{Name: models.EventQuizStart, SessionToken: "s1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := svc.CompleteSession(ctx, "s1", "anna@x.hu"); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}

	byStatus, _ := sessions.CountByStatus(ctx)
	if byStatus[models.SessionCompleted] != 1 || byStatus[models.SessionActive] != 0 {
		t.Errorf("session counts = %v", byStatus)
	}

	// Completing with no token is a no-op, not an error.
	if err := svc.CompleteSession(ctx, "", "x@x.hu"); err != nil {
		t.Errorf("empty token: %v", err)
	}
}
