package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

func TestUserStatistics(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	ctx := context.Background()

	age1, age2 := 30, 41
	f.addResult("a@x.hu", &age1, now.AddDate(0, 0, -1))
	f.addResult("b@x.hu", &age2, now.AddDate(0, 0, -10))
	f.addResult("c@x.hu", nil, now.AddDate(0, 0, -40))
	f.addResult("a@x.hu", nil, now.AddDate(0, 0, -2)) // repeat respondent

	// One buyer with two completed purchases counts once.
	f.addPurchase("a@x.hu", "ebook", 2990, models.PurchaseCompleted, now)
	f.addPurchase("a@x.hu", "bundle", 12990, models.PurchaseCompleted, now)
	f.addPurchase("b@x.hu", "ebook", 2990, models.PurchasePending, now)

	f.addSession("a@x.hu", models.SessionCompleted, now)
	f.addSession("b@x.hu", models.SessionAbandoned, now)
	f.addSession("c@x.hu", models.SessionActive, now)
	f.addSession("d@x.hu", models.SessionCompleted, now)

	stats, err := f.svc.UserStatistics(ctx)
	if err != nil {
		t.Fatalf("UserStatistics failed: %v", err)
	}
	if stats.TotalUsers != 4 {
		t.Errorf("totalUsers = %d, want 4", stats.TotalUsers)
	}
	if stats.Last7Days != 2 {
		t.Errorf("last7Days = %d, want 2", stats.Last7Days)
	}
	if stats.Last30Days != 3 {
		t.Errorf("last30Days = %d, want 3", stats.Last30Days)
	}
	if stats.ConversionRate != 25 {
		t.Errorf("conversionRate = %v, want 25 (1 buyer of 4)", stats.ConversionRate)
	}
	if stats.AverageAge != 35.5 {
		t.Errorf("averageAge = %v, want 35.5", stats.AverageAge)
	}
	if stats.CompletionRate != 50 {
		t.Errorf("completionRate = %v, want 50", stats.CompletionRate)
	}
	if stats.AbandonmentRate != 25 {
		t.Errorf("abandonmentRate = %v, want 25", stats.AbandonmentRate)
	}
	if stats.CompletionRate+stats.AbandonmentRate > 100 {
		t.Errorf("completion+abandonment = %v, must not exceed 100",
			stats.CompletionRate+stats.AbandonmentRate)
	}
}

func TestUserStatisticsEmptyStore(t *testing.T) {
	f := newFixture()

	stats, err := f.svc.UserStatistics(context.Background())
	if err != nil {
		t.Fatalf("UserStatistics failed: %v", err)
	}
	if stats.ConversionRate != 0 || stats.AverageAge != 0 ||
		stats.CompletionRate != 0 || stats.AbandonmentRate != 0 {
		t.Errorf("expected zero rates on empty store, got %+v", stats)
	}
}

func TestUserByIDNotFoundVsFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.UserByID(ctx, "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// The same request against a broken store is a different error.
	broken := NewService(&errQuizRepo{}, f.purchases, f.sessions, f.pageViews, f.events, zap.NewNop())
	_, err = broken.UserByID(ctx, "missing")
	if err == nil || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestUserByIDJoinsHistory(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	ctx := context.Background()

	q := f.addResult("a@x.hu", nil, now.AddDate(0, 0, -3))
	f.addPurchase("a@x.hu", "ebook", 2990, models.PurchaseCompleted, now.Add(-2*time.Hour))
	f.addPurchase("a@x.hu", "bundle", 12990, models.PurchaseFailed, now.Add(-time.Hour))
	f.addPurchase("other@x.hu", "ebook", 2990, models.PurchaseCompleted, now)
	f.addSession("a@x.hu", models.SessionCompleted, now.Add(-3*time.Hour))

	detail, err := f.svc.UserByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("UserByID failed: %v", err)
	}
	if len(detail.Purchases) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(detail.Purchases))
	}
	// Newest first.
	if !detail.Purchases[0].CreatedAt.After(detail.Purchases[1].CreatedAt) {
		t.Error("purchases not ordered newest first")
	}
	if len(detail.Sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(detail.Sessions))
	}
	if detail.ChakraHealth == "" {
		t.Error("missing chakra health classification")
	}
}

func TestRecentUsersJoinsPurchaseCounts(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		f.addResult("bulk@x.hu", nil, now.Add(-time.Duration(i+10)*time.Hour))
	}
	f.addResult("buyer@x.hu", nil, now.Add(-time.Hour))
	f.addPurchase("buyer@x.hu", "ebook", 2990, models.PurchaseCompleted, now)

	rows, err := f.svc.RecentUsers(ctx, 0)
	if err != nil {
		t.Fatalf("RecentUsers failed: %v", err)
	}
	if len(rows) != DefaultRecentLimit {
		t.Fatalf("default limit: got %d rows, want %d", len(rows), DefaultRecentLimit)
	}
	if rows[0].Email != "buyer@x.hu" || rows[0].PurchaseCount != 1 {
		t.Errorf("newest row = %s with %d purchases", rows[0].Email, rows[0].PurchaseCount)
	}

	rows, err = f.svc.RecentUsers(ctx, 1000)
	if err != nil {
		t.Fatalf("RecentUsers failed: %v", err)
	}
	if len(rows) != 16 {
		t.Errorf("clamped limit: got %d rows, want all 16", len(rows))
	}
}

func TestListUsersPaginationAndSort(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		f.addResult("bulk@x.hu", nil, now.Add(-time.Duration(i)*time.Hour))
	}

	page, err := f.svc.ListUsers(ctx, 1, storage.UserFilter{Limit: 10, SortBy: "created_at", SortDesc: true})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if page.Total != 30 || len(page.Users) != 10 {
		t.Errorf("page 1: total=%d rows=%d, want 30/10", page.Total, len(page.Users))
	}

	page3, err := f.svc.ListUsers(ctx, 3, storage.UserFilter{Limit: 10, SortBy: "created_at", SortDesc: true})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(page3.Users) != 10 {
		t.Errorf("page 3: got %d rows", len(page3.Users))
	}
	if page.Users[0].ID == page3.Users[0].ID {
		t.Error("pages overlap")
	}

	// Off-whitelist page size snaps to the default.
	odd, err := f.svc.ListUsers(ctx, 1, storage.UserFilter{Limit: 17})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if odd.Limit != DefaultPageSize {
		t.Errorf("limit 17 normalized to %d, want %d", odd.Limit, DefaultPageSize)
	}
}

func TestSearchUsersShortQuerySkipsStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	suggestions, err := f.svc.SearchUsers(ctx, "a", 10)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("short query returned %d suggestions", len(suggestions))
	}

	now := time.Now().UTC()
	f.addResult("anna@x.hu", nil, now)
	f.addResult("bela@x.hu", nil, now)

	suggestions, err = f.svc.SearchUsers(ctx, "anna", 10)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Email != "anna@x.hu" {
		t.Errorf("unexpected suggestions: %+v", suggestions)
	}
}
