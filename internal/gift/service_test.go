package gift

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

func seedGift(t *testing.T, repo *storage.MemoryGiftRepo, code, status string, expiresAt time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), &models.GiftPurchase{
		ID:         "gift-" + code,
		GiftCode:   code,
		ProductID:  "gift_ai_only",
		BuyerEmail: "buyer@x.hu",
		Status:     status,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestValidateVerdicts(t *testing.T) {
	repo := storage.NewMemoryGiftRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	future := time.Now().UTC().Add(24 * time.Hour)

	seedGift(t, repo, "GIFT-ACTIVE", models.GiftActive, future)
	seedGift(t, repo, "GIFT-USED", models.GiftRedeemed, future)
	seedGift(t, repo, "GIFT-GONE", models.GiftCancelled, future)
	seedGift(t, repo, "GIFT-OLD", models.GiftExpired, future)

	tests := []struct {
		code       string
		wantValid  bool
		wantReason string
	}{
		{"GIFT-ACTIVE", true, ""},
		{"GIFT-USED", false, ReasonAlreadyRedeemed},
		{"GIFT-GONE", false, ReasonCancelled},
		{"GIFT-OLD", false, ReasonExpired},
		{"GIFT-NOPE", false, ReasonNotFound},
	}
	for _, tt := range tests {
		v, err := svc.Validate(ctx, tt.code)
		if err != nil {
			t.Fatalf("Validate(%s) failed: %v", tt.code, err)
		}
		if v.Valid != tt.wantValid || v.Reason != tt.wantReason {
			t.Errorf("Validate(%s) = %v/%s, want %v/%s",
				tt.code, v.Valid, v.Reason, tt.wantValid, tt.wantReason)
		}
	}

	active, _ := svc.Validate(ctx, "GIFT-ACTIVE")
	if active.ProductName != "Ajándék AI Elemzés PDF" {
		t.Errorf("product name = %q", active.ProductName)
	}
}

func TestValidateTransitionsLapsedCode(t *testing.T) {
	repo := storage.NewMemoryGiftRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	seedGift(t, repo, "GIFT-LAPSED", models.GiftActive, time.Now().UTC().Add(-time.Hour))

	v, err := svc.Validate(ctx, "GIFT-LAPSED")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if v.Valid || v.Reason != ReasonExpired {
		t.Errorf("lapsed code verdict = %v/%s", v.Valid, v.Reason)
	}

	stored, _ := repo.GetByCode(ctx, "GIFT-LAPSED")
	if stored.Status != models.GiftExpired {
		t.Errorf("stored status = %s, want expired", stored.Status)
	}
}

func TestRedeem(t *testing.T) {
	repo := storage.NewMemoryGiftRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	seedGift(t, repo, "GIFT-ABC123", models.GiftActive, time.Now().UTC().Add(24*time.Hour))

	g, err := svc.Redeem(ctx, Redemption{Code: "GIFT-ABC123", ResultID: "result-1", Email: "Friend@X.HU"})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if g.Status != models.GiftRedeemed {
		t.Errorf("status = %s, want redeemed", g.Status)
	}
	if g.RedeemedBy != "result-1" || g.RecipientEmail != "friend@x.hu" {
		t.Errorf("redemption record = %s/%s", g.RedeemedBy, g.RecipientEmail)
	}
	if g.RedeemedAt == nil {
		t.Error("missing redeemed_at")
	}

	// Second redemption must fail.
	_, err = svc.Redeem(ctx, Redemption{Code: "GIFT-ABC123", ResultID: "result-2", Email: "x@x.hu"})
	if !errors.Is(err, ErrNotRedeemable) {
		t.Errorf("double redeem error = %v, want ErrNotRedeemable", err)
	}
}

func TestRedeemRejectsBadInput(t *testing.T) {
	repo := storage.NewMemoryGiftRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Redeem(ctx, Redemption{Code: "CARD-123", ResultID: "r", Email: "x@x.hu"})
	if !errors.Is(err, ErrNotRedeemable) {
		t.Errorf("bad prefix error = %v", err)
	}

	_, err = svc.Redeem(ctx, Redemption{Code: "GIFT-123", ResultID: "", Email: ""})
	if !errors.Is(err, ErrNotRedeemable) {
		t.Errorf("missing fields error = %v", err)
	}

	_, err = svc.Redeem(ctx, Redemption{Code: "GIFT-UNKNOWN", ResultID: "r", Email: "x@x.hu"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown code error = %v, want ErrNotFound", err)
	}
}
