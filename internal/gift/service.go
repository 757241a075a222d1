package gift

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/catalog"
	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// Invalidity reasons returned by Validate.
const (
	ReasonNotFound        = "not_found"
	ReasonAlreadyRedeemed = "already_redeemed"
	ReasonExpired         = "expired"
	ReasonCancelled       = "cancelled"
)

// Sentinel errors for the redeem flow.
var (
	ErrNotFound      = errors.New("gift code not found")
	ErrNotRedeemable = errors.New("gift code cannot be redeemed")
)

// Service validates and redeems gift codes.
type Service struct {
	gifts  storage.GiftRepo
	logger *zap.Logger
}

// NewService creates a gift service.
func NewService(gifts storage.GiftRepo, logger *zap.Logger) *Service {
	return &Service{gifts: gifts, logger: logger}
}

// Verdict is the structured validity answer for one gift code.
type Verdict struct {
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	ProductID   string `json:"productId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// Validate checks whether a code can still be redeemed. An active code
// past its expiry is transitioned to expired as a side effect, so the
// stored status catches up with the calendar.
func (s *Service) Validate(ctx context.Context, code string) (*Verdict, error) {
	g, err := s.gifts.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("failed to look up gift code: %w", err)
	}
	if g == nil {
		return &Verdict{Valid: false, Reason: ReasonNotFound}, nil
	}

	switch g.Status {
	case models.GiftRedeemed:
		return &Verdict{Valid: false, Reason: ReasonAlreadyRedeemed}, nil
	case models.GiftCancelled:
		return &Verdict{Valid: false, Reason: ReasonCancelled}, nil
	case models.GiftExpired:
		return &Verdict{Valid: false, Reason: ReasonExpired}, nil
	}

	if time.Now().UTC().After(g.ExpiresAt) {
		if err := s.gifts.UpdateStatus(ctx, g.GiftCode, models.GiftExpired); err != nil {
			return nil, fmt.Errorf("failed to expire gift code: %w", err)
		}
		s.logger.Info("gift code expired on validation", zap.String("gift_code", g.GiftCode))
		return &Verdict{Valid: false, Reason: ReasonExpired}, nil
	}

	return &Verdict{
		Valid:       true,
		ProductID:   g.ProductID,
		ProductName: catalog.Name(g.ProductID),
		BuyerEmail:  g.BuyerEmail,
		ExpiresAt:   g.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// Redemption records who claimed a gift. Creating the recipient's
// checkout session is the payment collaborator's job, not ours.
type Redemption struct {
	Code     string `json:"code"`
	ResultID string `json:"resultId"`
	Email    string `json:"email"`
}

// Redeem marks a gift code redeemed for a recipient. ErrNotFound and
// ErrNotRedeemable separate the client's mistakes from store failures.
func (s *Service) Redeem(ctx context.Context, r Redemption) (*models.GiftPurchase, error) {
	code := strings.TrimSpace(r.Code)
	if !strings.HasPrefix(code, models.GiftCodePrefix) {
		return nil, fmt.Errorf("%w: malformed code", ErrNotRedeemable)
	}
	if r.ResultID == "" || r.Email == "" {
		return nil, fmt.Errorf("%w: result id and email are required", ErrNotRedeemable)
	}

	g, err := s.gifts.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up gift code: %w", err)
	}
	if g == nil {
		return nil, ErrNotFound
	}
	if g.Status != models.GiftActive {
		return nil, fmt.Errorf("%w: status %s", ErrNotRedeemable, g.Status)
	}

	now := time.Now().UTC()
	if now.After(g.ExpiresAt) {
		if err := s.gifts.UpdateStatus(ctx, code, models.GiftExpired); err != nil {
			return nil, fmt.Errorf("failed to expire gift code: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotRedeemable, ReasonExpired)
	}

	if err := s.gifts.MarkRedeemed(ctx, code, r.ResultID, strings.ToLower(strings.TrimSpace(r.Email)), now); err != nil {
		return nil, fmt.Errorf("failed to redeem gift code: %w", err)
	}

	s.logger.Info("gift code redeemed",
		zap.String("gift_code", code),
		zap.String("result_id", r.ResultID))

	g, err = s.gifts.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to reload gift code: %w", err)
	}
	return g, nil
}
