package models

import "time"

// Gift code statuses.
const (
	GiftActive    = "active"
	GiftRedeemed  = "redeemed"
	GiftExpired   = "expired"
	GiftCancelled = "cancelled"
)

// GiftCodePrefix is carried by every issued gift code.
const GiftCodePrefix = "GIFT-"

// GiftPurchase is a prepaid product bought for someone else, redeemed
// later with the gift code.
type GiftPurchase struct {
	ID             string     `json:"id"`
	GiftCode       string     `json:"gift_code"`
	ProductID      string     `json:"product_id"`
	BuyerEmail     string     `json:"buyer_email"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Status         string     `json:"status"`
	ExpiresAt      time.Time  `json:"expires_at"`
	RedeemedAt     *time.Time `json:"redeemed_at,omitempty"`
	RedeemedBy     string     `json:"redeemed_by,omitempty"` // quiz result id
	CreatedAt      time.Time  `json:"created_at"`
}
