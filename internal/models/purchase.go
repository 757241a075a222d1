package models

import (
	"errors"
	"time"
)

// Purchase statuses. Only completed purchases count toward revenue
// anywhere in the analytics layer.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
	PurchaseRefunded  = "refunded"
)

// Purchase is one payment attempt. A row is created pending at
// checkout-session creation and transitioned to completed by the
// payment webhook.
type Purchase struct {
	ID          string    `json:"id"`
	ResultID    string    `json:"result_id,omitempty"`
	Email       string    `json:"email"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Amount      float64   `json:"amount"` // whole HUF, no minor units
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the row shape before it enters the store.
func (p *Purchase) Validate() error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.ProductID == "" {
		return errors.New("product_id is required")
	}
	if p.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	switch p.Status {
	case PurchasePending, PurchaseCompleted, PurchaseFailed, PurchaseRefunded:
		return nil
	default:
		return errors.New("unknown purchase status: " + p.Status)
	}
}
