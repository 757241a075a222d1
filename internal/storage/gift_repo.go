package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// PostgresGiftRepo implements GiftRepo using PostgreSQL.
type PostgresGiftRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresGiftRepo creates a new PostgreSQL-backed gift repo.
func NewPostgresGiftRepo(pool *pgxpool.Pool) *PostgresGiftRepo {
	return &PostgresGiftRepo{pool: pool}
}

// Insert stores a gift purchase.
func (r *PostgresGiftRepo) Insert(ctx context.Context, g *models.GiftPurchase) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gift_purchases (id, gift_code, product_id, buyer_email, recipient_email, status, expires_at, redeemed_at, redeemed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, g.ID, g.GiftCode, g.ProductID, g.BuyerEmail, nullString(g.RecipientEmail),
		g.Status, g.ExpiresAt, g.RedeemedAt, nullString(g.RedeemedBy), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert gift purchase: %w", err)
	}
	return nil
}

// GetByCode retrieves one gift purchase, or nil when the code is unknown.
func (r *PostgresGiftRepo) GetByCode(ctx context.Context, code string) (*models.GiftPurchase, error) {
	var g models.GiftPurchase
	var recipient, redeemedBy *string

	err := r.pool.QueryRow(ctx, `
		SELECT id, gift_code, product_id, buyer_email, recipient_email, status, expires_at, redeemed_at, redeemed_by, created_at
		FROM gift_purchases WHERE gift_code = $1
	`, code).Scan(&g.ID, &g.GiftCode, &g.ProductID, &g.BuyerEmail, &recipient,
		&g.Status, &g.ExpiresAt, &g.RedeemedAt, &redeemedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift purchase: %w", err)
	}

	if recipient != nil {
		g.RecipientEmail = *recipient
	}
	if redeemedBy != nil {
		g.RedeemedBy = *redeemedBy
	}
	return &g, nil
}

// UpdateStatus transitions a gift code to a new status.
func (r *PostgresGiftRepo) UpdateStatus(ctx context.Context, code, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE gift_purchases SET status = $2 WHERE gift_code = $1
	`, code, status)
	if err != nil {
		return fmt.Errorf("failed to update gift status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gift code %s not found", code)
	}
	return nil
}

// MarkRedeemed records a successful redemption.
func (r *PostgresGiftRepo) MarkRedeemed(ctx context.Context, code, resultID, email string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE gift_purchases
		SET status = $2, redeemed_at = $3, redeemed_by = $4, recipient_email = $5
		WHERE gift_code = $1
	`, code, models.GiftRedeemed, at, resultID, email)
	if err != nil {
		return fmt.Errorf("failed to mark gift redeemed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gift code %s not found", code)
	}
	return nil
}

// PostgresUnsubscribeRepo implements UnsubscribeRepo using PostgreSQL.
type PostgresUnsubscribeRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresUnsubscribeRepo creates a new PostgreSQL-backed unsubscribe repo.
func NewPostgresUnsubscribeRepo(pool *pgxpool.Pool) *PostgresUnsubscribeRepo {
	return &PostgresUnsubscribeRepo{pool: pool}
}

// Add records an opt-out. Adding the same address twice is not an error.
func (r *PostgresUnsubscribeRepo) Add(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO unsubscribes (email, created_at) VALUES ($1, NOW())
		ON CONFLICT (email) DO NOTHING
	`, email)
	if err != nil {
		return fmt.Errorf("failed to record unsubscribe: %w", err)
	}
	return nil
}

// ListAll returns every opted-out address.
func (r *PostgresUnsubscribeRepo) ListAll(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM unsubscribes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsubscribes: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
