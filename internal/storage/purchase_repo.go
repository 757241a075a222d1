package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// PostgresPurchaseRepo implements PurchaseRepo using PostgreSQL.
type PostgresPurchaseRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresPurchaseRepo creates a new PostgreSQL-backed purchase repo.
func NewPostgresPurchaseRepo(pool *pgxpool.Pool) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{pool: pool}
}

const purchaseColumns = "id, result_id, email, product_id, product_name, amount, currency, status, created_at"

// Insert stores a payment attempt.
func (r *PostgresPurchaseRepo) Insert(ctx context.Context, p *models.Purchase) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid purchase: %w", err)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO purchases (id, result_id, email, product_id, product_name, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, nullString(p.ResultID), p.Email, p.ProductID, p.ProductName, p.Amount, p.Currency, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

// UpdateStatus transitions a purchase to a new status.
func (r *PostgresPurchaseRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %s not found", id)
	}
	return nil
}

// ListCompletedSince returns completed purchases created at or after since.
func (r *PostgresPurchaseRepo) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE status = $1 AND created_at >= $2 ORDER BY created_at
	`, models.PurchaseCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

// CountCompletedSince returns the number of completed purchases created
// at or after since.
func (r *PostgresPurchaseRepo) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM purchases WHERE status = $1 AND created_at >= $2
	`, models.PurchaseCompleted, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed purchases: %w", err)
	}
	return n, nil
}

// ListByEmail returns all purchases for an email, newest first.
func (r *PostgresPurchaseRepo) ListByEmail(ctx context.Context, email string) ([]*models.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE email = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases by email: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

// CompletedCountsByEmail returns completed-purchase counts keyed by email.
func (r *PostgresPurchaseRepo) CompletedCountsByEmail(ctx context.Context, emails []string) (map[string]int, error) {
	counts := make(map[string]int, len(emails))
	if len(emails) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT email, COUNT(*) FROM purchases
		WHERE status = $1 AND email = ANY($2)
		GROUP BY email
	`, models.PurchaseCompleted, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases by email: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		var n int
		if err := rows.Scan(&email, &n); err != nil {
			return nil, err
		}
		counts[email] = n
	}
	return counts, rows.Err()
}

// ListCompletedEmails returns the email of every completed purchase,
// duplicates included.
func (r *PostgresPurchaseRepo) ListCompletedEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email FROM purchases WHERE status = $1
	`, models.PurchaseCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchased emails: %w", err)
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

func collectPurchases(rows pgx.Rows) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	for rows.Next() {
		var p models.Purchase
		var resultID *string
		if err := rows.Scan(&p.ID, &resultID, &p.Email, &p.ProductID, &p.ProductName,
			&p.Amount, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		if resultID != nil {
			p.ResultID = *resultID
		}
		purchases = append(purchases, &p)
	}
	return purchases, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
