package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// PostgresSessionRepo implements SessionRepo using PostgreSQL.
type PostgresSessionRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepo creates a new PostgreSQL-backed session repo.
func NewPostgresSessionRepo(pool *pgxpool.Pool) *PostgresSessionRepo {
	return &PostgresSessionRepo{pool: pool}
}

// Upsert stores or updates a quiz session keyed by its id.
func (r *PostgresSessionRepo) Upsert(ctx context.Context, s *models.QuizSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (id, session_token, email, current_question_index, status, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			current_question_index = EXCLUDED.current_question_index,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at
	`, s.ID, s.SessionToken, nullString(s.Email), s.CurrentQuestion, s.Status, s.StartedAt, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert quiz session: %w", err)
	}
	return nil
}

// CountActiveSince returns the number of active sessions started at or
// after since.
func (r *PostgresSessionRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM quiz_sessions WHERE status = $1 AND started_at >= $2
	`, models.SessionActive, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return n, nil
}

// CountByStatus returns session counts grouped by status.
func (r *PostgresSessionRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM quiz_sessions GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListByEmail returns all sessions for an email, newest first.
func (r *PostgresSessionRepo) ListByEmail(ctx context.Context, email string) ([]*models.QuizSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_token, email, current_question_index, status, started_at, completed_at
		FROM quiz_sessions WHERE email = $1 ORDER BY started_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by email: %w", err)
	}
	defer rows.Close()

	var sessions []*models.QuizSession
	for rows.Next() {
		var s models.QuizSession
		var sessEmail *string
		if err := rows.Scan(&s.ID, &s.SessionToken, &sessEmail, &s.CurrentQuestion,
			&s.Status, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		if sessEmail != nil {
			s.Email = *sessEmail
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
