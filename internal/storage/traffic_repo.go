package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// PostgresPageViewRepo implements PageViewRepo using PostgreSQL.
type PostgresPageViewRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresPageViewRepo creates a new PostgreSQL-backed page view repo.
func NewPostgresPageViewRepo(pool *pgxpool.Pool) *PostgresPageViewRepo {
	return &PostgresPageViewRepo{pool: pool}
}

// Insert stores a page load.
func (r *PostgresPageViewRepo) Insert(ctx context.Context, pv *models.PageView) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO page_views (id, path, session_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, pv.ID, pv.Path, pv.SessionToken, pv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert page view: %w", err)
	}
	return nil
}

// CountDistinctSessionsSince returns the number of distinct session
// tokens seen at or after since.
func (r *PostgresPageViewRepo) CountDistinctSessionsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT session_token) FROM page_views WHERE created_at >= $1
	`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count visitors: %w", err)
	}
	return n, nil
}

// ListSince returns page views created at or after since.
func (r *PostgresPageViewRepo) ListSince(ctx context.Context, since time.Time) ([]*models.PageView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, path, session_token, created_at FROM page_views
		WHERE created_at >= $1 ORDER BY created_at
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list page views: %w", err)
	}
	defer rows.Close()

	var views []*models.PageView
	for rows.Next() {
		var pv models.PageView
		if err := rows.Scan(&pv.ID, &pv.Path, &pv.SessionToken, &pv.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, &pv)
	}
	return views, rows.Err()
}

// PostgresEventRepo implements EventRepo using PostgreSQL.
type PostgresEventRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepo creates a new PostgreSQL-backed event repo.
func NewPostgresEventRepo(pool *pgxpool.Pool) *PostgresEventRepo {
	return &PostgresEventRepo{pool: pool}
}

// Insert stores a funnel event.
func (r *PostgresEventRepo) Insert(ctx context.Context, e *models.AnalyticsEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid analytics event: %w", err)
	}

	var data []byte
	if e.EventData != nil {
		var err error
		data, err = json.Marshal(e.EventData)
		if err != nil {
			return fmt.Errorf("failed to encode event data: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO analytics_events (id, event_name, session_token, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.EventName, e.SessionToken, data, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// CountDistinctSessions returns the number of distinct session tokens
// that produced eventName at or after since.
func (r *PostgresEventRepo) CountDistinctSessions(ctx context.Context, eventName string, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT session_token) FROM analytics_events
		WHERE event_name = $1 AND created_at >= $2
	`, eventName, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count event sessions: %w", err)
	}
	return n, nil
}

// ListByName returns events with eventName created at or after since.
func (r *PostgresEventRepo) ListByName(ctx context.Context, eventName string, since time.Time) ([]*models.AnalyticsEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_name, session_token, event_data, created_at FROM analytics_events
		WHERE event_name = $1 AND created_at >= $2 ORDER BY created_at
	`, eventName, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	defer rows.Close()

	var events []*models.AnalyticsEvent
	for rows.Next() {
		var e models.AnalyticsEvent
		var data []byte
		if err := rows.Scan(&e.ID, &e.EventName, &e.SessionToken, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.EventData); err != nil {
				return nil, fmt.Errorf("malformed event data for event %s: %w", e.ID, err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
