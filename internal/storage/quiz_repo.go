package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// PostgresQuizResultRepo implements QuizResultRepo using PostgreSQL.
type PostgresQuizResultRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresQuizResultRepo creates a new PostgreSQL-backed quiz result repo.
func NewPostgresQuizResultRepo(pool *pgxpool.Pool) *PostgresQuizResultRepo {
	return &PostgresQuizResultRepo{pool: pool}
}

const quizResultColumns = "id, name, email, age, answers, chakra_scores, created_at"

// Insert stores a completed quiz.
func (r *PostgresQuizResultRepo) Insert(ctx context.Context, q *models.QuizResult) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("invalid quiz result: %w", err)
	}

	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	scores, err := json.Marshal(q.ChakraScores)
	if err != nil {
		return fmt.Errorf("failed to encode chakra scores: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quiz_results (id, name, email, age, answers, chakra_scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, q.ID, q.Name, q.Email, q.Age, answers, scores, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quiz result: %w", err)
	}
	return nil
}

// GetByID retrieves one quiz result, or nil when it does not exist.
func (r *PostgresQuizResultRepo) GetByID(ctx context.Context, id string) (*models.QuizResult, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+quizResultColumns+` FROM quiz_results WHERE id = $1
	`, id)

	q, err := scanQuizResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz result: %w", err)
	}
	return q, nil
}

// CountAll returns the total number of completed quizzes.
func (r *PostgresQuizResultRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quiz_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count quiz results: %w", err)
	}
	return n, nil
}

// CountSince returns the number of quizzes completed at or after since.
func (r *PostgresQuizResultRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM quiz_results WHERE created_at >= $1
	`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count quiz results: %w", err)
	}
	return n, nil
}

// ListSince returns quizzes completed at or after since.
func (r *PostgresQuizResultRepo) ListSince(ctx context.Context, since time.Time) ([]*models.QuizResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quizResultColumns+` FROM quiz_results
		WHERE created_at >= $1 ORDER BY created_at
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	defer rows.Close()

	return collectQuizResults(rows)
}

// ListRecent returns the newest quiz results.
func (r *PostgresQuizResultRepo) ListRecent(ctx context.Context, limit int) ([]*models.QuizResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quizResultColumns+` FROM quiz_results
		ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent quiz results: %w", err)
	}
	defer rows.Close()

	return collectQuizResults(rows)
}

// ListEmails returns the email of every quiz result, duplicates included.
func (r *PostgresQuizResultRepo) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM quiz_results`)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
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

// ListAges returns every non-null respondent age.
func (r *PostgresQuizResultRepo) ListAges(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT age FROM quiz_results WHERE age IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ages: %w", err)
	}
	defer rows.Close()

	var ages []int
	for rows.Next() {
		var a int
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		ages = append(ages, a)
	}
	return ages, rows.Err()
}

// Search finds quiz results whose name or email contains query,
// newest first.
func (r *PostgresQuizResultRepo) Search(ctx context.Context, query string, limit int) ([]*models.QuizResult, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+quizResultColumns+` FROM quiz_results
		WHERE name ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search quiz results: %w", err)
	}
	defer rows.Close()

	return collectQuizResults(rows)
}

// quizSortColumns whitelists the sortable columns of the users list.
var quizSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"age":        "age",
}

// List returns a filtered, sorted page of quiz results plus the total
// row count for the filter.
func (r *PostgresQuizResultRepo) List(ctx context.Context, f UserFilter) ([]*models.QuizResult, int64, error) {
	var where []string
	var args []interface{}

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quiz_results`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count quiz results: %w", err)
	}

	sortCol, ok := quizSortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM quiz_results%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		quizResultColumns, clause, sortCol, dir, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quiz results: %w", err)
	}
	defer rows.Close()

	results, err := collectQuizResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuizResult(row rowScanner) (*models.QuizResult, error) {
	var q models.QuizResult
	var answers, scores []byte

	if err := row.Scan(&q.ID, &q.Name, &q.Email, &q.Age, &answers, &scores, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &q.Answers); err != nil {
		return nil, fmt.Errorf("malformed answers for quiz result %s: %w", q.ID, err)
	}
	if err := json.Unmarshal(scores, &q.ChakraScores); err != nil {
		return nil, fmt.Errorf("malformed chakra scores for quiz result %s: %w", q.ID, err)
	}
	return &q, nil
}

func collectQuizResults(rows pgx.Rows) ([]*models.QuizResult, error) {
	var results []*models.QuizResult
	for rows.Next() {
		q, err := scanQuizResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}
