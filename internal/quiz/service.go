package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// Service handles quiz submissions and result reads.
type Service struct {
	results storage.QuizResultRepo
	logger  *zap.Logger
}

// NewService creates a quiz service.
func NewService(results storage.QuizResultRepo, logger *zap.Logger) *Service {
	return &Service{results: results, logger: logger}
}

// Submission is a completed quiz as posted by the funnel frontend.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Age     *int   `json:"age,omitempty"`
	Answers []int  `json:"answers"`
}

// SubmissionResult is returned to the frontend after a successful save.
type SubmissionResult struct {
	ID           string         `json:"id"`
	ChakraScores map[string]int `json:"chakraScores"`
	PrimaryBlock string         `json:"primaryBlock"`
	Wellness     int            `json:"wellnessPercent"`
}

// Submit validates a submission, scores it, and persists the result.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	scores, err := Score(sub.Answers)
	if err != nil {
		return nil, err
	}

	result := &models.QuizResult{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(sub.Name),
		Email:        strings.ToLower(strings.TrimSpace(sub.Email)),
		Age:          sub.Age,
		Answers:      sub.Answers,
		ChakraScores: scores,
		CreatedAt:    time.Now().UTC(),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	if err := s.results.Insert(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save quiz result: %w", err)
	}

	s.logger.Info("quiz result saved",
		zap.String("result_id", result.ID),
		zap.String("primary_block", PrimaryBlock(scores)))

	return &SubmissionResult{
		ID:           result.ID,
		ChakraScores: scores,
		PrimaryBlock: PrimaryBlock(scores),
		Wellness:     WellnessPercent(scores),
	}, nil
}

// GetResult returns one quiz result, or nil when the id is unknown.
func (s *Service) GetResult(ctx context.Context, id string) (*models.QuizResult, error) {
	return s.results.GetByID(ctx, id)
}

// Count returns the total number of completed quizzes.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.results.CountAll(ctx)
}
