package models

import (
	"errors"
	"fmt"
	"time"
)

// QuizAnswerCount is the fixed length of the answer sequence:
// 7 chakras with 4 questions each.
const QuizAnswerCount = 28

// ChakraCount is the number of chakras scored by the quiz.
const ChakraCount = 7

// QuizResult is one completed quiz. Email uniqueness is not enforced;
// a respondent may appear multiple times.
type QuizResult struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Age          *int           `json:"age,omitempty"`
	Answers      []int          `json:"answers"`
	ChakraScores map[string]int `json:"chakra_scores"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks the row shape before it enters the store.
func (q *QuizResult) Validate() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	if q.Email == "" {
		return errors.New("email is required")
	}
	if q.Age != nil && (*q.Age < 16 || *q.Age > 99) {
		return fmt.Errorf("age %d out of range [16,99]", *q.Age)
	}
	if len(q.Answers) != QuizAnswerCount {
		return fmt.Errorf("expected %d answers, got %d", QuizAnswerCount, len(q.Answers))
	}
	for i, a := range q.Answers {
		if a < 1 || a > 4 {
			return fmt.Errorf("answer at index %d out of range: %d", i, a)
		}
	}
	if len(q.ChakraScores) != ChakraCount {
		return fmt.Errorf("expected %d chakra scores, got %d", ChakraCount, len(q.ChakraScores))
	}
	return nil
}

// Quiz session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

// QuizSession is one quiz attempt, including abandoned ones.
type QuizSession struct {
	ID              string     `json:"id"`
	SessionToken    string     `json:"session_token"`
	Email           string     `json:"email,omitempty"`
	CurrentQuestion int        `json:"current_question_index"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// PageView is one page load, keyed by the visitor's session token.
type PageView struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	SessionToken string    `json:"session_token"`
	CreatedAt    time.Time `json:"created_at"`
}
