package models

import (
	"errors"
	"time"
)

// Event names recorded by the funnel tracker.
const (
	EventPageView        = "page_view"
	EventQuizStart       = "quiz_start"
	EventQuestionAnswer  = "quiz_question_answered"
	EventResultViewed    = "result_viewed"
	EventCheckoutOpened  = "checkout_initiated"
	EventProductSelected = "product_selected"
)

// AnalyticsEvent is one client-side funnel event.
type AnalyticsEvent struct {
	ID           string                 `json:"id"`
	EventName    string                 `json:"event_name"`
	SessionToken string                 `json:"session_token"`
	EventData    map[string]interface{} `json:"event_data,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Validate checks the row shape before it enters the store.
func (e *AnalyticsEvent) Validate() error {
	if e.EventName == "" {
		return errors.New("event_name is required")
	}
	if e.SessionToken == "" {
		return errors.New("session_token is required")
	}
	return nil
}

// QuestionIndex extracts the answered question index from the event
// payload, or 0 when absent. JSON numbers decode as float64.
func (e *AnalyticsEvent) QuestionIndex() int {
	if e.EventData == nil {
		return 0
	}
	switch v := e.EventData["question_index"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
