package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentAnswer is one (session, question) row. Rows are created empty
// when the session starts, one per question in the frozen order, so a
// question outside the order can never receive an answer.
type AssessmentAnswer struct {
	SessionID        uuid.UUID  `json:"session_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedIndex    *int       `json:"selected_index,omitempty"`
	IsCorrect        *bool      `json:"is_correct,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	TimeSpentSeconds *int       `json:"time_spent_seconds,omitempty"`
}
