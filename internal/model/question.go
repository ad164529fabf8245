package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionPool groups questions that assessments draw from.
type QuestionPool struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Question is a single multiple-choice question. CorrectIndex points into
// the Options array.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	PoolID       uuid.UUID       `json:"pool_id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	CorrectIndex int             `json:"correct_index"`
	Position     int             `json:"position"`
}

// QuestionForCandidate is a question stripped of its correct index,
// safe to send to a candidate taking an assessment.
type QuestionForCandidate struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
}

// CreatePoolRequest is the payload for creating a question pool.
type CreatePoolRequest struct {
	Title string `json:"title" binding:"required,min=3,max=255"`
}

// AddQuestionRequest is the payload for adding a question to a pool.
type AddQuestionRequest struct {
	QuestionText string          `json:"question_text" binding:"required,min=1,max=2000"`
	Options      json.RawMessage `json:"options" binding:"required"`
	CorrectIndex *int            `json:"correct_index" binding:"required,min=0"`
	Position     int             `json:"position" binding:"min=0"`
}
