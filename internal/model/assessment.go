package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates the publication states of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "DRAFT"
	AssessmentStatusPublished AssessmentStatus = "PUBLISHED"
	AssessmentStatusArchived  AssessmentStatus = "ARCHIVED"
)

// Assessment is a timed, scored multiple-choice exam configuration.
// Once published it is immutable; sessions may only be created against a
// published assessment inside its schedule window.
type Assessment struct {
	ID               uuid.UUID        `json:"id"`
	OwnerID          int              `json:"owner_id"`
	PoolID           uuid.UUID        `json:"pool_id"`
	Title            string           `json:"title"`
	TimeLimitMinutes int              `json:"time_limit_minutes"`
	PassScore        int              `json:"pass_score"`
	QuestionCount    int              `json:"question_count"`
	ShuffleQuestions bool             `json:"shuffle_questions"`
	ShuffleOptions   bool             `json:"shuffle_options"`
	MaxAttempts      *int             `json:"max_attempts,omitempty"`
	CooldownMinutes  *int             `json:"cooldown_minutes,omitempty"`
	AllowReview      bool             `json:"allow_review"`
	StartsAt         *time.Time       `json:"starts_at,omitempty"`
	EndsAt           *time.Time       `json:"ends_at,omitempty"`
	AccessCode       *string          `json:"-"`
	Status           AssessmentStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// HasAccessCode reports whether joining this assessment requires a code.
func (a *Assessment) HasAccessCode() bool {
	return a.AccessCode != nil && *a.AccessCode != ""
}

// CreateAssessmentRequest is the payload for creating a draft assessment.
type CreateAssessmentRequest struct {
	Title            string     `json:"title" binding:"required,min=3,max=255"`
	PoolID           uuid.UUID  `json:"pool_id" binding:"required"`
	TimeLimitMinutes int        `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	PassScore        int        `json:"pass_score" binding:"min=0,max=100"`
	QuestionCount    int        `json:"question_count" binding:"required,min=1"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShuffleOptions   bool       `json:"shuffle_options"`
	MaxAttempts      *int       `json:"max_attempts" binding:"omitempty,min=1"`
	CooldownMinutes  *int       `json:"cooldown_minutes" binding:"omitempty,min=0"`
	AllowReview      bool       `json:"allow_review"`
	StartsAt         *time.Time `json:"starts_at" binding:"omitempty"`
	EndsAt           *time.Time `json:"ends_at" binding:"omitempty,gtfield=StartsAt"`
	AccessCode       *string    `json:"access_code" binding:"omitempty,min=4,max=64"`
}

// UpdateAssessmentRequest is the payload for editing a draft assessment.
// All fields are optional; only drafts accept edits.
type UpdateAssessmentRequest struct {
	Title            string     `json:"title" binding:"omitempty,min=3,max=255"`
	PoolID           *uuid.UUID `json:"pool_id" binding:"omitempty"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	PassScore        *int       `json:"pass_score" binding:"omitempty,min=0,max=100"`
	QuestionCount    *int       `json:"question_count" binding:"omitempty,min=1"`
	ShuffleQuestions *bool      `json:"shuffle_questions" binding:"omitempty"`
	ShuffleOptions   *bool      `json:"shuffle_options" binding:"omitempty"`
	MaxAttempts      *int       `json:"max_attempts" binding:"omitempty,min=1"`
	CooldownMinutes  *int       `json:"cooldown_minutes" binding:"omitempty,min=0"`
	AllowReview      *bool      `json:"allow_review" binding:"omitempty"`
	StartsAt         *time.Time `json:"starts_at" binding:"omitempty"`
	EndsAt           *time.Time `json:"ends_at" binding:"omitempty"`
	AccessCode       *string    `json:"access_code" binding:"omitempty,min=4,max=64"`
}
