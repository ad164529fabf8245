package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates assessment session states. COMPLETED and
// TIMED_OUT are terminal: no transition exists out of them.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusTimedOut   SessionStatus = "TIMED_OUT"
)

// Terminal reports whether the status permits no further mutation.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusTimedOut
}

// TabSwitchEventType is the proctoring event recorded when the candidate
// leaves the exam tab.
const TabSwitchEventType = "tab_hidden"

// TabSwitchEvent is one entry of the append-only proctoring log.
type TabSwitchEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
}

// AssessmentSession is one candidate's single attempt at an assessment.
// QuestionOrder is frozen at creation; pool changes never alter it.
type AssessmentSession struct {
	ID                   uuid.UUID        `json:"id"`
	AssessmentID         uuid.UUID        `json:"assessment_id"`
	CandidateID          int              `json:"candidate_id"`
	StartedAt            time.Time        `json:"started_at"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	TimeRemainingSeconds *int             `json:"time_remaining_seconds,omitempty"`
	Score                *int             `json:"score,omitempty"`
	Passed               *bool            `json:"passed,omitempty"`
	QuestionOrder        []uuid.UUID      `json:"question_order"`
	Status               SessionStatus    `json:"status"`
	TabSwitchCount       int              `json:"tab_switch_count"`
	TabSwitchLog         []TabSwitchEvent `json:"-"`
}

// HasQuestion reports whether qid is part of this session's frozen order.
func (s *AssessmentSession) HasQuestion(qid uuid.UUID) bool {
	for _, id := range s.QuestionOrder {
		if id == qid {
			return true
		}
	}
	return false
}

// StartSessionRequest is the payload for starting an attempt.
type StartSessionRequest struct {
	AccessCode string `json:"access_code" binding:"omitempty,max=64"`
}

// SubmitAnswerRequest is the payload for answering one question.
// TimeRemainingSeconds is an optional client snapshot used to resume across
// reconnects; the server clamps it so it can never extend the allocation.
type SubmitAnswerRequest struct {
	QuestionID           uuid.UUID `json:"question_id" binding:"required"`
	SelectedIndex        *int      `json:"selected_index" binding:"required,min=0"`
	TimeRemainingSeconds *int      `json:"time_remaining_seconds" binding:"omitempty,min=0"`
	TimeSpentSeconds     *int      `json:"time_spent_seconds" binding:"omitempty,min=0"`
}
