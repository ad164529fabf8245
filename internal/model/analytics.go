package model

import "github.com/google/uuid"

// ScoreBucket is one fixed-width band of the score distribution.
type ScoreBucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// AssessmentAnalytics aggregates finalized sessions of one assessment.
type AssessmentAnalytics struct {
	TotalSessions     int           `json:"total_sessions"`
	FinalizedSessions int           `json:"finalized_sessions"`
	CompletedSessions int           `json:"completed_sessions"`
	TimedOutSessions  int           `json:"timed_out_sessions"`
	CompletionRate    float64       `json:"completion_rate"`
	AverageScore      *float64      `json:"average_score"`
	MedianScore       *float64      `json:"median_score"`
	PassRate          *float64      `json:"pass_rate"`
	Distribution      []ScoreBucket `json:"distribution"`
}

// QuestionStats carries per-question difficulty and discrimination.
// DiscriminationIndex is nil when the cohort is too small or a 27% group
// has no answers for the question.
type QuestionStats struct {
	QuestionID          uuid.UUID `json:"question_id"`
	Responses           int       `json:"responses"`
	CorrectResponses    int       `json:"correct_responses"`
	DifficultyIndex     *float64  `json:"difficulty_index"`
	DiscriminationIndex *float64  `json:"discrimination_index"`
}

// TrendPoint is the average score of the Nth attempt across all candidates
// who have an Nth attempt.
type TrendPoint struct {
	AttemptNumber int     `json:"attempt_number"`
	AverageScore  float64 `json:"average_score"`
	Candidates    int     `json:"candidates"`
}

// SessionResult is the candidate-facing outcome of a finalized session.
type SessionResult struct {
	SessionID    uuid.UUID     `json:"session_id"`
	Status       SessionStatus `json:"status"`
	Score        int           `json:"score"`
	Passed       bool          `json:"passed"`
	CorrectCount int           `json:"correct_count"`
	TotalCount   int           `json:"total_count"`
	Percentile   int           `json:"percentile"`
	Rank         int           `json:"rank"`
	CohortSize   int           `json:"cohort_size"`
}
