package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AnalyticsSessionSource reads the finalized-session data the analytics
// engine aggregates.
type AnalyticsSessionSource interface {
	ListFinalizedByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.AssessmentSession, error)
	CountByAssessment(ctx context.Context, assessmentID uuid.UUID) (int, error)
}

// AnalyticsAnswerSource reads the finalized answer rows.
type AnalyticsAnswerSource interface {
	ListForFinalized(ctx context.Context, assessmentID uuid.UUID) ([]repository.CohortAnswerRow, error)
}

// AnalyticsService aggregates finalized sessions of one assessment into
// creator-facing statistics. All heavy lifting happens in the pure
// aggregation functions; this layer loads data and checks ownership.
type AnalyticsService struct {
	sessions    AnalyticsSessionSource
	answers     AnalyticsAnswerSource
	assessments AssessmentStore
	questions   QuestionSource
	log         zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	sessions AnalyticsSessionSource,
	answers AnalyticsAnswerSource,
	assessments AssessmentStore,
	questions QuestionSource,
	log zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		sessions:    sessions,
		answers:     answers,
		assessments: assessments,
		questions:   questions,
		log:         log.With().Str("component", "analytics_service").Logger(),
	}
}

// getOwned loads the assessment and verifies the caller created it.
func (s *AnalyticsService) getOwned(ctx context.Context, assessmentID uuid.UUID, ownerID int) (*model.Assessment, error) {
	a, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return a, nil
}

// Summary returns the assessment-level aggregates: counts, completion rate,
// average, median, pass rate and the score distribution.
func (s *AnalyticsService) Summary(ctx context.Context, assessmentID uuid.UUID, ownerID int) (*model.AssessmentAnalytics, error) {
	if _, err := s.getOwned(ctx, assessmentID, ownerID); err != nil {
		return nil, err
	}

	finalized, err := s.sessions.ListFinalizedByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	totalStarted, err := s.sessions.CountByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	out := &model.AssessmentAnalytics{
		TotalSessions:     totalStarted,
		FinalizedSessions: len(finalized),
	}

	scores := make([]int, 0, len(finalized))
	scoreSum, passedCount := 0, 0
	for _, sess := range finalized {
		switch sess.Status {
		case model.SessionStatusCompleted:
			out.CompletedSessions++
		case model.SessionStatusTimedOut:
			out.TimedOutSessions++
		}
		scores = append(scores, *sess.Score)
		scoreSum += *sess.Score
		if sess.Passed != nil && *sess.Passed {
			passedCount++
		}
	}

	out.CompletionRate = CompletionRate(out.CompletedSessions, totalStarted)
	out.Distribution = ScoreDistribution(scores)
	out.MedianScore = MedianScore(scores)
	if len(scores) > 0 {
		avg := float64(scoreSum) / float64(len(scores))
		out.AverageScore = &avg
		passRate := 100 * float64(passedCount) / float64(len(scores))
		out.PassRate = &passRate
	}

	return out, nil
}

// QuestionStats returns per-question response counts, difficulty (correct
// rate) and discrimination index over the assessment's question pool.
func (s *AnalyticsService) QuestionStats(ctx context.Context, assessmentID uuid.UUID, ownerID int) ([]model.QuestionStats, error) {
	a, err := s.getOwned(ctx, assessmentID, ownerID)
	if err != nil {
		return nil, err
	}

	questionIDs, err := s.questions.ListIDsByPool(ctx, a.PoolID)
	if err != nil {
		return nil, err
	}

	finalized, err := s.sessions.ListFinalizedByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	answerRows, err := s.answers.ListForFinalized(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	answersBySession := make(map[uuid.UUID]map[uuid.UUID]bool, len(finalized))
	responses := make(map[uuid.UUID]int, len(questionIDs))
	correct := make(map[uuid.UUID]int, len(questionIDs))
	for _, row := range answerRows {
		if row.IsCorrect == nil {
			continue
		}
		byQuestion, ok := answersBySession[row.SessionID]
		if !ok {
			byQuestion = make(map[uuid.UUID]bool)
			answersBySession[row.SessionID] = byQuestion
		}
		byQuestion[row.QuestionID] = *row.IsCorrect
		responses[row.QuestionID]++
		if *row.IsCorrect {
			correct[row.QuestionID]++
		}
	}

	cohort := make([]CohortMember, 0, len(finalized))
	for _, sess := range finalized {
		answers := answersBySession[sess.ID]
		if answers == nil {
			answers = map[uuid.UUID]bool{}
		}
		cohort = append(cohort, CohortMember{Score: *sess.Score, Answers: answers})
	}
	discrimination := DiscriminationIndices(cohort, questionIDs)

	stats := make([]model.QuestionStats, 0, len(questionIDs))
	for _, qid := range questionIDs {
		st := model.QuestionStats{
			QuestionID:          qid,
			Responses:           responses[qid],
			CorrectResponses:    correct[qid],
			DiscriminationIndex: discrimination[qid],
		}
		if st.Responses > 0 {
			difficulty := float64(st.CorrectResponses) / float64(st.Responses)
			st.DifficultyIndex = &difficulty
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// Trend returns the average score by attempt number across candidates.
func (s *AnalyticsService) Trend(ctx context.Context, assessmentID uuid.UUID, ownerID int) ([]model.TrendPoint, error) {
	if _, err := s.getOwned(ctx, assessmentID, ownerID); err != nil {
		return nil, err
	}

	finalized, err := s.sessions.ListFinalizedByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	// ListFinalizedByAssessment returns sessions oldest first, which is
	// exactly the chronological ordering attempt numbering needs.
	input := make([]trendSession, 0, len(finalized))
	for _, sess := range finalized {
		input = append(input, trendSession{CandidateID: sess.CandidateID, Score: *sess.Score})
	}
	return ScoreTrend(input), nil
}
