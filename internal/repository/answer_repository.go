package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/assess-backend/internal/model"
)

// CohortAnswerRow is one finalized (session, question) answer used by the
// analytics engine. IsCorrect is nil when the question was never answered.
type CohortAnswerRow struct {
	SessionID  uuid.UUID
	QuestionID uuid.UUID
	IsCorrect  *bool
}

// AnswerRepository handles assessment answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ListBySession retrieves all answer rows of one session in question order.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AssessmentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_id, selected_index, is_correct, answered_at, time_spent_seconds
		 FROM assessment_answers
		 WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AssessmentAnswer
	for rows.Next() {
		var a model.AssessmentAnswer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.SelectedIndex, &a.IsCorrect, &a.AnsweredAt, &a.TimeSpentSeconds); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Record writes a single answer in one atomic UPDATE. The row only exists
// for questions in the session's frozen order, and the EXISTS guard rejects
// writes after the session left IN_PROGRESS — a concurrent resubmission can
// therefore never leave is_correct inconsistent with selected_index.
// Returns false when no row matched.
func (r *AnswerRepository) Record(ctx context.Context, sessionID, questionID uuid.UUID, selectedIndex int, isCorrect bool, answeredAt time.Time, timeSpentSeconds *int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_answers
		 SET selected_index = $3, is_correct = $4, answered_at = $5,
		     time_spent_seconds = COALESCE($6, time_spent_seconds)
		 WHERE session_id = $1 AND question_id = $2
		   AND EXISTS (
		     SELECT 1 FROM assessment_sessions
		     WHERE id = $1 AND status = $7
		   )`,
		sessionID, questionID, selectedIndex, isCorrect, answeredAt, timeSpentSeconds,
		model.SessionStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListForFinalized retrieves the answer rows of every finalized session of
// an assessment, for per-question analytics.
func (r *AnswerRepository) ListForFinalized(ctx context.Context, assessmentID uuid.UUID) ([]CohortAnswerRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.session_id, a.question_id, a.is_correct
		 FROM assessment_answers a
		 JOIN assessment_sessions s ON a.session_id = s.id
		 WHERE s.assessment_id = $1 AND s.status IN ($2, $3) AND s.score IS NOT NULL`,
		assessmentID, model.SessionStatusCompleted, model.SessionStatusTimedOut,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CohortAnswerRow
	for rows.Next() {
		var row CohortAnswerRow
		if err := rows.Scan(&row.SessionID, &row.QuestionID, &row.IsCorrect); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
