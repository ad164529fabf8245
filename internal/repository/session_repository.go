package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/assess-backend/internal/model"
)

const sessionColumns = `id, assessment_id, candidate_id, started_at, completed_at,
	time_remaining_seconds, score, passed, question_order, status, tab_switch_count, tab_switch_log`

// SessionResultRow combines candidate data with session outcome for
// creator-facing result listings.
type SessionResultRow struct {
	SessionID     uuid.UUID           `json:"session_id"`
	CandidateID   int                 `json:"candidate_id"`
	CandidateName string              `json:"candidate_name"`
	Status        model.SessionStatus `json:"status"`
	Score         *int                `json:"score"`
	Passed        *bool               `json:"passed"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
}

// OverdueSession is an in-progress session whose time limit has elapsed,
// joined with the assessment fields needed to finalize it.
type OverdueSession struct {
	SessionID uuid.UUID
	PassScore int
}

// SessionRepository handles assessment session data access. All terminal
// transitions are conditional single UPDATEs so that concurrent callers can
// never finalize the same session twice.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row interface{ Scan(...any) error }) (*model.AssessmentSession, error) {
	s := &model.AssessmentSession{}
	var orderRaw, logRaw []byte
	err := row.Scan(
		&s.ID, &s.AssessmentID, &s.CandidateID, &s.StartedAt, &s.CompletedAt,
		&s.TimeRemainingSeconds, &s.Score, &s.Passed, &orderRaw, &s.Status,
		&s.TabSwitchCount, &logRaw,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(orderRaw, &s.QuestionOrder); err != nil {
		return nil, fmt.Errorf("decode question order: %w", err)
	}
	if err := json.Unmarshal(logRaw, &s.TabSwitchLog); err != nil {
		return nil, fmt.Errorf("decode tab switch log: %w", err)
	}
	return s, nil
}

// GetByID retrieves a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM assessment_sessions WHERE id = $1`, id))
}

// GetInProgress retrieves the candidate's in-progress session for an
// assessment, if any. The partial unique index guarantees at most one.
func (r *SessionRepository) GetInProgress(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*model.AssessmentSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM assessment_sessions
		 WHERE assessment_id = $1 AND candidate_id = $2 AND status = $3`,
		assessmentID, candidateID, model.SessionStatusInProgress))
}

// ListByCandidate retrieves all of a candidate's sessions for one
// assessment, oldest first. This is the attempt history the governor reads.
func (r *SessionRepository) ListByCandidate(ctx context.Context, assessmentID uuid.UUID, candidateID int) ([]model.AssessmentSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM assessment_sessions
		 WHERE assessment_id = $1 AND candidate_id = $2
		 ORDER BY started_at ASC`,
		assessmentID, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AssessmentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListAllByCandidate retrieves every session of a candidate across all
// assessments, oldest first, for the lobby overlay.
func (r *SessionRepository) ListAllByCandidate(ctx context.Context, candidateID int) ([]model.AssessmentSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM assessment_sessions
		 WHERE candidate_id = $1
		 ORDER BY started_at ASC`,
		candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AssessmentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Create inserts the session together with one empty answer row per question
// in the frozen order, atomically. A concurrent start for the same
// (assessment, candidate) hits the partial unique index; the insert then
// returns pgx.ErrNoRows and the caller resolves to the existing session.
func (r *SessionRepository) Create(ctx context.Context, s *model.AssessmentSession) error {
	orderRaw, err := json.Marshal(s.QuestionOrder)
	if err != nil {
		return fmt.Errorf("encode question order: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO assessment_sessions
		   (assessment_id, candidate_id, time_remaining_seconds, question_order, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (assessment_id, candidate_id) WHERE status = 'IN_PROGRESS' DO NOTHING
		 RETURNING id, started_at`,
		s.AssessmentID, s.CandidateID, s.TimeRemainingSeconds, orderRaw, model.SessionStatusInProgress,
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return err // pgx.ErrNoRows signals a concurrent start
	}

	answerRows := make([][]interface{}, 0, len(s.QuestionOrder))
	for _, qid := range s.QuestionOrder {
		answerRows = append(answerRows, []interface{}{s.ID, qid})
	}
	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"assessment_answers"},
		[]string{"session_id", "question_id"},
		pgx.CopyFromRows(answerRows),
	); err != nil {
		return fmt.Errorf("create answer rows: %w", err)
	}

	return tx.Commit(ctx)
}

// Finalize performs the atomic terminal transition. It succeeds only while
// the session is still in progress; a lost race returns false and changes
// nothing.
func (r *SessionRepository) Finalize(ctx context.Context, id uuid.UUID, status model.SessionStatus, score int, passed bool, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_sessions
		 SET status = $2, completed_at = $3, score = $4, passed = $5, time_remaining_seconds = 0
		 WHERE id = $1 AND status = $6`,
		id, status, at, score, passed, model.SessionStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyTimeSnapshot lowers the stored remaining-time snapshot. LEAST keeps
// the value monotonically non-increasing regardless of request ordering.
func (r *SessionRepository) ApplyTimeSnapshot(ctx context.Context, id uuid.UUID, seconds int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessment_sessions
		 SET time_remaining_seconds = LEAST(COALESCE(time_remaining_seconds, $2), $2)
		 WHERE id = $1 AND status = $3`,
		id, seconds, model.SessionStatusInProgress,
	)
	return err
}

// AppendTabSwitch appends one event to the proctoring log and increments
// the counter in the same UPDATE, conditionally on the session being in
// progress. Returns the new count and false when the session was not active.
func (r *SessionRepository) AppendTabSwitch(ctx context.Context, id uuid.UUID, ev model.TabSwitchEvent) (int, bool, error) {
	evRaw, err := json.Marshal(ev)
	if err != nil {
		return 0, false, fmt.Errorf("encode tab switch event: %w", err)
	}

	var count int
	err = r.pool.QueryRow(ctx,
		`UPDATE assessment_sessions
		 SET tab_switch_count = tab_switch_count + 1,
		     tab_switch_log = tab_switch_log || $2::jsonb
		 WHERE id = $1 AND status = $3
		 RETURNING tab_switch_count`,
		id, evRaw, model.SessionStatusInProgress,
	).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

// ListOverdue returns in-progress sessions whose time limit has elapsed.
// The boundary is exclusive: a session exactly at its deadline is not yet
// overdue, matching the expiry check on the candidate path.
func (r *SessionRepository) ListOverdue(ctx context.Context, now time.Time) ([]OverdueSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, a.pass_score
		 FROM assessment_sessions s
		 JOIN assessments a ON s.assessment_id = a.id
		 WHERE s.status = $1
		   AND s.started_at + make_interval(mins => a.time_limit_minutes) < $2`,
		model.SessionStatusInProgress, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []OverdueSession
	for rows.Next() {
		var o OverdueSession
		if err := rows.Scan(&o.SessionID, &o.PassScore); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

// ListByAssessment retrieves paginated session results for one assessment,
// joined with candidate names.
func (r *SessionRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID, page, perPage int) ([]SessionResultRow, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_sessions WHERE assessment_id = $1`, assessmentID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.candidate_id, u.name, s.status, s.score, s.passed, s.started_at, s.completed_at
		 FROM assessment_sessions s
		 JOIN users u ON s.candidate_id = u.id
		 WHERE s.assessment_id = $1
		 ORDER BY s.started_at DESC
		 LIMIT $2 OFFSET $3`,
		assessmentID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResultRow
	for rows.Next() {
		var row SessionResultRow
		if err := rows.Scan(
			&row.SessionID, &row.CandidateID, &row.CandidateName,
			&row.Status, &row.Score, &row.Passed, &row.StartedAt, &row.CompletedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}

// ListFinalizedByAssessment retrieves every finalized session of an
// assessment for analytics, oldest first.
func (r *SessionRepository) ListFinalizedByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.AssessmentSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM assessment_sessions
		 WHERE assessment_id = $1 AND status IN ($2, $3) AND score IS NOT NULL
		 ORDER BY started_at ASC`,
		assessmentID, model.SessionStatusCompleted, model.SessionStatusTimedOut,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AssessmentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CountByAssessment returns the number of sessions ever started.
func (r *SessionRepository) CountByAssessment(ctx context.Context, assessmentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_sessions WHERE assessment_id = $1`, assessmentID,
	).Scan(&count)
	return count, err
}

// CohortScores returns the scores of all finalized sessions of an
// assessment, for percentile computation.
func (r *SessionRepository) CohortScores(ctx context.Context, assessmentID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT score
		 FROM assessment_sessions
		 WHERE assessment_id = $1 AND status IN ($2, $3) AND score IS NOT NULL`,
		assessmentID, model.SessionStatusCompleted, model.SessionStatusTimedOut,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// DeleteByAssessment is the administrative reset: a destructive bulk delete
// of an assessment's sessions and their answers.
func (r *SessionRepository) DeleteByAssessment(ctx context.Context, assessmentID uuid.UUID) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM assessment_answers
		 WHERE session_id IN (SELECT id FROM assessment_sessions WHERE assessment_id = $1)`,
		assessmentID,
	); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM assessment_sessions WHERE assessment_id = $1`, assessmentID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), tx.Commit(ctx)
}
