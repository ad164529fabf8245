package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/assess-backend/internal/model"
)

const assessmentColumns = `id, owner_id, pool_id, title, time_limit_minutes, pass_score,
	question_count, shuffle_questions, shuffle_options, max_attempts, cooldown_minutes,
	allow_review, starts_at, ends_at, access_code, status, created_at, updated_at`

// AssessmentRepository handles assessment configuration data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

func scanAssessment(row interface{ Scan(...any) error }) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.PoolID, &a.Title, &a.TimeLimitMinutes, &a.PassScore,
		&a.QuestionCount, &a.ShuffleQuestions, &a.ShuffleOptions, &a.MaxAttempts,
		&a.CooldownMinutes, &a.AllowReview, &a.StartsAt, &a.EndsAt, &a.AccessCode,
		&a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an assessment by identifier.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
}

// Create inserts a new draft assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (owner_id, pool_id, title, time_limit_minutes, pass_score,
		   question_count, shuffle_questions, shuffle_options, max_attempts, cooldown_minutes,
		   allow_review, starts_at, ends_at, access_code, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		a.OwnerID, a.PoolID, a.Title, a.TimeLimitMinutes, a.PassScore,
		a.QuestionCount, a.ShuffleQuestions, a.ShuffleOptions, a.MaxAttempts,
		a.CooldownMinutes, a.AllowReview, a.StartsAt, a.EndsAt, a.AccessCode,
		model.AssessmentStatusDraft,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update rewrites the editable fields of a draft assessment.
func (r *AssessmentRepository) Update(ctx context.Context, a *model.Assessment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments
		 SET pool_id = $2, title = $3, time_limit_minutes = $4, pass_score = $5,
		     question_count = $6, shuffle_questions = $7, shuffle_options = $8,
		     max_attempts = $9, cooldown_minutes = $10, allow_review = $11,
		     starts_at = $12, ends_at = $13, access_code = $14, updated_at = $15
		 WHERE id = $1`,
		a.ID, a.PoolID, a.Title, a.TimeLimitMinutes, a.PassScore,
		a.QuestionCount, a.ShuffleQuestions, a.ShuffleOptions,
		a.MaxAttempts, a.CooldownMinutes, a.AllowReview,
		a.StartsAt, a.EndsAt, a.AccessCode, time.Now(),
	)
	return err
}

// SetStatus moves an assessment between publication states, conditionally
// on its current state. Returns false when the precondition did not hold.
func (r *AssessmentRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.AssessmentStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessments
		 SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByOwner retrieves assessments owned by a user, newest first.
func (r *AssessmentRepository) ListByOwner(ctx context.Context, ownerID, page, perPage int) ([]model.Assessment, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, total, rows.Err()
}

// ListPublished retrieves all published assessments for the candidate lobby.
func (r *AssessmentRepository) ListPublished(ctx context.Context) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE status = $1
		 ORDER BY created_at DESC`,
		model.AssessmentStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

// Delete removes a draft assessment.
func (r *AssessmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	return err
}
