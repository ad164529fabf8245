package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/assess-backend/internal/model"
)

// QuestionRepository handles question pool and question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ─── Pools ──────────────────────────────────────────────────────────────────

// CreatePool inserts a new question pool.
func (r *QuestionRepository) CreatePool(ctx context.Context, p *model.QuestionPool) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_pools (owner_id, title)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		p.OwnerID, p.Title,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetPool retrieves a pool by identifier.
func (r *QuestionRepository) GetPool(ctx context.Context, id uuid.UUID) (*model.QuestionPool, error) {
	p := &model.QuestionPool{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, created_at, updated_at
		 FROM question_pools
		 WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPoolsByOwner retrieves all pools owned by a user.
func (r *QuestionRepository) ListPoolsByOwner(ctx context.Context, ownerID int) ([]model.QuestionPool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, title, created_at, updated_at
		 FROM question_pools
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.QuestionPool
	for rows.Next() {
		var p model.QuestionPool
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// DeletePool removes a pool and its questions.
func (r *QuestionRepository) DeletePool(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM question_pools WHERE id = $1`, id)
	return err
}

// ─── Questions ──────────────────────────────────────────────────────────────

// AddQuestion inserts a question into a pool.
func (r *QuestionRepository) AddQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (pool_id, question_text, options, correct_index, position)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.PoolID, q.QuestionText, q.Options, q.CorrectIndex, q.Position,
	).Scan(&q.ID)
}

// GetQuestion retrieves a single question, including its correct index.
// Never expose the result to candidates directly.
func (r *QuestionRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, pool_id, question_text, options, correct_index, position
		 FROM questions
		 WHERE id = $1`, id,
	).Scan(&q.ID, &q.PoolID, &q.QuestionText, &q.Options, &q.CorrectIndex, &q.Position)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByPool retrieves all questions of a pool in position order.
func (r *QuestionRepository) ListByPool(ctx context.Context, poolID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pool_id, question_text, options, correct_index, position
		 FROM questions
		 WHERE pool_id = $1
		 ORDER BY position ASC, id ASC`, poolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PoolID, &q.QuestionText, &q.Options, &q.CorrectIndex, &q.Position); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListByIDs retrieves questions by identifier, in no particular order.
// Callers re-order against the session's frozen question order.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pool_id, question_text, options, correct_index, position
		 FROM questions
		 WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PoolID, &q.QuestionText, &q.Options, &q.CorrectIndex, &q.Position); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListIDsByPool retrieves all question ids of a pool in position order.
// Used by the question selector when a session starts.
func (r *QuestionRepository) ListIDsByPool(ctx context.Context, poolID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id
		 FROM questions
		 WHERE pool_id = $1
		 ORDER BY position ASC, id ASC`, poolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByPool returns the number of questions in a pool.
func (r *QuestionRepository) CountByPool(ctx context.Context, poolID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE pool_id = $1`, poolID,
	).Scan(&count)
	return count, err
}

// DeleteQuestion removes a question from a pool.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
