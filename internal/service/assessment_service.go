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

// AssessmentService manages assessment configurations through their
// publication lifecycle: DRAFT -> PUBLISHED -> ARCHIVED. Drafts are the
// only editable state; publication freezes the configuration that sessions
// will run against.
type AssessmentService struct {
	assessments *repository.AssessmentRepository
	questions   *repository.QuestionRepository
	sessions    *repository.SessionRepository
	log         zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	assessments *repository.AssessmentRepository,
	questions *repository.QuestionRepository,
	sessions *repository.SessionRepository,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		questions:   questions,
		sessions:    sessions,
		log:         log.With().Str("component", "assessment_service").Logger(),
	}
}

// getOwned loads an assessment and verifies ownership.
func (s *AssessmentService) getOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Assessment, error) {
	a, err := s.assessments.GetByID(ctx, id)
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

// Create inserts a new draft assessment against one of the owner's pools.
func (s *AssessmentService) Create(ctx context.Context, ownerID int, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	pool, err := s.questions.GetPool(ctx, req.PoolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pool.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	a := &model.Assessment{
		OwnerID:          ownerID,
		PoolID:           req.PoolID,
		Title:            req.Title,
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassScore:        req.PassScore,
		QuestionCount:    req.QuestionCount,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleOptions:   req.ShuffleOptions,
		MaxAttempts:      req.MaxAttempts,
		CooldownMinutes:  req.CooldownMinutes,
		AllowReview:      req.AllowReview,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		AccessCode:       req.AccessCode,
		Status:           model.AssessmentStatusDraft,
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns one of the owner's assessments.
func (s *AssessmentService) Get(ctx context.Context, id uuid.UUID, ownerID int) (*model.Assessment, error) {
	return s.getOwned(ctx, id, ownerID)
}

// List returns a page of the owner's assessments, newest first.
func (s *AssessmentService) List(ctx context.Context, ownerID, page, perPage int) ([]model.Assessment, int64, error) {
	return s.assessments.ListByOwner(ctx, ownerID, page, perPage)
}

// Update edits a draft. Published and archived assessments are immutable so
// that the configuration every session ran against stays reconstructible.
func (s *AssessmentService) Update(ctx context.Context, id uuid.UUID, ownerID int, req *model.UpdateAssessmentRequest) (*model.Assessment, error) {
	a, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssessmentStatusDraft {
		return nil, ErrAssessmentNotDraft
	}

	if req.Title != "" {
		a.Title = req.Title
	}
	if req.PoolID != nil {
		pool, err := s.questions.GetPool(ctx, *req.PoolID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if pool.OwnerID != ownerID {
			return nil, ErrNotOwner
		}
		a.PoolID = *req.PoolID
	}
	if req.TimeLimitMinutes != nil {
		a.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.PassScore != nil {
		a.PassScore = *req.PassScore
	}
	if req.QuestionCount != nil {
		a.QuestionCount = *req.QuestionCount
	}
	if req.ShuffleQuestions != nil {
		a.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShuffleOptions != nil {
		a.ShuffleOptions = *req.ShuffleOptions
	}
	if req.MaxAttempts != nil {
		a.MaxAttempts = req.MaxAttempts
	}
	if req.CooldownMinutes != nil {
		a.CooldownMinutes = req.CooldownMinutes
	}
	if req.AllowReview != nil {
		a.AllowReview = *req.AllowReview
	}
	if req.StartsAt != nil {
		a.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		a.EndsAt = req.EndsAt
	}
	if req.AccessCode != nil {
		a.AccessCode = req.AccessCode
	}

	if err := s.assessments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Publish moves a draft to PUBLISHED after verifying the pool can actually
// fill the configured question count. The transition is conditional, so two
// concurrent publishes succeed exactly once.
func (s *AssessmentService) Publish(ctx context.Context, id uuid.UUID, ownerID int) (*model.Assessment, error) {
	a, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssessmentStatusDraft {
		return nil, ErrAssessmentNotDraft
	}

	poolSize, err := s.questions.CountByPool(ctx, a.PoolID)
	if err != nil {
		return nil, err
	}
	if poolSize < a.QuestionCount {
		return nil, ErrInsufficientPool
	}

	ok, err := s.assessments.SetStatus(ctx, id, model.AssessmentStatusDraft, model.AssessmentStatusPublished)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssessmentNotDraft
	}

	s.log.Info().Str("assessment_id", id.String()).Msg("assessment published")
	return s.assessments.GetByID(ctx, id)
}

// Archive closes a published assessment to new sessions. Already-running
// sessions keep their frozen configuration and finish normally.
func (s *AssessmentService) Archive(ctx context.Context, id uuid.UUID, ownerID int) (*model.Assessment, error) {
	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}

	ok, err := s.assessments.SetStatus(ctx, id, model.AssessmentStatusPublished, model.AssessmentStatusArchived)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssessmentNotLive
	}

	s.log.Info().Str("assessment_id", id.String()).Msg("assessment archived")
	return s.assessments.GetByID(ctx, id)
}

// Delete removes a draft that never went live.
func (s *AssessmentService) Delete(ctx context.Context, id uuid.UUID, ownerID int) error {
	a, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if a.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}
	return s.assessments.Delete(ctx, id)
}

// Results returns a page of session outcomes for one of the owner's
// assessments, joined with candidate names.
func (s *AssessmentService) Results(ctx context.Context, id uuid.UUID, ownerID, page, perPage int) ([]repository.SessionResultRow, int64, error) {
	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return nil, 0, err
	}
	return s.sessions.ListByAssessment(ctx, id, page, perPage)
}

// VerifySessionAccess checks that a creator may inspect a session: the
// session must belong to an assessment they own. Returns the session.
func (s *AssessmentService) VerifySessionAccess(ctx context.Context, sessionID uuid.UUID, ownerID int) (*model.AssessmentSession, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.getOwned(ctx, sess.AssessmentID, ownerID); err != nil {
		return nil, err
	}
	return sess, nil
}
