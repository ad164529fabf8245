package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrInvalidQuestion covers payloads that pass binding but are not a
// coherent multiple-choice question.
var ErrInvalidQuestion = errors.New("question options or correct index invalid")

// QuestionService manages question pools and their questions for creators.
type QuestionService struct {
	questions *repository.QuestionRepository
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// getOwnedPool loads a pool and verifies ownership.
func (s *QuestionService) getOwnedPool(ctx context.Context, poolID uuid.UUID, ownerID int) (*model.QuestionPool, error) {
	pool, err := s.questions.GetPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pool.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return pool, nil
}

// CreatePool creates a new empty pool for the owner.
func (s *QuestionService) CreatePool(ctx context.Context, ownerID int, req *model.CreatePoolRequest) (*model.QuestionPool, error) {
	pool := &model.QuestionPool{OwnerID: ownerID, Title: req.Title}
	if err := s.questions.CreatePool(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// ListPools returns the owner's pools, newest first.
func (s *QuestionService) ListPools(ctx context.Context, ownerID int) ([]model.QuestionPool, error) {
	return s.questions.ListPoolsByOwner(ctx, ownerID)
}

// GetPool returns one of the owner's pools together with its questions.
func (s *QuestionService) GetPool(ctx context.Context, poolID uuid.UUID, ownerID int) (*model.QuestionPool, []model.Question, error) {
	pool, err := s.getOwnedPool(ctx, poolID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questions.ListByPool(ctx, poolID)
	if err != nil {
		return nil, nil, err
	}
	return pool, questions, nil
}

// DeletePool removes a pool and its questions.
func (s *QuestionService) DeletePool(ctx context.Context, poolID uuid.UUID, ownerID int) error {
	if _, err := s.getOwnedPool(ctx, poolID, ownerID); err != nil {
		return err
	}
	return s.questions.DeletePool(ctx, poolID)
}

// AddQuestion validates and inserts a question. Options must be a JSON
// array of at least two strings with the correct index inside it.
func (s *QuestionService) AddQuestion(ctx context.Context, poolID uuid.UUID, ownerID int, req *model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.getOwnedPool(ctx, poolID, ownerID); err != nil {
		return nil, err
	}

	var options []string
	if err := json.Unmarshal(req.Options, &options); err != nil {
		return nil, ErrInvalidQuestion
	}
	if len(options) < 2 || *req.CorrectIndex >= len(options) {
		return nil, ErrInvalidQuestion
	}

	q := &model.Question{
		PoolID:       poolID,
		QuestionText: req.QuestionText,
		Options:      req.Options,
		CorrectIndex: *req.CorrectIndex,
		Position:     req.Position,
	}
	if err := s.questions.AddQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a question from one of the owner's pools.
// Sessions already holding the question in their frozen order keep their
// answer rows; the question simply stops being selectable.
func (s *QuestionService) DeleteQuestion(ctx context.Context, poolID, questionID uuid.UUID, ownerID int) error {
	if _, err := s.getOwnedPool(ctx, poolID, ownerID); err != nil {
		return err
	}

	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if q.PoolID != poolID {
		return ErrNotFound
	}
	return s.questions.DeleteQuestion(ctx, questionID)
}
