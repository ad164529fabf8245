package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore is the session persistence surface the lifecycle manager
// needs. Terminal transitions are conditional: implementations must only
// apply them while the session is still in progress.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentSession, error)
	GetInProgress(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*model.AssessmentSession, error)
	ListByCandidate(ctx context.Context, assessmentID uuid.UUID, candidateID int) ([]model.AssessmentSession, error)
	ListAllByCandidate(ctx context.Context, candidateID int) ([]model.AssessmentSession, error)
	Create(ctx context.Context, s *model.AssessmentSession) error
	Finalize(ctx context.Context, id uuid.UUID, status model.SessionStatus, score int, passed bool, at time.Time) (bool, error)
	ApplyTimeSnapshot(ctx context.Context, id uuid.UUID, seconds int) error
	AppendTabSwitch(ctx context.Context, id uuid.UUID, ev model.TabSwitchEvent) (int, bool, error)
	ListOverdue(ctx context.Context, now time.Time) ([]repository.OverdueSession, error)
	CohortScores(ctx context.Context, assessmentID uuid.UUID) ([]int, error)
	DeleteByAssessment(ctx context.Context, assessmentID uuid.UUID) (int64, error)
}

// AnswerStore is the answer persistence surface of the lifecycle manager.
type AnswerStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AssessmentAnswer, error)
	Record(ctx context.Context, sessionID, questionID uuid.UUID, selectedIndex int, isCorrect bool, answeredAt time.Time, timeSpentSeconds *int) (bool, error)
}

// AssessmentStore reads assessment configurations.
type AssessmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	ListPublished(ctx context.Context) ([]model.Assessment, error)
}

// QuestionSource reads questions for selection and grading.
type QuestionSource interface {
	ListIDsByPool(ctx context.Context, poolID uuid.UUID) ([]uuid.UUID, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

// SessionService owns the session state machine: start (gated by the
// attempt governor), answer submission, explicit completion and lazy
// timeout expiry. Every terminal transition goes through the stores'
// conditional updates, so racing callers finalize a session at most once.
type SessionService struct {
	sessions    SessionStore
	answers     AnswerStore
	assessments AssessmentStore
	questions   QuestionSource
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions SessionStore,
	answers AnswerStore,
	assessments AssessmentStore,
	questions QuestionSource,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		answers:     answers,
		assessments: assessments,
		questions:   questions,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// isSessionExpired reports whether a session's time limit has elapsed.
// The boundary is inclusive of the limit: at exactly startedAt + limit the
// session is still live; any instant after that is expired. The sweep SQL
// uses the same convention.
func isSessionExpired(startedAt time.Time, timeLimitMinutes int, now time.Time) bool {
	return now.After(startedAt.Add(time.Duration(timeLimitMinutes) * time.Minute))
}

// ─── Lobby ──────────────────────────────────────────────────────────────────

// LobbyAssessment is a published assessment as shown to a candidate, with
// their own session status overlaid.
type LobbyAssessment struct {
	model.Assessment
	SessionStatus *model.SessionStatus `json:"session_status,omitempty"`
	SessionID     *uuid.UUID           `json:"session_id,omitempty"`
	Score         *int                 `json:"score,omitempty"`
}

// GetLobby returns all published assessments with the candidate's most
// recent session overlaid on each.
func (s *SessionService) GetLobby(ctx context.Context, candidateID int) ([]LobbyAssessment, error) {
	published, err := s.assessments.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListAllByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	// Keep only the latest session per assessment (list is oldest first).
	latest := make(map[uuid.UUID]*model.AssessmentSession, len(sessions))
	for i := range sessions {
		latest[sessions[i].AssessmentID] = &sessions[i]
	}

	lobby := make([]LobbyAssessment, 0, len(published))
	for _, a := range published {
		entry := LobbyAssessment{Assessment: a}
		if sess, ok := latest[a.ID]; ok {
			entry.SessionStatus = &sess.Status
			entry.SessionID = &sess.ID
			entry.Score = sess.Score
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// ─── Start ──────────────────────────────────────────────────────────────────

// Start begins a new attempt or resumes the candidate's existing in-progress
// session. Eligibility is decided by the attempt governor; overdue sessions
// are expired first so they count as terminal history. When two concurrent
// starts race, the partial unique index lets exactly one insert win and both
// callers observe the same session.
func (s *SessionService) Start(ctx context.Context, assessmentID uuid.UUID, candidateID int, accessCode string) (*model.AssessmentSession, error) {
	now := time.Now()

	a, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	history, err := s.sessions.ListByCandidate(ctx, assessmentID, candidateID)
	if err != nil {
		return nil, err
	}

	// Lazy expiry: an overdue in-progress session becomes terminal history
	// before the governor counts attempts or computes cooldown.
	expiredAny := false
	for i := range history {
		if history[i].Status == model.SessionStatusInProgress &&
			isSessionExpired(history[i].StartedAt, a.TimeLimitMinutes, now) {
			if _, err := s.expireOne(ctx, history[i].ID, a.PassScore, now); err != nil {
				return nil, err
			}
			expiredAny = true
		}
	}
	if expiredAny {
		if history, err = s.sessions.ListByCandidate(ctx, assessmentID, candidateID); err != nil {
			return nil, err
		}
	}

	dec := CanStart(a, history, accessCode, now)
	if !dec.Allowed {
		return nil, &NotEligibleError{Reason: dec.Reason, CooldownMinutes: dec.CooldownMinutes}
	}
	if dec.Resume != nil {
		// Idempotent resume. Refresh the start-time cache in case the
		// candidate switched devices.
		s.cacheStartTime(ctx, dec.Resume)
		return dec.Resume, nil
	}

	poolIDs, err := s.questions.ListIDsByPool(ctx, a.PoolID)
	if err != nil {
		return nil, err
	}
	order, err := SelectQuestions(poolIDs, a.QuestionCount, a.ShuffleQuestions, nil)
	if err != nil {
		return nil, err
	}

	allocation := a.TimeLimitMinutes * 60
	session := &model.AssessmentSession{
		AssessmentID:         assessmentID,
		CandidateID:          candidateID,
		TimeRemainingSeconds: &allocation,
		QuestionOrder:        order,
		Status:               model.SessionStatusInProgress,
		TabSwitchLog:         []model.TabSwitchEvent{},
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start: the other caller's insert won. Both
			// observe the same session.
			existing, fetchErr := s.sessions.GetInProgress(ctx, assessmentID, candidateID)
			if fetchErr != nil {
				return nil, fetchErr
			}
			s.cacheStartTime(ctx, existing)
			return existing, nil
		}
		return nil, err
	}

	s.cacheStartTime(ctx, session)
	return session, nil
}

// ─── State ──────────────────────────────────────────────────────────────────

// AnswerSnapshot is an answer as shown to the candidate mid-exam:
// correctness stays hidden until the session is finalized.
type AnswerSnapshot struct {
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedIndex    *int       `json:"selected_index,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	TimeSpentSeconds *int       `json:"time_spent_seconds,omitempty"`
}

// SessionState is the full state a client needs to render or resume an
// attempt after a reload or reconnect.
type SessionState struct {
	SessionID        uuid.UUID                    `json:"session_id"`
	AssessmentID     uuid.UUID                    `json:"assessment_id"`
	Status           model.SessionStatus          `json:"status"`
	StartedAt        time.Time                    `json:"started_at"`
	RemainingSeconds int                          `json:"remaining_seconds"`
	ShuffleOptions   bool                         `json:"shuffle_options"`
	Questions        []model.QuestionForCandidate `json:"questions"`
	Answers          []AnswerSnapshot             `json:"answers"`
	TabSwitchCount   int                          `json:"tab_switch_count"`
}

// GetState returns the session's current state for its owner, expiring it
// first if the time limit has elapsed.
func (s *SessionService) GetState(ctx context.Context, sessionID uuid.UUID, candidateID int) (*SessionState, error) {
	sess, a, err := s.getOwnedWithAssessment(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusInProgress {
		now := time.Now()
		startedAt := s.startTime(ctx, sess)
		if isSessionExpired(startedAt, a.TimeLimitMinutes, now) {
			if _, err := s.expireOne(ctx, sess.ID, a.PassScore, now); err != nil {
				return nil, err
			}
			if sess, err = s.sessions.GetByID(ctx, sessionID); err != nil {
				return nil, err
			}
		}
	}

	state := &SessionState{
		SessionID:      sess.ID,
		AssessmentID:   sess.AssessmentID,
		Status:         sess.Status,
		StartedAt:      sess.StartedAt,
		ShuffleOptions: a.ShuffleOptions,
		TabSwitchCount: sess.TabSwitchCount,
	}

	if sess.Status == model.SessionStatusInProgress {
		state.RemainingSeconds = s.remainingSeconds(ctx, sess, a, time.Now())
	}

	questions, err := s.questions.ListByIDs(ctx, sess.QuestionOrder)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	state.Questions = make([]model.QuestionForCandidate, 0, len(sess.QuestionOrder))
	for _, qid := range sess.QuestionOrder {
		q, ok := byID[qid]
		if !ok {
			continue // question removed from the pool; the frozen order still references it
		}
		state.Questions = append(state.Questions, model.QuestionForCandidate{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
		})
	}

	answers, err := s.answers.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	state.Answers = make([]AnswerSnapshot, 0, len(answers))
	for _, ans := range answers {
		state.Answers = append(state.Answers, AnswerSnapshot{
			QuestionID:       ans.QuestionID,
			SelectedIndex:    ans.SelectedIndex,
			AnsweredAt:       ans.AnsweredAt,
			TimeSpentSeconds: ans.TimeSpentSeconds,
		})
	}

	return state, nil
}

// ─── Answer submission ──────────────────────────────────────────────────────

// SubmitAnswer records one answer. Correctness is computed server-side at
// submission time; an optional remaining-time snapshot is clamped so it can
// only shrink the allocation. The whole write is one conditional UPDATE.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, candidateID int, req *model.SubmitAnswerRequest) (*AnswerSnapshot, error) {
	now := time.Now()

	sess, a, err := s.getOwnedWithAssessment(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusInProgress &&
		isSessionExpired(sess.StartedAt, a.TimeLimitMinutes, now) {
		if _, err := s.expireOne(ctx, sess.ID, a.PassScore, now); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}
	if sess.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}

	if !sess.HasQuestion(req.QuestionID) {
		return nil, ErrQuestionNotInSession
	}

	q, err := s.questions.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotInSession
		}
		return nil, err
	}

	isCorrect := *req.SelectedIndex == q.CorrectIndex
	ok, err := s.answers.Record(ctx, sess.ID, q.ID, *req.SelectedIndex, isCorrect, now, req.TimeSpentSeconds)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The session was finalized between our read and the write.
		return nil, ErrSessionNotActive
	}

	if req.TimeRemainingSeconds != nil && *req.TimeRemainingSeconds >= 0 {
		snapshot := *req.TimeRemainingSeconds
		if allocation := a.TimeLimitMinutes * 60; snapshot > allocation {
			snapshot = allocation
		}
		if err := s.sessions.ApplyTimeSnapshot(ctx, sess.ID, snapshot); err != nil {
			return nil, err
		}
	}

	return &AnswerSnapshot{
		QuestionID:       q.ID,
		SelectedIndex:    req.SelectedIndex,
		AnsweredAt:       &now,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}, nil
}

// ─── Completion & expiry ────────────────────────────────────────────────────

// Complete finalizes the session with the candidate's score. The status
// transition is a conditional update; when a concurrent complete or sweep
// wins the race, the loser gets ErrSessionNotActive and state is untouched.
func (s *SessionService) Complete(ctx context.Context, sessionID uuid.UUID, candidateID int) (*model.AssessmentSession, error) {
	now := time.Now()

	sess, a, err := s.getOwnedWithAssessment(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}

	// Past the deadline an explicit completion is no longer honored: the
	// attempt times out instead.
	if isSessionExpired(sess.StartedAt, a.TimeLimitMinutes, now) {
		if _, err := s.expireOne(ctx, sess.ID, a.PassScore, now); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}

	answers, err := s.answers.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sum := ScoreAnswers(answers)
	passed := Passed(sum.Score, a.PassScore)

	ok, err := s.sessions.Finalize(ctx, sess.ID, model.SessionStatusCompleted, sum.Score, passed, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotActive
	}

	s.dropStartTime(ctx, sess.ID)

	return s.sessions.GetByID(ctx, sessionID)
}

// ExpireSweep finalizes every overdue in-progress session as TIMED_OUT and
// returns how many this caller finalized. It is safe to run repeatedly and
// concurrently: the conditional transition makes lost races no-ops, which
// the sweep silently skips.
func (s *SessionService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.sessions.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range overdue {
		ok, err := s.expireOne(ctx, o.SessionID, o.PassScore, now)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", o.SessionID.String()).Msg("expire failed")
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// expireOne grades and finalizes a single session as TIMED_OUT. Returns
// false without error when another caller already finalized it.
func (s *SessionService) expireOne(ctx context.Context, sessionID uuid.UUID, passScore int, now time.Time) (bool, error) {
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	sum := ScoreAnswers(answers)

	ok, err := s.sessions.Finalize(ctx, sessionID, model.SessionStatusTimedOut, sum.Score, Passed(sum.Score, passScore), now)
	if err != nil {
		return false, err
	}
	if ok {
		s.dropStartTime(ctx, sessionID)
	}
	return ok, nil
}

// ─── Result ─────────────────────────────────────────────────────────────────

// Result returns the candidate-facing outcome of a finalized session,
// including percentile rank within the cohort of finalized scores.
func (s *SessionService) Result(ctx context.Context, sessionID uuid.UUID, candidateID int) (*model.SessionResult, error) {
	sess, a, err := s.getOwnedWithAssessment(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusInProgress {
		now := time.Now()
		if !isSessionExpired(sess.StartedAt, a.TimeLimitMinutes, now) {
			return nil, ErrSessionStillActive
		}
		if _, err := s.expireOne(ctx, sess.ID, a.PassScore, now); err != nil {
			return nil, err
		}
		if sess, err = s.sessions.GetByID(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	if !a.AllowReview {
		return nil, ErrReviewNotAllowed
	}
	if sess.Score == nil || sess.Passed == nil {
		return nil, ErrSessionNotActive
	}

	answers, err := s.answers.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sum := ScoreAnswers(answers)

	cohort, err := s.sessions.CohortScores(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	percentile, rank := Percentile(*sess.Score, cohort)

	return &model.SessionResult{
		SessionID:    sess.ID,
		Status:       sess.Status,
		Score:        *sess.Score,
		Passed:       *sess.Passed,
		CorrectCount: sum.CorrectCount,
		TotalCount:   sum.TotalCount,
		Percentile:   percentile,
		Rank:         rank,
		CohortSize:   len(cohort),
	}, nil
}

// ─── Administrative reset ───────────────────────────────────────────────────

// ResetSessions destroys every session and answer of an assessment.
// Destructive; restricted to admins at the routing layer.
func (s *SessionService) ResetSessions(ctx context.Context, assessmentID uuid.UUID) (int64, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	deleted, err := s.sessions.DeleteByAssessment(ctx, assessmentID)
	if err != nil {
		return 0, err
	}
	s.log.Warn().
		Str("assessment_id", assessmentID.String()).
		Int64("sessions_deleted", deleted).
		Msg("administrative session reset")
	return deleted, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// getOwnedWithAssessment loads a session and its assessment, verifying the
// caller owns the session. Missing and foreign sessions look identical to
// the caller.
func (s *SessionService) getOwnedWithAssessment(ctx context.Context, sessionID uuid.UUID, candidateID int) (*model.AssessmentSession, *model.Assessment, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrSessionNotActive
		}
		return nil, nil, err
	}
	if sess.CandidateID != candidateID {
		return nil, nil, ErrSessionNotActive
	}

	a, err := s.assessments.GetByID(ctx, sess.AssessmentID)
	if err != nil {
		return nil, nil, err
	}
	return sess, a, nil
}

// remainingSeconds computes the live remaining time from the wall clock and
// the session's start, clamped by the stored snapshot so it can never grow.
func (s *SessionService) remainingSeconds(ctx context.Context, sess *model.AssessmentSession, a *model.Assessment, now time.Time) int {
	deadline := s.startTime(ctx, sess).Add(time.Duration(a.TimeLimitMinutes) * time.Minute)
	remaining := int(deadline.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	if sess.TimeRemainingSeconds != nil && *sess.TimeRemainingSeconds < remaining {
		remaining = *sess.TimeRemainingSeconds
	}
	return remaining
}

// startTime resolves the session's start from the Redis cache with a
// PostgreSQL fallback, self-healing the cache on a miss. The cached value
// keeps hot remaining-time reads off the database.
func (s *SessionService) startTime(ctx context.Context, sess *model.AssessmentSession) time.Time {
	key := config.CacheKey.SessionStartKey(sess.ID.String())

	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("start time cache read failed")
		}
		s.cacheStartTime(ctx, sess)
		return sess.StartedAt
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		s.cacheStartTime(ctx, sess)
		return sess.StartedAt
	}
	return time.Unix(unix, 0)
}

func (s *SessionService) cacheStartTime(ctx context.Context, sess *model.AssessmentSession) {
	key := config.CacheKey.SessionStartKey(sess.ID.String())
	if err := s.rdb.Set(ctx, key, sess.StartedAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("start time cache write failed")
	}
}

func (s *SessionService) dropStartTime(ctx context.Context, sessionID uuid.UUID) {
	key := config.CacheKey.SessionStartKey(sessionID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Msg("start time cache delete failed")
	}
}
