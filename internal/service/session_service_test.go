package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. It
// reproduces the conditional-update semantics the SQL layer guarantees:
// terminal transitions and answer writes succeed only while the session is
// in progress, and at most one in-progress session exists per
// (assessment, candidate).
type memStore struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*model.AssessmentSession
	answers     map[uuid.UUID][]model.AssessmentAnswer
	assessments map[uuid.UUID]*model.Assessment
	questions   []model.Question
}

func newMemStore() *memStore {
	return &memStore{
		sessions:    make(map[uuid.UUID]*model.AssessmentSession),
		answers:     make(map[uuid.UUID][]model.AssessmentAnswer),
		assessments: make(map[uuid.UUID]*model.Assessment),
	}
}

func (m *memStore) copySession(s *model.AssessmentSession) *model.AssessmentSession {
	cp := *s
	cp.QuestionOrder = append([]uuid.UUID(nil), s.QuestionOrder...)
	cp.TabSwitchLog = append([]model.TabSwitchEvent(nil), s.TabSwitchLog...)
	return &cp
}

// ─── SessionStore ────────────────────────────────────────────────────────────

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.copySession(s), nil
}

func (m *memStore) GetInProgress(_ context.Context, assessmentID uuid.UUID, candidateID int) (*model.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.AssessmentID == assessmentID && s.CandidateID == candidateID && s.Status == model.SessionStatusInProgress {
			return m.copySession(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) ListByCandidate(_ context.Context, assessmentID uuid.UUID, candidateID int) ([]model.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AssessmentSession
	for _, s := range m.sessions {
		if s.AssessmentID == assessmentID && s.CandidateID == candidateID {
			out = append(out, *m.copySession(s))
		}
	}
	return out, nil
}

func (m *memStore) ListAllByCandidate(_ context.Context, candidateID int) ([]model.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AssessmentSession
	for _, s := range m.sessions {
		if s.CandidateID == candidateID {
			out = append(out, *m.copySession(s))
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, s *model.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.AssessmentID == s.AssessmentID && existing.CandidateID == s.CandidateID &&
			existing.Status == model.SessionStatusInProgress {
			return pgx.ErrNoRows // mirrors ON CONFLICT DO NOTHING
		}
	}
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	m.sessions[s.ID] = m.copySession(s)

	rows := make([]model.AssessmentAnswer, 0, len(s.QuestionOrder))
	for _, qid := range s.QuestionOrder {
		rows = append(rows, model.AssessmentAnswer{SessionID: s.ID, QuestionID: qid})
	}
	m.answers[s.ID] = rows
	return nil
}

func (m *memStore) Finalize(_ context.Context, id uuid.UUID, status model.SessionStatus, score int, passed bool, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	zero := 0
	s.Status = status
	s.CompletedAt = &at
	s.Score = &score
	s.Passed = &passed
	s.TimeRemainingSeconds = &zero
	return true, nil
}

func (m *memStore) ApplyTimeSnapshot(_ context.Context, id uuid.UUID, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusInProgress {
		return nil
	}
	if s.TimeRemainingSeconds == nil || seconds < *s.TimeRemainingSeconds {
		v := seconds
		s.TimeRemainingSeconds = &v
	}
	return nil
}

func (m *memStore) AppendTabSwitch(_ context.Context, id uuid.UUID, ev model.TabSwitchEvent) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusInProgress {
		return 0, false, nil
	}
	s.TabSwitchCount++
	s.TabSwitchLog = append(s.TabSwitchLog, ev)
	return s.TabSwitchCount, true, nil
}

func (m *memStore) ListOverdue(_ context.Context, now time.Time) ([]repository.OverdueSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.OverdueSession
	for _, s := range m.sessions {
		if s.Status != model.SessionStatusInProgress {
			continue
		}
		a := m.assessments[s.AssessmentID]
		if now.After(s.StartedAt.Add(time.Duration(a.TimeLimitMinutes) * time.Minute)) {
			out = append(out, repository.OverdueSession{SessionID: s.ID, PassScore: a.PassScore})
		}
	}
	return out, nil
}

func (m *memStore) CohortScores(_ context.Context, assessmentID uuid.UUID) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var scores []int
	for _, s := range m.sessions {
		if s.AssessmentID == assessmentID && s.Status.Terminal() && s.Score != nil {
			scores = append(scores, *s.Score)
		}
	}
	return scores, nil
}

func (m *memStore) DeleteByAssessment(_ context.Context, assessmentID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, s := range m.sessions {
		if s.AssessmentID == assessmentID {
			delete(m.sessions, id)
			delete(m.answers, id)
			deleted++
		}
	}
	return deleted, nil
}

// ─── AnswerStore ─────────────────────────────────────────────────────────────

func (m *memStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.AssessmentAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AssessmentAnswer(nil), m.answers[sessionID]...), nil
}

func (m *memStore) Record(_ context.Context, sessionID, questionID uuid.UUID, selectedIndex int, isCorrect bool, answeredAt time.Time, timeSpentSeconds *int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	rows := m.answers[sessionID]
	for i := range rows {
		if rows[i].QuestionID == questionID {
			idx, correct, at := selectedIndex, isCorrect, answeredAt
			rows[i].SelectedIndex = &idx
			rows[i].IsCorrect = &correct
			rows[i].AnsweredAt = &at
			if timeSpentSeconds != nil {
				rows[i].TimeSpentSeconds = timeSpentSeconds
			}
			return true, nil
		}
	}
	return false, nil
}

// ─── AssessmentStore / QuestionSource ────────────────────────────────────────

func (m *memStore) GetAssessmentByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListPublished(_ context.Context) ([]model.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Assessment
	for _, a := range m.assessments {
		if a.Status == model.AssessmentStatusPublished {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) ListIDsByPool(_ context.Context, poolID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, q := range m.questions {
		if q.PoolID == poolID {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

func (m *memStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, q := range m.questions {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memStore) GetQuestion(_ context.Context, id uuid.UUID) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.questions {
		if m.questions[i].ID == id {
			q := m.questions[i]
			return &q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// assessmentStoreAdapter renames GetAssessmentByID to the interface method.
type assessmentStoreAdapter struct{ *memStore }

func (a assessmentStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return a.GetAssessmentByID(ctx, id)
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

type lifecycleFixture struct {
	store      *memStore
	svc        *SessionService
	proctor    *ProctorService
	assessment *model.Assessment
	rdb        *redis.Client
}

func newLifecycleFixture(t *testing.T, mutate func(*model.Assessment)) *lifecycleFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newMemStore()

	poolID := uuid.New()
	for i := 0; i < 5; i++ {
		store.questions = append(store.questions, model.Question{
			ID:           uuid.New(),
			PoolID:       poolID,
			QuestionText: "q",
			Options:      []byte(`["a","b","c","d"]`),
			CorrectIndex: 1,
			Position:     i,
		})
	}

	a := &model.Assessment{
		ID:               uuid.New(),
		OwnerID:          99,
		PoolID:           poolID,
		Title:            "Fixture",
		TimeLimitMinutes: 60,
		PassScore:        70,
		QuestionCount:    5,
		AllowReview:      true,
		Status:           model.AssessmentStatusPublished,
	}
	if mutate != nil {
		mutate(a)
	}
	store.assessments[a.ID] = a

	log := zerolog.Nop()
	svc := NewSessionService(store, store, assessmentStoreAdapter{store}, store, rdb, log)
	proctor := NewProctorService(store, rdb, log)

	return &lifecycleFixture{store: store, svc: svc, proctor: proctor, assessment: a, rdb: rdb}
}

func (f *lifecycleFixture) answerAll(t *testing.T, sessionID uuid.UUID, candidateID, correctCount int) {
	t.Helper()
	sess, err := f.store.GetByID(context.Background(), sessionID)
	require.NoError(t, err)

	for i, qid := range sess.QuestionOrder {
		selected := 1 // the correct index in the fixture
		if i >= correctCount {
			selected = 0
		}
		_, err := f.svc.SubmitAnswer(context.Background(), sessionID, candidateID, &model.SubmitAnswerRequest{
			QuestionID:    qid,
			SelectedIndex: &selected,
		})
		require.NoError(t, err)
	}
}

// backdateStart rewinds a session's start so expiry paths can be exercised.
func (f *lifecycleFixture) backdateStart(sessionID uuid.UUID, by time.Duration) {
	f.store.mu.Lock()
	f.store.sessions[sessionID].StartedAt = f.store.sessions[sessionID].StartedAt.Add(-by)
	f.store.mu.Unlock()
	// The cached start time would mask the rewind.
	f.rdb.Del(context.Background(), "session:"+sessionID.String()+":started_at")
}

// ─── Expiry boundary ─────────────────────────────────────────────────────────

func TestIsSessionExpiredBoundary(t *testing.T) {
	start := time.Now()

	atLimit := start.Add(60 * time.Minute)
	assert.False(t, isSessionExpired(start, 60, atLimit), "exactly at the limit is still live")

	justPast := atLimit.Add(time.Millisecond)
	assert.True(t, isSessionExpired(start, 60, justPast))

	assert.False(t, isSessionExpired(start, 60, start.Add(30*time.Minute)))
}

// ─── Start ───────────────────────────────────────────────────────────────────

func TestStartCreatesSessionWithFrozenOrder(t *testing.T) {
	f := newLifecycleFixture(t, nil)

	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, sess.Status)
	assert.Len(t, sess.QuestionOrder, 5)
	require.NotNil(t, sess.TimeRemainingSeconds)
	assert.Equal(t, 3600, *sess.TimeRemainingSeconds)

	answers, err := f.store.ListBySession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 5, "one empty answer row per question")
}

func TestStartResumesExistingSession(t *testing.T) {
	f := newLifecycleFixture(t, nil)

	first, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	second, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "second start resumes, never duplicates")
}

func TestStartBlockedAfterMaxAttempts(t *testing.T) {
	f := newLifecycleFixture(t, func(a *model.Assessment) {
		one := 1
		a.MaxAttempts = &one
	})

	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, 1, 5)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, DenyMaxAttemptsReached, notEligible.Reason)
}

// staleHistoryStore simulates a start race: the candidate's history read
// happens before a rival insert lands, so the governor sees no sessions but
// the create hits the partial unique index.
type staleHistoryStore struct{ *memStore }

func (s staleHistoryStore) ListByCandidate(context.Context, uuid.UUID, int) ([]model.AssessmentSession, error) {
	return nil, nil
}

func TestStartConcurrentRaceResolvesToOneSession(t *testing.T) {
	f := newLifecycleFixture(t, nil)

	// The rival's session is already in the store.
	rival, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	racing := NewSessionService(
		staleHistoryStore{f.store}, f.store, assessmentStoreAdapter{f.store}, f.store,
		f.rdb, zerolog.Nop(),
	)
	got, err := racing.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, rival.ID, got.ID, "losing the insert race resolves to the winner's session")
}

func TestStartExpiresOverdueSessionFirst(t *testing.T) {
	f := newLifecycleFixture(t, nil)

	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.backdateStart(sess.ID, 2*time.Hour)

	// The overdue session becomes terminal history and a fresh one starts.
	next, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, next.ID)

	old, err := f.store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusTimedOut, old.Status)
}

func TestStartInsufficientPool(t *testing.T) {
	f := newLifecycleFixture(t, func(a *model.Assessment) {
		a.QuestionCount = 50
	})
	_, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

// ─── Answer submission ───────────────────────────────────────────────────────

func TestSubmitAnswerRejectsForeignQuestion(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	selected := 0
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID:    uuid.New(),
		SelectedIndex: &selected,
	})
	assert.ErrorIs(t, err, ErrQuestionNotInSession)
}

func TestSubmitAnswerRejectsForeignSession(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	selected := 0
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 2, &model.SubmitAnswerRequest{
		QuestionID:    sess.QuestionOrder[0],
		SelectedIndex: &selected,
	})
	assert.ErrorIs(t, err, ErrSessionNotActive, "another candidate's session looks inactive")
}

func TestSubmitAnswerAfterCompleteFails(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	f.answerAll(t, sess.ID, 1, 3)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	selected := 1
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID:    sess.QuestionOrder[0],
		SelectedIndex: &selected,
	})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSubmitAnswerResubmissionOverwrites(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	qid := sess.QuestionOrder[0]

	wrong, right := 0, 1
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID: qid, SelectedIndex: &wrong,
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID: qid, SelectedIndex: &right,
	})
	require.NoError(t, err)

	answers, err := f.store.ListBySession(context.Background(), sess.ID)
	require.NoError(t, err)
	for _, a := range answers {
		if a.QuestionID == qid {
			require.NotNil(t, a.IsCorrect)
			assert.True(t, *a.IsCorrect, "latest submission wins")
		}
	}
}

func TestSubmitAnswerTimeSnapshotOnlyShrinks(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	qid := sess.QuestionOrder[0]

	selected := 1
	low, high := 1000, 2000
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID: qid, SelectedIndex: &selected, TimeRemainingSeconds: &low,
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(context.Background(), sess.ID, 1, &model.SubmitAnswerRequest{
		QuestionID: qid, SelectedIndex: &selected, TimeRemainingSeconds: &high,
	})
	require.NoError(t, err)

	got, err := f.store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TimeRemainingSeconds)
	assert.Equal(t, 1000, *got.TimeRemainingSeconds, "a later larger snapshot never raises the value")
}

// ─── Completion & expiry ─────────────────────────────────────────────────────

func TestCompleteScoresSession(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	f.answerAll(t, sess.ID, 1, 4)
	done, err := f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusCompleted, done.Status)
	require.NotNil(t, done.Score)
	assert.Equal(t, 80, *done.Score)
	require.NotNil(t, done.Passed)
	assert.True(t, *done.Passed)
	assert.NotNil(t, done.CompletedAt)
}

func TestCompleteTwiceFails(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	// The first outcome is untouched.
	got, err := f.store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, got.Status)
}

func TestCompleteAfterDeadlineTimesOut(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, 1, 5)
	f.backdateStart(sess.ID, 2*time.Hour)

	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	got, err := f.store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusTimedOut, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 100, *got.Score, "answers given before the deadline still count")
}

func TestExpireSweepFinalizesOnce(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, 1, 2)
	f.backdateStart(sess.ID, 2*time.Hour)

	expired, err := f.svc.ExpireSweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// A second sweep finds nothing left to do.
	expired, err = f.svc.ExpireSweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, expired)

	got, err := f.store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusTimedOut, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 40, *got.Score)
}

func TestExpireSweepIgnoresLiveSessions(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	_, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	expired, err := f.svc.ExpireSweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

// ─── State ───────────────────────────────────────────────────────────────────

func TestGetStateHidesCorrectIndex(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	state, err := f.svc.GetState(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusInProgress, state.Status)
	assert.Len(t, state.Questions, 5)
	assert.Len(t, state.Answers, 5)
	assert.Greater(t, state.RemainingSeconds, 0)
	assert.LessOrEqual(t, state.RemainingSeconds, 3600)
	for i, q := range state.Questions {
		assert.Equal(t, sess.QuestionOrder[i], q.ID, "questions come back in frozen order")
	}
}

func TestGetStateExpiresOverdueSession(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.backdateStart(sess.ID, 2*time.Hour)

	state, err := f.svc.GetState(context.Background(), sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusTimedOut, state.Status)
	assert.Zero(t, state.RemainingSeconds)
}

// ─── Result ──────────────────────────────────────────────────────────────────

func TestResultWhileActiveFails(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Result(context.Background(), sess.ID, 1)
	assert.ErrorIs(t, err, ErrSessionStillActive)
}

func TestResultSingleSessionCohort(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, 1, 3)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	result, err := f.svc.Result(context.Background(), sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 5, result.TotalCount)
	assert.Equal(t, 100, result.Percentile)
	assert.Equal(t, 1, result.Rank)
	assert.Equal(t, 1, result.CohortSize)
}

func TestResultReviewDisabled(t *testing.T) {
	f := newLifecycleFixture(t, func(a *model.Assessment) {
		a.AllowReview = false
	})
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Result(context.Background(), sess.ID, 1)
	assert.ErrorIs(t, err, ErrReviewNotAllowed)
}

// ─── Proctoring ──────────────────────────────────────────────────────────────

func TestRecordTabSwitchCountsAndAppends(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	const n = 7
	var prefix []model.TabSwitchEvent
	for i := 1; i <= n; i++ {
		count, err := f.proctor.RecordTabSwitch(context.Background(), sess.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, i, count)

		_, log, err := f.proctor.GetLog(context.Background(), sess.ID)
		require.NoError(t, err)
		require.Len(t, log, i)

		// Append-only: the earlier snapshot stays a prefix of the log.
		for j, ev := range prefix {
			assert.Equal(t, ev, log[j])
		}
		prefix = log
	}
}

func TestRecordTabSwitchAfterFinalizeFails(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	_, err = f.proctor.RecordTabSwitch(context.Background(), sess.ID, 1)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestRecordTabSwitchQueuesAuditEvent(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)

	_, err = f.proctor.RecordTabSwitch(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	queued, err := f.rdb.LLen(context.Background(), "persist_proctor_events_queue").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
}

// ─── Administrative reset ────────────────────────────────────────────────────

func TestResetSessionsDeletesEverything(t *testing.T) {
	f := newLifecycleFixture(t, nil)
	sess, err := f.svc.Start(context.Background(), f.assessment.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), sess.ID, 1)
	require.NoError(t, err)

	deleted, err := f.svc.ResetSessions(context.Background(), f.assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = f.store.GetByID(context.Background(), sess.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
