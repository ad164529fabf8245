package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int            { return &n }
func strPtr(s string) *string      { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func publishedAssessment() *model.Assessment {
	return &model.Assessment{
		ID:               uuid.New(),
		PoolID:           uuid.New(),
		TimeLimitMinutes: 60,
		PassScore:        70,
		QuestionCount:    5,
		Status:           model.AssessmentStatusPublished,
	}
}

func terminalSession(completedAt time.Time) model.AssessmentSession {
	return model.AssessmentSession{
		ID:          uuid.New(),
		Status:      model.SessionStatusCompleted,
		CompletedAt: timePtr(completedAt),
	}
}

func TestCanStartHappyPath(t *testing.T) {
	now := time.Now()
	dec := CanStart(publishedAssessment(), nil, "", now)
	assert.True(t, dec.Allowed)
	assert.Nil(t, dec.Resume)
}

func TestCanStartNotPublished(t *testing.T) {
	now := time.Now()
	for _, status := range []model.AssessmentStatus{model.AssessmentStatusDraft, model.AssessmentStatusArchived} {
		a := publishedAssessment()
		a.Status = status
		dec := CanStart(a, nil, "", now)
		assert.False(t, dec.Allowed)
		assert.Equal(t, DenyNotPublished, dec.Reason)
	}
}

func TestCanStartScheduleWindow(t *testing.T) {
	now := time.Now()

	a := publishedAssessment()
	a.StartsAt = timePtr(now.Add(time.Hour))
	dec := CanStart(a, nil, "", now)
	assert.Equal(t, DenyNotYetOpen, dec.Reason)

	a = publishedAssessment()
	a.EndsAt = timePtr(now.Add(-time.Minute))
	dec = CanStart(a, nil, "", now)
	assert.Equal(t, DenyClosed, dec.Reason)

	// Inside the window.
	a = publishedAssessment()
	a.StartsAt = timePtr(now.Add(-time.Hour))
	a.EndsAt = timePtr(now.Add(time.Hour))
	assert.True(t, CanStart(a, nil, "", now).Allowed)
}

func TestCanStartAccessCode(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.AccessCode = strPtr("SECRET42")

	dec := CanStart(a, nil, "wrong", now)
	assert.Equal(t, DenyInvalidCode, dec.Reason)

	dec = CanStart(a, nil, "", now)
	assert.Equal(t, DenyInvalidCode, dec.Reason)

	assert.True(t, CanStart(a, nil, "SECRET42", now).Allowed)
}

func TestCanStartMaxAttempts(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.MaxAttempts = intPtr(3)

	history := []model.AssessmentSession{
		terminalSession(now.Add(-3 * time.Hour)),
		terminalSession(now.Add(-2 * time.Hour)),
		terminalSession(now.Add(-1 * time.Hour)),
	}
	dec := CanStart(a, history, "", now)
	assert.False(t, dec.Allowed)
	assert.Equal(t, DenyMaxAttemptsReached, dec.Reason)

	// Two terminal attempts leave one more.
	dec = CanStart(a, history[:2], "", now)
	assert.True(t, dec.Allowed)
}

func TestCanStartCooldown(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.CooldownMinutes = intPtr(30)

	// Completed 10 minutes ago: blocked with ~20 minutes remaining.
	history := []model.AssessmentSession{terminalSession(now.Add(-10 * time.Minute))}
	dec := CanStart(a, history, "", now)
	require.False(t, dec.Allowed)
	assert.Equal(t, DenyCooldownActive, dec.Reason)
	assert.Equal(t, 20, dec.CooldownMinutes)

	// Completed 31 minutes ago: allowed.
	history = []model.AssessmentSession{terminalSession(now.Add(-31 * time.Minute))}
	assert.True(t, CanStart(a, history, "", now).Allowed)
}

func TestCanStartCooldownUsesLatestCompletion(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.CooldownMinutes = intPtr(30)

	history := []model.AssessmentSession{
		terminalSession(now.Add(-2 * time.Hour)),
		terminalSession(now.Add(-5 * time.Minute)),
	}
	dec := CanStart(a, history, "", now)
	require.False(t, dec.Allowed)
	assert.Equal(t, 25, dec.CooldownMinutes)
}

func TestCanStartCooldownRoundsUp(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.CooldownMinutes = intPtr(30)

	// 29m30s remaining rounds up to 30 whole minutes.
	history := []model.AssessmentSession{terminalSession(now.Add(-30 * time.Second))}
	dec := CanStart(a, history, "", now)
	require.False(t, dec.Allowed)
	assert.Equal(t, 30, dec.CooldownMinutes)
}

func TestCanStartResume(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()

	live := model.AssessmentSession{
		ID:        uuid.New(),
		Status:    model.SessionStatusInProgress,
		StartedAt: now.Add(-5 * time.Minute),
	}
	dec := CanStart(a, []model.AssessmentSession{live}, "", now)
	require.True(t, dec.Allowed)
	require.NotNil(t, dec.Resume)
	assert.Equal(t, live.ID, dec.Resume.ID)
}

func TestCanStartInProgressDoesNotCountAsAttempt(t *testing.T) {
	now := time.Now()
	a := publishedAssessment()
	a.MaxAttempts = intPtr(2)

	history := []model.AssessmentSession{
		terminalSession(now.Add(-2 * time.Hour)),
		{ID: uuid.New(), Status: model.SessionStatusInProgress, StartedAt: now.Add(-time.Minute)},
	}
	dec := CanStart(a, history, "", now)
	require.True(t, dec.Allowed)
	assert.NotNil(t, dec.Resume)
}

func TestCanStartCheckOrder(t *testing.T) {
	// An unpublished assessment with a bad code reports the publication
	// problem first; the checks short-circuit in a fixed order.
	now := time.Now()
	a := publishedAssessment()
	a.Status = model.AssessmentStatusDraft
	a.AccessCode = strPtr("SECRET42")

	dec := CanStart(a, nil, "wrong", now)
	assert.Equal(t, DenyNotPublished, dec.Reason)
}
