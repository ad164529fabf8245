package service

import (
	"crypto/subtle"
	"time"

	"github.com/lumilearn/assess-backend/internal/model"
)

// DenyReason identifies why the attempt governor rejected a start.
type DenyReason string

const (
	DenyNotPublished       DenyReason = "not_published"
	DenyNotYetOpen         DenyReason = "not_yet_open"
	DenyClosed             DenyReason = "closed"
	DenyInvalidCode        DenyReason = "invalid_code"
	DenyMaxAttemptsReached DenyReason = "max_attempts_reached"
	DenyCooldownActive     DenyReason = "cooldown_active"
)

// StartDecision is the attempt governor's verdict. When Resume is set the
// candidate already has an in-progress session and the caller must return
// it instead of creating a new one.
type StartDecision struct {
	Allowed         bool
	Reason          DenyReason
	CooldownMinutes int
	Resume          *model.AssessmentSession
}

// CanStart decides whether the candidate may begin a new attempt. Checks
// run in a fixed order and short-circuit on the first failure:
// publication status, schedule window, access code, attempt count, cooldown,
// and finally resume of an existing in-progress session.
//
// history must contain every session of this (assessment, candidate) pair;
// callers are expected to have expired overdue sessions first, so an
// in-progress entry here is genuinely live.
func CanStart(a *model.Assessment, history []model.AssessmentSession, suppliedCode string, now time.Time) StartDecision {
	if a.Status != model.AssessmentStatusPublished {
		return StartDecision{Reason: DenyNotPublished}
	}
	if a.StartsAt != nil && now.Before(*a.StartsAt) {
		return StartDecision{Reason: DenyNotYetOpen}
	}
	if a.EndsAt != nil && now.After(*a.EndsAt) {
		return StartDecision{Reason: DenyClosed}
	}
	if a.HasAccessCode() && !codeMatches(*a.AccessCode, suppliedCode) {
		return StartDecision{Reason: DenyInvalidCode}
	}

	terminal := 0
	var lastCompleted *time.Time
	var resume *model.AssessmentSession
	for i := range history {
		s := &history[i]
		if s.Status.Terminal() {
			terminal++
			if s.CompletedAt != nil && (lastCompleted == nil || s.CompletedAt.After(*lastCompleted)) {
				lastCompleted = s.CompletedAt
			}
			continue
		}
		if s.Status == model.SessionStatusInProgress {
			resume = s
		}
	}

	if a.MaxAttempts != nil && terminal >= *a.MaxAttempts {
		return StartDecision{Reason: DenyMaxAttemptsReached}
	}

	if a.CooldownMinutes != nil && lastCompleted != nil {
		until := lastCompleted.Add(time.Duration(*a.CooldownMinutes) * time.Minute)
		if until.After(now) {
			return StartDecision{
				Reason:          DenyCooldownActive,
				CooldownMinutes: minutesCeil(until.Sub(now)),
			}
		}
	}

	return StartDecision{Allowed: true, Resume: resume}
}

// codeMatches compares access codes in constant time so that neither length
// nor content leaks through response timing. ConstantTimeCompare returns 0
// on any length mismatch.
func codeMatches(expected, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}

// minutesCeil converts a duration to whole minutes, rounding up.
func minutesCeil(d time.Duration) int {
	m := int(d / time.Minute)
	if d%time.Minute > 0 {
		m++
	}
	return m
}
