package service

import (
	"errors"
	"fmt"
)

// Common service errors, mapped to response codes in the handler layer.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrNotOwner             = errors.New("caller does not own this resource")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrSessionStillActive   = errors.New("session is still in progress")
	ErrQuestionNotInSession = errors.New("question is not part of this session")
	ErrInsufficientPool     = errors.New("question pool is smaller than the configured question count")
	ErrAssessmentNotDraft   = errors.New("assessment is not in draft status")
	ErrAssessmentNotLive    = errors.New("assessment is not published")
	ErrReviewNotAllowed     = errors.New("review is disabled for this assessment")
)

// NotEligibleError is returned by the attempt governor when a new attempt
// may not start. CooldownMinutes carries the remaining wait (rounded up)
// when Reason is DenyCooldownActive.
type NotEligibleError struct {
	Reason          DenyReason
	CooldownMinutes int
}

func (e *NotEligibleError) Error() string {
	if e.Reason == DenyCooldownActive {
		return fmt.Sprintf("attempt not eligible: %s (%d minutes remaining)", e.Reason, e.CooldownMinutes)
	}
	return fmt.Sprintf("attempt not eligible: %s", e.Reason)
}
