package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrCreatorAccessOnly   ErrCode = "CREATOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt eligibility ───────────────────────────────────────────
	ErrAssessmentNotPublished ErrCode = "ASSESSMENT_NOT_PUBLISHED"
	ErrAssessmentNotYetOpen   ErrCode = "ASSESSMENT_NOT_YET_OPEN"
	ErrAssessmentClosed       ErrCode = "ASSESSMENT_CLOSED"
	ErrInvalidAccessCode      ErrCode = "INVALID_ACCESS_CODE"
	ErrMaxAttemptsReached     ErrCode = "MAX_ATTEMPTS_REACHED"
	ErrCooldownActive         ErrCode = "COOLDOWN_ACTIVE"

	// ─── Session transitions ───────────────────────────────────────────
	ErrSessionNotActive     ErrCode = "SESSION_NOT_ACTIVE"
	ErrSessionStillActive   ErrCode = "SESSION_STILL_ACTIVE"
	ErrQuestionNotInSession ErrCode = "QUESTION_NOT_IN_SESSION"

	// ─── Assessment configuration ──────────────────────────────────────
	ErrInsufficientPool   ErrCode = "INSUFFICIENT_POOL"
	ErrAssessmentNotDraft ErrCode = "ASSESSMENT_NOT_DRAFT"
	ErrReviewNotAllowed   ErrCode = "REVIEW_NOT_ALLOWED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrCreatorAccessOnly:
		return "This resource is restricted to creators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Attempt eligibility ───────────────────────────────────────────
	case ErrAssessmentNotPublished:
		return "This assessment is not published."
	case ErrAssessmentNotYetOpen:
		return "This assessment is not open yet."
	case ErrAssessmentClosed:
		return "This assessment is closed."
	case ErrInvalidAccessCode:
		return "The access code is invalid."
	case ErrMaxAttemptsReached:
		return "You have used all allowed attempts for this assessment."
	case ErrCooldownActive:
		return "You must wait before starting a new attempt."

	// ─── Session transitions ───────────────────────────────────────────
	case ErrSessionNotActive:
		return "This session is already finished."
	case ErrSessionStillActive:
		return "This session is still in progress."
	case ErrQuestionNotInSession:
		return "The question is not part of this session."

	// ─── Assessment configuration ──────────────────────────────────────
	case ErrInsufficientPool:
		return "The question pool is smaller than the configured question count."
	case ErrAssessmentNotDraft:
		return "This assessment is not in DRAFT status."
	case ErrReviewNotAllowed:
		return "Result review is disabled for this assessment."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
