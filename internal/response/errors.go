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
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrClaimMissing       ErrCode = "CLAIM_MISSING"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrStaffAccessOnly     ErrCode = "STAFF_ACCESS_ONLY"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrContestNotFound   ErrCode = "CONTEST_NOT_FOUND"
	ErrCandidateNotFound ErrCode = "CANDIDATE_NOT_FOUND"
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"

	// ─── Delivery & grading ────────────────────────────────────────────
	ErrNoQuestionsAvailable   ErrCode = "NO_QUESTIONS_AVAILABLE"
	ErrInsufficientQuestions  ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrContestClosed          ErrCode = "CONTEST_CLOSED"
	ErrReportNotPublished     ErrCode = "REPORT_NOT_PUBLISHED"
	ErrRegistrationWindowOver ErrCode = "REGISTRATION_WINDOW_OVER"

	// ─── Store ─────────────────────────────────────────────────────────
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
	ErrStoreConflict    ErrCode = "STORE_CONFLICT"

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
		return "Invalid credentials."
	case ErrSessionActive:
		return "Another session is already active. Contact staff to reset it."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrClaimMissing:
		return "The token is missing a required claim."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStaffAccessOnly:
		return "This resource is restricted to staff."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrContestNotFound:
		return "Contest not found."
	case ErrCandidateNotFound:
		return "No record found for this candidate."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Delivery & grading ────────────────────────────────────────────
	case ErrNoQuestionsAvailable:
		return "This contest has no questions."
	case ErrInsufficientQuestions:
		return "The configured question count exceeds the question bank size."
	case ErrContestClosed:
		return "This contest is closed."
	case ErrReportNotPublished:
		return "Results for this contest have not been published yet."
	case ErrRegistrationWindowOver:
		return "The registration window for this contest is not open."

	// ─── Store ─────────────────────────────────────────────────────────
	case ErrStoreUnavailable:
		return "The data store is temporarily unavailable. Please retry."
	case ErrStoreConflict:
		return "The record was modified concurrently. Please retry."

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
