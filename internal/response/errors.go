package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrTeacherOnly ErrCode = "TEACHER_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// ─── Resources ─────────────────────────────────────────────────────
	// ErrNotFound deliberately covers both "absent" and "not owned by the
	// caller" so that ownership probes cannot confirm a resource exists.
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrDuplicateUser ErrCode = "DUPLICATE_USER"

	// ─── Attendance ────────────────────────────────────────────────────
	ErrInvalidOrExpiredCode ErrCode = "INVALID_OR_EXPIRED_CODE"
	ErrAlreadyMarked        ErrCode = "ALREADY_MARKED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid login credentials."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Invalid authentication token."
	case ErrTeacherOnly:
		return "Only teachers can create sessions."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrNotFound:
		return "Session not found."
	case ErrDuplicateUser:
		return "Username is already taken."
	case ErrInvalidOrExpiredCode:
		return "Invalid or expired session code."
	case ErrAlreadyMarked:
		return "Attendance already marked for this session."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
