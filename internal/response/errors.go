package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTeacherOnly   ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrRecordNotFound ErrCode = "RECORD_NOT_FOUND"
	ErrConflict       ErrCode = "CONFLICT"

	// ─── Template & answer keys ────────────────────────────────────────
	ErrInvalidRegion      ErrCode = "INVALID_REGION"
	ErrInvalidAnswer      ErrCode = "INVALID_ANSWER_FORMAT"
	ErrUnsupportedForType ErrCode = "UNSUPPORTED_FOR_TYPE"
	ErrNoPaperImage       ErrCode = "NO_PAPER_IMAGE"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"

	// ─── Segmentation ──────────────────────────────────────────────────
	ErrCountMismatch          ErrCode = "COUNT_MISMATCH"
	ErrRegionOutOfBounds      ErrCode = "REGION_OUT_OF_BOUNDS"
	ErrAlreadySegmented       ErrCode = "ALREADY_SEGMENTED"
	ErrSegmentationInProgress ErrCode = "SEGMENTATION_IN_PROGRESS"

	// ─── Grading ───────────────────────────────────────────────────────
	ErrScoreOutOfRange ErrCode = "SCORE_OUT_OF_RANGE"
	ErrExamNotReady    ErrCode = "EXAM_NOT_READY"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrTeacherOnly:
		return "This resource is restricted to teachers."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrRecordNotFound:
		return "Answer record not found."
	case ErrConflict:
		return "Resource already exists."

	case ErrInvalidRegion:
		return "Question region is invalid or outside the reference paper."
	case ErrInvalidAnswer:
		return "Answer key does not match the question type's format."
	case ErrUnsupportedForType:
		return "This question type does not accept an answer key."
	case ErrNoPaperImage:
		return "Upload the reference paper image before defining questions."
	case ErrNoQuestions:
		return "The exam has no question template."

	case ErrCountMismatch:
		return "Number of uploaded sheets does not match the examinee count."
	case ErrRegionOutOfBounds:
		return "A scaled question region falls outside a scanned sheet."
	case ErrAlreadySegmented:
		return "Answer sheets were already processed for this exam."
	case ErrSegmentationInProgress:
		return "Another segmentation batch is currently running for this exam."

	case ErrScoreOutOfRange:
		return "Score must be between zero and the question's full score."
	case ErrExamNotReady:
		return "The exam is not in the required status for this operation."

	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
