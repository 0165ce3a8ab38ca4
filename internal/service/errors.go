package service

import "errors"

// Domain Errors
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamineeNotFound = errors.New("examinee not found")
	ErrRecordNotFound   = errors.New("answer record not found")
	ErrQuestionNotFound = errors.New("question not found")

	// ErrExamNotReady: the operation requires READY status, such as editing
	// the template or deleting the exam.
	ErrExamNotReady = errors.New("exam is not in READY status")

	// ErrExamNotGrading: grading operations require GRADING status.
	ErrExamNotGrading = errors.New("exam is not in GRADING status")

	// ErrAlreadySegmented: answer extraction already ran for this exam.
	ErrAlreadySegmented = errors.New("exam answers already extracted")

	// ErrSegmentationInProgress: another extraction holds the per-exam lock.
	ErrSegmentationInProgress = errors.New("answer extraction already in progress")

	// ErrCountMismatch: sheet count does not equal roster size.
	ErrCountMismatch = errors.New("sheet count does not match examinee count")

	// ErrRegionOutOfBounds: a scaled region fell outside a sheet.
	ErrRegionOutOfBounds = errors.New("scaled region exceeds sheet bounds")

	// ErrScoreOutOfRange: a grade outside [0, full_score].
	ErrScoreOutOfRange = errors.New("score outside allowed range")

	// ErrRangeOverlap: answer-key ranges overlap or cover unknown questions.
	ErrRangeOverlap = errors.New("question ranges overlap or are invalid")

	// ErrDuplicateStudentID: the roster repeats a student id.
	ErrDuplicateStudentID = errors.New("duplicate student id in roster")

	// ErrNoTemplate: extraction or key assignment requires a saved template.
	ErrNoTemplate = errors.New("exam has no question template")

	// ErrNoPaper: operations that need the reference paper dimensions.
	ErrNoPaper = errors.New("exam has no reference paper uploaded")

	// ErrBadImage: an upload that does not decode as JPEG or PNG.
	ErrBadImage = errors.New("image cannot be decoded")
)
