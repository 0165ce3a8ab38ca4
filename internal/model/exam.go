package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam. The set is
// closed: no other value is accepted anywhere in the system, and only
// the lifecycle engine writes it.
type ExamStatus string

const (
	// ExamStatusReady: created, template editable, no answers extracted yet.
	ExamStatusReady ExamStatus = "READY"
	// ExamStatusGrading: batch extraction succeeded, answers pending grading.
	ExamStatusGrading ExamStatus = "GRADING"
	// ExamStatusCompleted: every answer record carries a teacher grade. Terminal.
	ExamStatusCompleted ExamStatus = "COMPLETED"
)

// Valid reports whether s is one of the three accepted status values.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusReady, ExamStatusGrading, ExamStatusCompleted:
		return true
	}
	return false
}

// Exam represents one paper exam being digitized.
type Exam struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Status     ExamStatus `json:"status"`
	PaperImage string     `json:"paper_image,omitempty"`
	// Pixel dimensions of the reference paper, recorded at upload time.
	// Question regions are validated against these bounds.
	PaperWidth  int       `json:"paper_width,omitempty"`
	PaperHeight int       `json:"paper_height,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaperSize returns the reference paper dimensions.
func (e *Exam) PaperSize() Size {
	return Size{Width: e.PaperWidth, Height: e.PaperHeight}
}

// CreateExamRequest is the payload for creating a new exam together
// with its examinee roster.
type CreateExamRequest struct {
	Name      string                `json:"name" binding:"required,min=1,max=255"`
	Examinees []CreateExamineeEntry `json:"examinees" binding:"required,min=1,dive"`
}

// CreateExamineeEntry is one roster row in a CreateExamRequest.
type CreateExamineeEntry struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	StudentID string `json:"student_id" binding:"required,min=1,max=50"`
}

// ExamResults is the grading summary for an exam.
type ExamResults struct {
	Exam      *Exam      `json:"exam"`
	Examinees []Examinee `json:"examinees"`
	Graded    int        `json:"graded"`
	Total     int        `json:"total"`
}
