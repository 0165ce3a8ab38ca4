package model

import (
	"time"

	"github.com/google/uuid"
)

// Examinee is one student sitting an exam. Unique per (exam, student_id).
// TotalScore is derived: always the full sum of that examinee's teacher
// scores, recomputed whenever any of their answer records changes.
type Examinee struct {
	ID         uuid.UUID `json:"id"`
	ExamID     uuid.UUID `json:"exam_id"`
	Name       string    `json:"name"`
	StudentID  string    `json:"student_id"`
	TotalScore float64   `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
}
