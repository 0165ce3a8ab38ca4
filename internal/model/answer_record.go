package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerRecord is one extracted answer image for one examinee on one
// question, plus its scores. Exactly one record exists per
// (exam, question, examinee); records are created only by the batch
// extraction step, never standalone.
//
// Teacher fields are authoritative; AI fields are advisory and never
// contribute to IsGraded or totals.
type AnswerRecord struct {
	ID             uuid.UUID `json:"id"`
	ExamID         uuid.UUID `json:"exam_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	ExamineeID     uuid.UUID `json:"examinee_id"`
	ImagePath      string    `json:"image_path"`
	FullScore      float64   `json:"full_score"`
	TeacherScore   *float64  `json:"teacher_score,omitempty"`
	TeacherComment string    `json:"teacher_comment,omitempty"`
	AIScore        *float64  `json:"ai_score,omitempty"`
	AIComment      string    `json:"ai_comment,omitempty"`
	AIConfidence   *float64  `json:"ai_confidence,omitempty"`
	IsGraded       bool      `json:"is_graded"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TeacherGradeRequest is the payload for recording a teacher grade.
type TeacherGradeRequest struct {
	AnswerID uuid.UUID `json:"answer_id" binding:"required"`
	Score    float64   `json:"score" binding:"min=0"`
	Comment  string    `json:"comment" binding:"omitempty,max=2000"`
}

// AIGradeRequest asks for an advisory AI grade of one answer record.
type AIGradeRequest struct {
	AnswerID uuid.UUID `json:"answer_id" binding:"required"`
}
