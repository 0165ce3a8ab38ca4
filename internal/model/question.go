package model

import (
	"github.com/google/uuid"
)

// QuestionType classifies how a question is answered and whether an
// answer key can exist for it.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeFillBlank      QuestionType = "FILL_BLANK"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice,
		QuestionTypeTrueFalse, QuestionTypeFillBlank, QuestionTypeShortAnswer:
		return true
	}
	return false
}

// Keyable reports whether the type accepts a stored correct-answer key.
// FILL_BLANK and SHORT_ANSWER need human judgement and carry none.
func (t QuestionType) Keyable() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// Question is one template entry: the region a question occupies on the
// reference paper plus its grading metadata. Owned by the exam; the
// whole ordered set is replaced atomically.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	OrderNum      int          `json:"order_num"`
	Region        Region       `json:"region"`
	QuestionType  QuestionType `json:"question_type"`
	FullScore     float64      `json:"full_score"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
}

// ReplaceQuestionsRequest atomically replaces the exam's template.
type ReplaceQuestionsRequest struct {
	Questions []TemplateEntry `json:"questions" binding:"required,min=1,dive"`
}

// TemplateEntry is one region definition in a template replace.
type TemplateEntry struct {
	OrderNum int    `json:"order_num" binding:"required,min=1"`
	Region   Region `json:"region" binding:"required"`
}

// AssignKeysRequest applies score/type/answer-key settings over
// contiguous, non-overlapping question ranges in one batch.
type AssignKeysRequest struct {
	Ranges []KeyRange `json:"ranges" binding:"required,min=1,dive"`
}

// KeyRange covers questions [StartNum, EndNum] with one type and score.
// CorrectAnswer is the raw batch string the answer-key codec splits.
type KeyRange struct {
	StartNum      int     `json:"start_num" binding:"required,min=1"`
	EndNum        int     `json:"end_num" binding:"required,min=1"`
	Score         float64 `json:"score" binding:"required,gt=0"`
	Type          string  `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTIPLE_CHOICE TRUE_FALSE FILL_BLANK SHORT_ANSWER"`
	CorrectAnswer string  `json:"correct_answer" binding:"omitempty"`
}
