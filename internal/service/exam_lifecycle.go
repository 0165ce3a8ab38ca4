package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
)

// ExamStatusStore is the persistence surface the lifecycle engine needs.
// UpdateStatusIf performs a compare-and-swap: the row is updated only if
// its current status equals expect, and the store reports whether a row
// actually changed.
type ExamStatusStore interface {
	UpdateStatusIf(ctx context.Context, examID uuid.UUID, expect, next model.ExamStatus) (bool, error)
}

// ExamLifecycle is the single writer of exam status. All transitions go
// through it so no other code path can invent a status change.
type ExamLifecycle struct {
	store ExamStatusStore
	log   zerolog.Logger
}

// NewExamLifecycle creates an ExamLifecycle.
func NewExamLifecycle(store ExamStatusStore, log zerolog.Logger) *ExamLifecycle {
	return &ExamLifecycle{
		store: store,
		log:   log.With().Str("component", "exam_lifecycle").Logger(),
	}
}

// BeginGrading moves an exam from READY to GRADING. Called exactly once,
// by the extraction step after all answer records are persisted.
func (l *ExamLifecycle) BeginGrading(ctx context.Context, examID uuid.UUID) error {
	return l.transition(ctx, examID, model.ExamStatusReady, model.ExamStatusGrading)
}

// Complete moves an exam from GRADING to COMPLETED. Called when the last
// ungraded answer record receives its teacher grade.
func (l *ExamLifecycle) Complete(ctx context.Context, examID uuid.UUID) error {
	return l.transition(ctx, examID, model.ExamStatusGrading, model.ExamStatusCompleted)
}

func (l *ExamLifecycle) transition(ctx context.Context, examID uuid.UUID, from, to model.ExamStatus) error {
	swapped, err := l.store.UpdateStatusIf(ctx, examID, from, to)
	if err != nil {
		return fmt.Errorf("transition %s to %s: %w", from, to, err)
	}
	if !swapped {
		// Another writer got there first, or the exam is in a state this
		// transition does not start from. The state machine has no
		// backward edges, so the caller's precondition no longer holds.
		return fmt.Errorf("exam %s: %w", examID, preconditionErr(from))
	}

	l.log.Info().
		Str("exam_id", examID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Exam status transition")

	return nil
}

// preconditionErr maps an expected source status to the matching
// sentinel, so handlers can report the precise precondition that failed.
func preconditionErr(from model.ExamStatus) error {
	if from == model.ExamStatusGrading {
		return ErrExamNotGrading
	}
	return ErrExamNotReady
}
