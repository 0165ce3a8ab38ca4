package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
)

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	lc := NewExamLifecycle(store, zerolog.Nop())

	exam := &model.Exam{ID: uuid.New(), Name: "midterm", Status: model.ExamStatusReady}
	if err := store.Create(ctx, exam, nil); err != nil {
		t.Fatal(err)
	}

	// GRADING before READY->GRADING ran is rejected.
	if err := lc.Complete(ctx, exam.ID); !errors.Is(err, ErrExamNotGrading) {
		t.Fatalf("Complete on READY exam: got %v, want ErrExamNotGrading", err)
	}

	if err := lc.BeginGrading(ctx, exam.ID); err != nil {
		t.Fatalf("BeginGrading: %v", err)
	}
	got, _ := store.GetByID(ctx, exam.ID)
	if got.Status != model.ExamStatusGrading {
		t.Fatalf("status = %s, want GRADING", got.Status)
	}

	// The same transition cannot fire twice.
	if err := lc.BeginGrading(ctx, exam.ID); !errors.Is(err, ErrExamNotReady) {
		t.Fatalf("second BeginGrading: got %v, want ErrExamNotReady", err)
	}

	if err := lc.Complete(ctx, exam.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = store.GetByID(ctx, exam.ID)
	if got.Status != model.ExamStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}

	// COMPLETED is terminal.
	if err := lc.BeginGrading(ctx, exam.ID); err == nil {
		t.Fatal("BeginGrading on COMPLETED exam succeeded")
	}
	if err := lc.Complete(ctx, exam.ID); err == nil {
		t.Fatal("Complete on COMPLETED exam succeeded")
	}
}
