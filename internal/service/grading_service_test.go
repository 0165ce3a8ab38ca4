package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/oracle"
)

type gradingFixture struct {
	svc     *GradingService
	store   *memStore
	bus     *memBus
	examID  uuid.UUID
	records []model.AnswerRecord
}

// newGradingFixture builds a GRADING exam with numExaminees students
// and numQuestions answer records each, all ungraded, full score 10.
func newGradingFixture(t *testing.T, numQuestions, numExaminees int) *gradingFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	bus := &memBus{}

	examID := uuid.New()
	examinees := make([]model.Examinee, numExaminees)
	for i := range examinees {
		examinees[i] = model.Examinee{ID: uuid.New(), ExamID: examID, StudentID: string(rune('a' + i))}
	}
	exam := &model.Exam{ID: examID, Name: "final", Status: model.ExamStatusGrading}
	if err := store.Create(ctx, exam, examinees); err != nil {
		t.Fatal(err)
	}

	var records []model.AnswerRecord
	for q := 0; q < numQuestions; q++ {
		questionID := uuid.New()
		for _, ex := range examinees {
			records = append(records, model.AnswerRecord{
				ID:         uuid.New(),
				ExamID:     examID,
				QuestionID: questionID,
				ExamineeID: ex.ID,
				ImagePath:  "/uploads/x.jpg",
				FullScore:  10,
			})
		}
	}
	if err := store.CreateBatch(ctx, records); err != nil {
		t.Fatal(err)
	}

	lifecycle := NewExamLifecycle(store, zerolog.Nop())
	svc := NewGradingService(answerStoreAdapter{store}, store, lifecycle, bus, zerolog.Nop())
	return &gradingFixture{svc: svc, store: store, bus: bus, examID: examID, records: records}
}

func TestTeacherGradeUpdatesTotal(t *testing.T) {
	f := newGradingFixture(t, 2, 1)
	ctx := context.Background()

	rec, err := f.svc.RecordTeacherGrade(ctx, &model.TeacherGradeRequest{
		AnswerID: f.records[0].ID, Score: 7.5, Comment: "partial credit",
	})
	if err != nil {
		t.Fatalf("RecordTeacherGrade: %v", err)
	}
	if !rec.IsGraded || rec.TeacherScore == nil || *rec.TeacherScore != 7.5 {
		t.Fatalf("record not graded as requested: %+v", rec)
	}

	if _, err := f.svc.RecordTeacherGrade(ctx, &model.TeacherGradeRequest{
		AnswerID: f.records[1].ID, Score: 4,
	}); err != nil {
		t.Fatal(err)
	}

	examinees, _ := f.store.ListByExam(ctx, f.examID)
	if got := examinees[0].TotalScore; got != 11.5 {
		t.Fatalf("total = %v, want 11.5", got)
	}
}

func TestTeacherGradeScoreOutOfRange(t *testing.T) {
	f := newGradingFixture(t, 1, 1)
	ctx := context.Background()
	id := f.records[0].ID

	for _, score := range []float64{-1, 10.01, 11} {
		_, err := f.svc.RecordTeacherGrade(ctx, &model.TeacherGradeRequest{AnswerID: id, Score: score})
		if !errors.Is(err, ErrScoreOutOfRange) {
			t.Fatalf("score %v: got %v, want ErrScoreOutOfRange", score, err)
		}
	}

	// Prior state untouched.
	rec, err := f.svc.GetRecord(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.IsGraded || rec.TeacherScore != nil {
		t.Fatalf("rejected grade left a mark: %+v", rec)
	}
}

func TestGradingCompletenessTransition(t *testing.T) {
	f := newGradingFixture(t, 2, 2)
	ctx := context.Background()

	for i, rec := range f.records {
		if _, err := f.svc.RecordTeacherGrade(ctx, &model.TeacherGradeRequest{
			AnswerID: rec.ID, Score: float64(i + 1),
		}); err != nil {
			t.Fatal(err)
		}

		exam, _ := f.store.GetByID(ctx, f.examID)
		if i < len(f.records)-1 && exam.Status != model.ExamStatusGrading {
			t.Fatalf("exam completed after %d of %d grades", i+1, len(f.records))
		}
	}

	exam, _ := f.store.GetByID(ctx, f.examID)
	if exam.Status != model.ExamStatusCompleted {
		t.Fatalf("exam status = %s, want COMPLETED", exam.Status)
	}

	// Every grade published a progress event.
	if len(f.bus.published) != len(f.records) {
		t.Fatalf("published %d events, want %d", len(f.bus.published), len(f.records))
	}
}

func TestAIGradeIsAdvisoryOnly(t *testing.T) {
	f := newGradingFixture(t, 1, 1)
	ctx := context.Background()
	id := f.records[0].ID

	rec, err := f.svc.RecordAIGrade(ctx, id, &oracle.Result{Score: 8, Comment: "looks right", Confidence: 0.9})
	if err != nil {
		t.Fatalf("RecordAIGrade: %v", err)
	}
	if rec.AIScore == nil || *rec.AIScore != 8 || rec.AIConfidence == nil || *rec.AIConfidence != 0.9 {
		t.Fatalf("ai fields not recorded: %+v", rec)
	}
	if rec.IsGraded {
		t.Fatal("ai grade set is_graded")
	}

	examinees, _ := f.store.ListByExam(ctx, f.examID)
	if examinees[0].TotalScore != 0 {
		t.Fatalf("ai grade changed total to %v", examinees[0].TotalScore)
	}

	exam, _ := f.store.GetByID(ctx, f.examID)
	if exam.Status != model.ExamStatusGrading {
		t.Fatalf("ai grade moved exam to %s", exam.Status)
	}
}

func TestEnqueueAIGrade(t *testing.T) {
	f := newGradingFixture(t, 1, 1)
	ctx := context.Background()

	if err := f.svc.EnqueueAIGrade(ctx, f.records[0].ID); err != nil {
		t.Fatal(err)
	}
	if len(f.bus.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(f.bus.enqueued))
	}
	var job AIGradingJob
	if err := json.Unmarshal(f.bus.enqueued[0], &job); err != nil {
		t.Fatal(err)
	}
	if job.AnswerID != f.records[0].ID {
		t.Fatalf("job answer id = %s, want %s", job.AnswerID, f.records[0].ID)
	}

	if err := f.svc.EnqueueAIGrade(ctx, uuid.New()); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("unknown record: got %v, want ErrRecordNotFound", err)
	}
}

func TestGradeUnknownRecord(t *testing.T) {
	f := newGradingFixture(t, 1, 1)
	ctx := context.Background()

	_, err := f.svc.RecordTeacherGrade(ctx, &model.TeacherGradeRequest{AnswerID: uuid.New(), Score: 1})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("got %v, want ErrRecordNotFound", err)
	}
}
