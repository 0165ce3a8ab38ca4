package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/answerkey"
	"github.com/ccccowo/imark-backend/internal/model"
)

func newTemplateFixture(t *testing.T) (*TemplateService, *memStore, uuid.UUID) {
	t.Helper()
	store := newMemStore()
	exam := &model.Exam{
		ID:          uuid.New(),
		Name:        "midterm",
		Status:      model.ExamStatusReady,
		PaperWidth:  1000,
		PaperHeight: 1400,
	}
	if err := store.Create(context.Background(), exam, nil); err != nil {
		t.Fatal(err)
	}
	svc := NewTemplateService(store, questionStoreAdapter{store}, zerolog.Nop())
	return svc, store, exam.ID
}

func region(x, y, w, h float64) model.Region {
	return model.Region{X: x, Y: y, Width: w, Height: h}
}

func TestTemplateReplace(t *testing.T) {
	svc, _, examID := newTemplateFixture(t)
	ctx := context.Background()

	questions, err := svc.Replace(ctx, examID, &model.ReplaceQuestionsRequest{
		Questions: []model.TemplateEntry{
			{OrderNum: 2, Region: region(0, 200, 500, 100)},
			{OrderNum: 1, Region: region(0, 0, 500, 100)},
		},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].OrderNum != 1 || questions[1].OrderNum != 2 {
		t.Fatal("questions not ordered by order_num")
	}
}

func TestTemplateReplaceRejectsOutOfBoundsRegion(t *testing.T) {
	svc, _, examID := newTemplateFixture(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, examID, &model.ReplaceQuestionsRequest{
		Questions: []model.TemplateEntry{
			{OrderNum: 1, Region: region(0, 0, 500, 100)},
			{OrderNum: 2, Region: region(800, 0, 500, 100)}, // x+w > 1000
		},
	})
	if !errors.Is(err, model.ErrInvalidRegion) {
		t.Fatalf("got %v, want ErrInvalidRegion", err)
	}

	// One bad region rejects the whole batch.
	existing, err := svc.List(ctx, examID)
	if err != nil {
		t.Fatal(err)
	}
	if len(existing) != 0 {
		t.Fatalf("partial template visible: %d questions", len(existing))
	}
}

func TestTemplateReplaceIsAtomicSwap(t *testing.T) {
	svc, _, examID := newTemplateFixture(t)
	ctx := context.Background()

	first := &model.ReplaceQuestionsRequest{Questions: []model.TemplateEntry{
		{OrderNum: 1, Region: region(0, 0, 500, 100)},
		{OrderNum: 2, Region: region(0, 200, 500, 100)},
		{OrderNum: 3, Region: region(0, 400, 500, 100)},
	}}
	if _, err := svc.Replace(ctx, examID, first); err != nil {
		t.Fatal(err)
	}

	second := &model.ReplaceQuestionsRequest{Questions: []model.TemplateEntry{
		{OrderNum: 1, Region: region(10, 10, 400, 80)},
	}}
	if _, err := svc.Replace(ctx, examID, second); err != nil {
		t.Fatal(err)
	}

	questions, err := svc.List(ctx, examID)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 {
		t.Fatalf("old template leaked through: %d questions", len(questions))
	}
}

func TestAssignKeysCanonicalizesAnswers(t *testing.T) {
	svc, _, examID := newTemplateFixture(t)
	ctx := context.Background()

	entries := make([]model.TemplateEntry, 6)
	for i := range entries {
		entries[i] = model.TemplateEntry{OrderNum: i + 1, Region: region(0, float64(i)*200, 500, 100)}
	}
	if _, err := svc.Replace(ctx, examID, &model.ReplaceQuestionsRequest{Questions: entries}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AssignKeys(ctx, examID, &model.AssignKeysRequest{Ranges: []model.KeyRange{
		{StartNum: 1, EndNum: 2, Score: 5, Type: "SINGLE_CHOICE", CorrectAnswer: "a C"},
		{StartNum: 3, EndNum: 3, Score: 10, Type: "MULTIPLE_CHOICE", CorrectAnswer: "cab"},
		{StartNum: 4, EndNum: 5, Score: 2, Type: "TRUE_FALSE", CorrectAnswer: "tF"},
		{StartNum: 6, EndNum: 6, Score: 20, Type: "SHORT_ANSWER"},
	}})
	if err != nil {
		t.Fatalf("AssignKeys: %v", err)
	}

	questions, err := svc.List(ctx, examID)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		typ    model.QuestionType
		score  float64
		answer string
	}{
		{model.QuestionTypeSingleChoice, 5, "A"},
		{model.QuestionTypeSingleChoice, 5, "C"},
		{model.QuestionTypeMultipleChoice, 10, "ABC"},
		{model.QuestionTypeTrueFalse, 2, "T"},
		{model.QuestionTypeTrueFalse, 2, "F"},
		{model.QuestionTypeShortAnswer, 20, ""},
	}
	for i, w := range want {
		q := questions[i]
		if q.QuestionType != w.typ || q.FullScore != w.score || q.CorrectAnswer != w.answer {
			t.Errorf("q%d = {%s %.0f %q}, want {%s %.0f %q}",
				q.OrderNum, q.QuestionType, q.FullScore, q.CorrectAnswer, w.typ, w.score, w.answer)
		}
	}
}

func TestAssignKeysRejectsBadBatches(t *testing.T) {
	svc, _, examID := newTemplateFixture(t)
	ctx := context.Background()

	entries := make([]model.TemplateEntry, 4)
	for i := range entries {
		entries[i] = model.TemplateEntry{OrderNum: i + 1, Region: region(0, float64(i)*200, 500, 100)}
	}
	if _, err := svc.Replace(ctx, examID, &model.ReplaceQuestionsRequest{Questions: entries}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		ranges []model.KeyRange
		want   error
	}{
		{
			name: "overlapping ranges",
			ranges: []model.KeyRange{
				{StartNum: 1, EndNum: 3, Score: 5, Type: "SINGLE_CHOICE", CorrectAnswer: "A B C"},
				{StartNum: 3, EndNum: 4, Score: 5, Type: "SINGLE_CHOICE", CorrectAnswer: "A B"},
			},
			want: ErrRangeOverlap,
		},
		{
			name: "unknown question",
			ranges: []model.KeyRange{
				{StartNum: 4, EndNum: 5, Score: 5, Type: "SINGLE_CHOICE", CorrectAnswer: "A B"},
			},
			want: ErrQuestionNotFound,
		},
		{
			name: "token count mismatch",
			ranges: []model.KeyRange{
				{StartNum: 1, EndNum: 3, Score: 5, Type: "SINGLE_CHOICE", CorrectAnswer: "A B"},
			},
			want: answerkey.ErrInvalidFormat,
		},
		{
			name: "key on short answer",
			ranges: []model.KeyRange{
				{StartNum: 1, EndNum: 1, Score: 5, Type: "SHORT_ANSWER", CorrectAnswer: "A"},
			},
			want: answerkey.ErrUnsupportedForType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AssignKeys(ctx, examID, &model.AssignKeysRequest{Ranges: tc.ranges})
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}

			// Nothing may be applied on failure.
			questions, lerr := svc.List(ctx, examID)
			if lerr != nil {
				t.Fatal(lerr)
			}
			for _, q := range questions {
				if q.FullScore != 0 || q.CorrectAnswer != "" {
					t.Fatalf("partial key application on q%d", q.OrderNum)
				}
			}
		})
	}
}

func TestTemplateFrozenAfterReady(t *testing.T) {
	svc, store, examID := newTemplateFixture(t)
	ctx := context.Background()

	if _, err := store.UpdateStatusIf(ctx, examID, model.ExamStatusReady, model.ExamStatusGrading); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Replace(ctx, examID, &model.ReplaceQuestionsRequest{
		Questions: []model.TemplateEntry{{OrderNum: 1, Region: region(0, 0, 100, 100)}},
	})
	if !errors.Is(err, ErrExamNotReady) {
		t.Fatalf("Replace on GRADING exam: got %v, want ErrExamNotReady", err)
	}
}
