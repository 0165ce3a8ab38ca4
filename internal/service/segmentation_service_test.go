package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/config"
	"github.com/ccccowo/imark-backend/internal/model"
)

// pngSheet renders a solid-color scan of the given pixel size.
func pngSheet(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type segFixture struct {
	svc       *SegmentationService
	store     *memStore
	images    *memImageStore
	locker    *memLocker
	examID    uuid.UUID
	examinees []model.Examinee
}

// newSegFixture builds an exam with a 1000x1400 reference paper, the
// given number of questions and examinees, ready for extraction.
func newSegFixture(t *testing.T, numQuestions, numExaminees int) *segFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	images := newMemImageStore()
	locker := newMemLocker()

	examID := uuid.New()
	examinees := make([]model.Examinee, numExaminees)
	for i := range examinees {
		examinees[i] = model.Examinee{
			ID:        uuid.New(),
			ExamID:    examID,
			Name:      "Student",
			StudentID: string(rune('a' + i)),
		}
	}
	exam := &model.Exam{
		ID:          examID,
		Name:        "final",
		Status:      model.ExamStatusReady,
		PaperWidth:  1000,
		PaperHeight: 1400,
	}
	if err := store.Create(ctx, exam, examinees); err != nil {
		t.Fatal(err)
	}

	questions := make([]model.Question, numQuestions)
	for i := range questions {
		questions[i] = model.Question{
			ID:        uuid.New(),
			ExamID:    examID,
			OrderNum:  i + 1,
			Region:    model.Region{X: 100, Y: float64(i) * 200, Width: 800, Height: 150},
			FullScore: 10,
		}
	}
	if err := store.ReplaceAll(ctx, examID, questions); err != nil {
		t.Fatal(err)
	}

	lifecycle := NewExamLifecycle(store, zerolog.Nop())
	svc := NewSegmentationService(
		store, questionStoreAdapter{store}, store, answerStoreAdapter{store},
		images, locker, lifecycle, zerolog.Nop(),
	)
	return &segFixture{
		svc:       svc,
		store:     store,
		images:    images,
		locker:    locker,
		examID:    examID,
		examinees: examinees,
	}
}

func (f *segFixture) sheets(t *testing.T, width, height int) []SheetInput {
	t.Helper()
	data := pngSheet(t, width, height)
	sheets := make([]SheetInput, len(f.examinees))
	for i, ex := range f.examinees {
		sheets[i] = SheetInput{ExamineeID: ex.ID, Data: data}
	}
	return sheets
}

func TestSegmentationCreatesOneRecordPerPair(t *testing.T) {
	f := newSegFixture(t, 1, 10)
	ctx := context.Background()

	// Scans at half the reference resolution still map correctly.
	if err := f.svc.Run(ctx, f.examID, f.sheets(t, 500, 700)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	paths := make(map[string]bool)
	records := 0
	for _, r := range f.store.records {
		records++
		if r.ExamID != f.examID {
			t.Fatal("record for wrong exam")
		}
		if paths[r.ImagePath] {
			t.Fatalf("duplicate image path %s", r.ImagePath)
		}
		paths[r.ImagePath] = true
		if r.FullScore != 10 {
			t.Fatalf("record full score = %v, want 10", r.FullScore)
		}
		if r.IsGraded {
			t.Fatal("fresh record marked graded")
		}
	}
	if records != 10 {
		t.Fatalf("got %d records, want 10", records)
	}

	exam, _ := f.store.GetByID(ctx, f.examID)
	if exam.Status != model.ExamStatusGrading {
		t.Fatalf("exam status = %s, want GRADING", exam.Status)
	}
}

func TestSegmentationCountMismatch(t *testing.T) {
	f := newSegFixture(t, 2, 3)
	ctx := context.Background()

	sheets := f.sheets(t, 1000, 1400)[:2] // 2 sheets for 3 examinees
	err := f.svc.Run(ctx, f.examID, sheets)
	if !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("got %v, want ErrCountMismatch", err)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("%d records created on count mismatch", len(f.store.records))
	}
	if f.images.count() != 0 {
		t.Fatal("images written before count check")
	}
	exam, _ := f.store.GetByID(ctx, f.examID)
	if exam.Status != model.ExamStatusReady {
		t.Fatalf("exam status = %s, want READY", exam.Status)
	}
}

func TestSegmentationRegionOutOfBounds(t *testing.T) {
	f := newSegFixture(t, 3, 2)
	ctx := context.Background()

	// A fractional region flush against the right edge. Origin and width
	// round independently (995.5 -> 996, 4.5 -> 5), so the scaled
	// rectangle ends at 1001 on a 1000px sheet.
	q := model.Question{
		ID:        uuid.New(),
		ExamID:    f.examID,
		OrderNum:  4,
		Region:    model.Region{X: 995.5, Y: 0, Width: 4.5, Height: 1400},
		FullScore: 5,
	}
	f.store.questions[q.ID] = &q

	err := f.svc.Run(ctx, f.examID, f.sheets(t, 1000, 1400))
	if !errors.Is(err, ErrRegionOutOfBounds) {
		t.Fatalf("got %v, want ErrRegionOutOfBounds", err)
	}

	// The whole batch is compensated: no records, no leftover images.
	if len(f.store.records) != 0 {
		t.Fatalf("%d records visible after failed batch", len(f.store.records))
	}
	if f.images.count() != 0 {
		t.Fatalf("%d images left after compensation", f.images.count())
	}
}

func TestSegmentationRollsBackOnStorageFailure(t *testing.T) {
	f := newSegFixture(t, 2, 2)
	ctx := context.Background()

	f.images.failAfter = 3 // third crop write fails

	err := f.svc.Run(ctx, f.examID, f.sheets(t, 1000, 1400))
	if err == nil {
		t.Fatal("Run succeeded despite storage failure")
	}
	if len(f.store.records) != 0 {
		t.Fatal("records visible after failed batch")
	}
	if f.images.count() != 0 {
		t.Fatal("images left after compensation")
	}
}

func TestSegmentationSecondRunRejected(t *testing.T) {
	f := newSegFixture(t, 1, 2)
	ctx := context.Background()

	if err := f.svc.Run(ctx, f.examID, f.sheets(t, 1000, 1400)); err != nil {
		t.Fatal(err)
	}
	err := f.svc.Run(ctx, f.examID, f.sheets(t, 1000, 1400))
	if !errors.Is(err, ErrAlreadySegmented) {
		t.Fatalf("got %v, want ErrAlreadySegmented", err)
	}
}

func TestSegmentationRejectedWhileLockHeld(t *testing.T) {
	f := newSegFixture(t, 1, 1)
	ctx := context.Background()

	key := config.SegmentationLockKey(f.examID.String())
	if _, err := f.locker.TryAcquire(ctx, key, 0); err != nil {
		t.Fatal(err)
	}

	err := f.svc.Run(ctx, f.examID, f.sheets(t, 1000, 1400))
	if !errors.Is(err, ErrSegmentationInProgress) {
		t.Fatalf("got %v, want ErrSegmentationInProgress", err)
	}
}

func TestSegmentationUnknownExaminee(t *testing.T) {
	f := newSegFixture(t, 1, 2)
	ctx := context.Background()

	sheets := f.sheets(t, 1000, 1400)
	sheets[1].ExamineeID = uuid.New()

	err := f.svc.Run(ctx, f.examID, sheets)
	if !errors.Is(err, ErrExamineeNotFound) {
		t.Fatalf("got %v, want ErrExamineeNotFound", err)
	}
}
