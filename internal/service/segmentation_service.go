package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	// Sheet uploads arrive as JPEG or PNG scans.
	_ "image/png"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/config"
	"github.com/ccccowo/imark-backend/internal/lock"
	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/storage"
)

// segmentationLockTTL bounds how long a crashed extraction can keep an
// exam locked before a retry is possible.
const segmentationLockTTL = 10 * time.Minute

const cropJPEGQuality = 90

// SheetInput is one scanned sheet submitted for extraction.
type SheetInput struct {
	ExamineeID uuid.UUID
	Data       []byte
}

// subImager is implemented by every stdlib raster format we decode.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SegmentationService runs the batch answer extraction: it scales every
// template region into each scanned sheet's pixel space, crops the
// answer images, stores them, and creates the full set of answer
// records as one unit of work.
type SegmentationService struct {
	exams     ExamStore
	questions QuestionStore
	examinees ExamineeStore
	answers   AnswerRecordStore
	store     storage.ImageStore
	locker    lock.Locker
	lifecycle *ExamLifecycle
	log       zerolog.Logger
}

// NewSegmentationService creates a new SegmentationService.
func NewSegmentationService(
	exams ExamStore,
	questions QuestionStore,
	examinees ExamineeStore,
	answers AnswerRecordStore,
	store storage.ImageStore,
	locker lock.Locker,
	lifecycle *ExamLifecycle,
	log zerolog.Logger,
) *SegmentationService {
	return &SegmentationService{
		exams:     exams,
		questions: questions,
		examinees: examinees,
		answers:   answers,
		store:     store,
		locker:    locker,
		lifecycle: lifecycle,
		log:       log.With().Str("component", "segmentation_service").Logger(),
	}
}

// Run extracts answer images for every (examinee, question) pair and
// moves the exam to GRADING. The batch is all or nothing: on any
// failure no answer record becomes visible and already-written crops
// are removed before the error is surfaced.
func (s *SegmentationService) Run(ctx context.Context, examID uuid.UUID, sheets []SheetInput) error {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusReady {
		return ErrAlreadySegmented
	}
	if exam.PaperWidth <= 0 || exam.PaperHeight <= 0 {
		return ErrNoPaper
	}

	// One extraction per exam at a time. Interleaved batches would break
	// the one-record-per-(question, examinee) invariant.
	lockKey := config.SegmentationLockKey(examID.String())
	acquired, err := s.locker.TryAcquire(ctx, lockKey, segmentationLockTTL)
	if err != nil {
		return fmt.Errorf("acquire extraction lock: %w", err)
	}
	if !acquired {
		return ErrSegmentationInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to release extraction lock")
		}
	}()

	exists, err := s.answers.ExistsByExam(ctx, examID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadySegmented
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return ErrNoTemplate
	}

	roster, err := s.examinees.ListByExam(ctx, examID)
	if err != nil {
		return err
	}
	if len(sheets) != len(roster) {
		return fmt.Errorf("%d sheets for %d examinees: %w", len(sheets), len(roster), ErrCountMismatch)
	}

	byID := make(map[uuid.UUID]*model.Examinee, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}
	seen := make(map[uuid.UUID]bool, len(sheets))
	for _, sheet := range sheets {
		if _, ok := byID[sheet.ExamineeID]; !ok {
			return fmt.Errorf("examinee %s: %w", sheet.ExamineeID, ErrExamineeNotFound)
		}
		if seen[sheet.ExamineeID] {
			return fmt.Errorf("examinee %s submitted twice: %w", sheet.ExamineeID, ErrCountMismatch)
		}
		seen[sheet.ExamineeID] = true
	}

	started := time.Now()
	refSize := exam.PaperSize()

	records := make([]model.AnswerRecord, 0, len(sheets)*len(questions))
	written := false

	cleanup := func() {
		if !written {
			return
		}
		// Best effort. A cleanup failure is logged, never allowed to
		// mask the error that triggered it.
		cctx := context.WithoutCancel(ctx)
		if err := s.store.DeletePrefix(cctx, storage.AnswerPrefix(examID.String())); err != nil {
			s.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Compensating cleanup failed")
		}
	}

	for _, sheet := range sheets {
		examinee := byID[sheet.ExamineeID]

		img, _, err := image.Decode(bytes.NewReader(sheet.Data))
		if err != nil {
			cleanup()
			return fmt.Errorf("sheet for %s: %w", examinee.StudentID, ErrBadImage)
		}

		cropper, ok := img.(subImager)
		if !ok {
			cleanup()
			return fmt.Errorf("sheet for %s: image format does not support cropping", examinee.StudentID)
		}

		sheetBounds := img.Bounds()
		sheetSize := model.Size{Width: sheetBounds.Dx(), Height: sheetBounds.Dy()}

		for _, q := range questions {
			scaled := q.Region.Scale(refSize, sheetSize)
			rect := scaled.Rect().Add(sheetBounds.Min)
			// Rounding can collapse a thin region on a tiny scan to zero
			// pixels; treat that the same as falling off the sheet.
			if rect.Empty() || !rect.In(sheetBounds) {
				cleanup()
				return fmt.Errorf("question %d on sheet %s: %w", q.OrderNum, examinee.StudentID, ErrRegionOutOfBounds)
			}

			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, cropper.SubImage(rect), &jpeg.Options{Quality: cropJPEGQuality}); err != nil {
				cleanup()
				return fmt.Errorf("encode crop q%d for %s: %w", q.OrderNum, examinee.StudentID, err)
			}

			key := storage.AnswerImageKey(examID.String(), examinee.StudentID, q.OrderNum)
			path, err := s.store.Save(ctx, key, buf.Bytes())
			if err != nil {
				cleanup()
				return fmt.Errorf("store crop q%d for %s: %w", q.OrderNum, examinee.StudentID, err)
			}
			written = true

			records = append(records, model.AnswerRecord{
				ID:         uuid.New(),
				ExamID:     examID,
				QuestionID: q.ID,
				ExamineeID: examinee.ID,
				ImagePath:  path,
				FullScore:  q.FullScore,
			})
		}
	}

	// Single insert so no partial batch is ever visible.
	if err := s.answers.CreateBatch(ctx, records); err != nil {
		cleanup()
		return fmt.Errorf("persist answer records: %w", err)
	}

	if err := s.lifecycle.BeginGrading(ctx, examID); err != nil {
		return err
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("sheets", len(sheets)).
		Int("questions", len(questions)).
		Int("records", len(records)).
		Dur("elapsed", time.Since(started)).
		Msg("Answer extraction complete")

	return nil
}
