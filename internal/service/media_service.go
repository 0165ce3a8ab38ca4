package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/storage"
)

// MediaService handles the reference paper upload. The paper's pixel
// dimensions are captured at upload time; every template region is
// validated against them.
type MediaService struct {
	exams ExamStore
	store storage.ImageStore
	log   zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(exams ExamStore, store storage.ImageStore, log zerolog.Logger) *MediaService {
	return &MediaService{
		exams: exams,
		store: store,
		log:   log.With().Str("component", "media_service").Logger(),
	}
}

// UploadPaper stores the reference paper image for an exam and records
// its dimensions. Allowed only while the exam is READY; replacing the
// paper invalidates nothing because the template is re-validated on its
// next save.
func (s *MediaService) UploadPaper(ctx context.Context, examID uuid.UUID, filename string, data []byte) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusReady {
		return nil, ErrExamNotReady
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("paper image: %w", ErrBadImage)
	}

	ext := "." + format
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i:])
	}

	key := storage.PaperImageKey(examID.String(), ext)
	path, err := s.store.Save(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("store paper image: %w", err)
	}

	if err := s.exams.UpdatePaper(ctx, examID, path, cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("record paper dimensions: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("Reference paper uploaded")

	exam.PaperImage = path
	exam.PaperWidth = cfg.Width
	exam.PaperHeight = cfg.Height
	return exam, nil
}
