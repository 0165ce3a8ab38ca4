package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/response"
	"github.com/ccccowo/imark-backend/internal/storage"
)

// ExamStore is the exam persistence surface the services consume.
type ExamStore interface {
	Create(ctx context.Context, exam *model.Exam, examinees []model.Examinee) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePaper(ctx context.Context, id uuid.UUID, imagePath string, width, height int) error
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expect, next model.ExamStatus) (bool, error)
}

// ExamineeStore is the examinee persistence surface.
type ExamineeStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Examinee, error)
	RecomputeTotal(ctx context.Context, examineeID uuid.UUID) (float64, error)
}

// ExamService handles exam CRUD and the grading summary.
type ExamService struct {
	exams     ExamStore
	examinees ExamineeStore
	answers   AnswerRecordStore
	store     storage.ImageStore
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	examinees ExamineeStore,
	answers AnswerRecordStore,
	store storage.ImageStore,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		examinees: examinees,
		answers:   answers,
		store:     store,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Create creates an exam in READY status together with its roster.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:     uuid.New(),
		Name:   req.Name,
		Status: model.ExamStatusReady,
	}

	examinees := make([]model.Examinee, 0, len(req.Examinees))
	seen := make(map[string]bool, len(req.Examinees))
	for _, e := range req.Examinees {
		if seen[e.StudentID] {
			return nil, fmt.Errorf("student id %q: %w", e.StudentID, ErrDuplicateStudentID)
		}
		seen[e.StudentID] = true
		examinees = append(examinees, model.Examinee{
			ID:        uuid.New(),
			ExamID:    exam.ID,
			Name:      e.Name,
			StudentID: e.StudentID,
		})
	}

	if err := s.exams.Create(ctx, exam, examinees); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("examinees", len(examinees)).
		Msg("Exam created")

	return exam, nil
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.exams.GetByID(ctx, id)
}

// List retrieves exams page by page, newest first.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.exams.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage
	return exams, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Delete removes an exam. Only READY exams can be deleted; once answers
// are extracted the exam is part of the grading record.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusReady {
		return ErrExamNotReady
	}

	if err := s.exams.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}

	// Paper image cleanup is best effort; the row is already gone.
	if exam.PaperImage != "" {
		if err := s.store.DeletePrefix(ctx, storage.PaperPrefix(id.String())); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to delete paper image")
		}
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

// Examinees returns the roster for an exam.
func (s *ExamService) Examinees(ctx context.Context, examID uuid.UUID) ([]model.Examinee, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	return s.examinees.ListByExam(ctx, examID)
}

// Results returns the grading summary: the exam, its roster with current
// totals, and the graded/total record counts.
func (s *ExamService) Results(ctx context.Context, examID uuid.UUID) (*model.ExamResults, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	examinees, err := s.examinees.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	graded, total, err := s.answers.CountByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return &model.ExamResults{
		Exam:      exam,
		Examinees: examinees,
		Graded:    graded,
		Total:     total,
	}, nil
}
