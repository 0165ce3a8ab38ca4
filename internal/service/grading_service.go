package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/oracle"
)

// AnswerRecordStore is the answer record persistence surface. Lookups
// for missing rows return ErrRecordNotFound.
type AnswerRecordStore interface {
	// CreateBatch inserts all records in one transaction.
	CreateBatch(ctx context.Context, records []model.AnswerRecord) error
	ExistsByExam(ctx context.Context, examID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error)
	ListByQuestion(ctx context.Context, examID, questionID uuid.UUID) ([]model.AnswerRecord, error)
	SetTeacherGrade(ctx context.Context, id uuid.UUID, score float64, comment string) error
	SetAIGrade(ctx context.Context, id uuid.UUID, score float64, comment string, confidence float64) error
	// CountByExam returns (graded, total) for completeness checks.
	CountByExam(ctx context.Context, examID uuid.UUID) (int, int, error)
}

// EventBus carries the grading side channels: the AI job queue and the
// per-exam progress broadcast. Backed by Redis in production.
type EventBus interface {
	Enqueue(ctx context.Context, payload []byte) error
	Publish(ctx context.Context, examID string, payload []byte) error
}

// AIGradingJob is the queue payload consumed by the AI grading worker.
type AIGradingJob struct {
	AnswerID uuid.UUID `json:"answer_id"`
}

// GradingProgressEvent is published after every teacher grade and
// streamed to WebSocket subscribers.
type GradingProgressEvent struct {
	ExamID     uuid.UUID `json:"exam_id"`
	ExamineeID uuid.UUID `json:"examinee_id"`
	TotalScore float64   `json:"total_score"`
	Graded     int       `json:"graded"`
	Total      int       `json:"total"`
	Completed  bool      `json:"completed"`
}

// GradingService records grades and maintains the derived state that
// follows from them: the examinee total, the grading progress stream,
// and the COMPLETED transition once every record is graded. Teacher
// grades are authoritative; AI grades are advisory and touch neither
// totals nor completeness.
type GradingService struct {
	answers    AnswerRecordStore
	examinees  ExamineeStore
	lifecycle  *ExamLifecycle
	bus        EventBus
	perStudent keyedMutex
	log        zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	answers AnswerRecordStore,
	examinees ExamineeStore,
	lifecycle *ExamLifecycle,
	bus EventBus,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		answers:   answers,
		examinees: examinees,
		lifecycle: lifecycle,
		bus:       bus,
		log:       log.With().Str("component", "grading_service").Logger(),
	}
}

// RecordTeacherGrade stores an authoritative grade, recomputes the
// examinee's total from scratch, and completes the exam if this was the
// last ungraded record.
func (s *GradingService) RecordTeacherGrade(ctx context.Context, req *model.TeacherGradeRequest) (*model.AnswerRecord, error) {
	rec, err := s.answers.GetByID(ctx, req.AnswerID)
	if err != nil {
		return nil, err
	}
	if req.Score < 0 || req.Score > rec.FullScore {
		return nil, fmt.Errorf("score %.2f not in [0, %.2f]: %w", req.Score, rec.FullScore, ErrScoreOutOfRange)
	}

	// Serialize per examinee so concurrent grades on different questions
	// for the same student cannot race the total recompute.
	unlock := s.perStudent.Lock(rec.ExamineeID.String())
	defer unlock()

	if err := s.answers.SetTeacherGrade(ctx, rec.ID, req.Score, req.Comment); err != nil {
		return nil, fmt.Errorf("set teacher grade: %w", err)
	}

	total, err := s.examinees.RecomputeTotal(ctx, rec.ExamineeID)
	if err != nil {
		return nil, fmt.Errorf("recompute total: %w", err)
	}

	graded, totalRecords, err := s.answers.CountByExam(ctx, rec.ExamID)
	if err != nil {
		return nil, err
	}

	completed := false
	if graded == totalRecords {
		switch err := s.lifecycle.Complete(ctx, rec.ExamID); {
		case err == nil:
			completed = true
		case errors.Is(err, ErrExamNotGrading):
			// A concurrent grader completed the exam first.
		default:
			return nil, err
		}
	}

	s.publishProgress(ctx, GradingProgressEvent{
		ExamID:     rec.ExamID,
		ExamineeID: rec.ExamineeID,
		TotalScore: total,
		Graded:     graded,
		Total:      totalRecords,
		Completed:  completed,
	})

	return s.answers.GetByID(ctx, rec.ID)
}

// RecordAIGrade stores an advisory AI result on a record. It never sets
// is_graded and never touches the examinee total.
func (s *GradingService) RecordAIGrade(ctx context.Context, answerID uuid.UUID, result *oracle.Result) (*model.AnswerRecord, error) {
	rec, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}

	if err := s.answers.SetAIGrade(ctx, rec.ID, result.Score, result.Comment, result.Confidence); err != nil {
		return nil, fmt.Errorf("set ai grade: %w", err)
	}

	return s.answers.GetByID(ctx, rec.ID)
}

// EnqueueAIGrade pushes an answer record onto the AI grading queue. The
// worker picks it up; the caller returns immediately.
func (s *GradingService) EnqueueAIGrade(ctx context.Context, answerID uuid.UUID) error {
	if _, err := s.answers.GetByID(ctx, answerID); err != nil {
		return err
	}

	payload, err := json.Marshal(AIGradingJob{AnswerID: answerID})
	if err != nil {
		return err
	}
	if err := s.bus.Enqueue(ctx, payload); err != nil {
		return fmt.Errorf("enqueue ai grading job: %w", err)
	}

	s.log.Debug().Str("answer_id", answerID.String()).Msg("AI grading job enqueued")
	return nil
}

// ListByQuestion returns all of a question's answer records, one per
// examinee, for the grading view.
func (s *GradingService) ListByQuestion(ctx context.Context, examID, questionID uuid.UUID) ([]model.AnswerRecord, error) {
	records, err := s.answers.ListByQuestion(ctx, examID, questionID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.AnswerRecord{}
	}
	return records, nil
}

// GetRecord returns one answer record.
func (s *GradingService) GetRecord(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	return s.answers.GetByID(ctx, id)
}

func (s *GradingService) publishProgress(ctx context.Context, ev GradingProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, ev.ExamID.String(), payload); err != nil {
		s.log.Warn().Err(err).Str("exam_id", ev.ExamID.String()).Msg("Failed to publish grading progress")
	}
}
