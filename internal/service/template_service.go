package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/answerkey"
	"github.com/ccccowo/imark-backend/internal/model"
)

// QuestionStore is the question persistence surface.
type QuestionStore interface {
	// ReplaceAll deletes the exam's existing questions and inserts the
	// new set in one transaction.
	ReplaceAll(ctx context.Context, examID uuid.UUID, questions []model.Question) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	// UpdateKeys applies type/score/answer updates to the given
	// questions in one transaction.
	UpdateKeys(ctx context.Context, examID uuid.UUID, questions []model.Question) error
}

// TemplateService manages the question template of an exam: the regions
// on the reference paper and their grading metadata. All edits require
// READY status; once extraction ran the template is frozen.
type TemplateService struct {
	exams     ExamStore
	questions QuestionStore
	log       zerolog.Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(exams ExamStore, questions QuestionStore, log zerolog.Logger) *TemplateService {
	return &TemplateService{
		exams:     exams,
		questions: questions,
		log:       log.With().Str("component", "template_service").Logger(),
	}
}

// Replace atomically swaps the exam's question template for the given
// entries. Every region is validated against the reference paper bounds
// before anything is written; one bad region rejects the whole batch.
func (s *TemplateService) Replace(ctx context.Context, examID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusReady {
		return nil, ErrExamNotReady
	}
	if exam.PaperWidth <= 0 || exam.PaperHeight <= 0 {
		return nil, ErrNoPaper
	}

	bounds := exam.PaperSize()
	seen := make(map[int]bool, len(req.Questions))
	questions := make([]model.Question, 0, len(req.Questions))
	for _, entry := range req.Questions {
		if seen[entry.OrderNum] {
			return nil, fmt.Errorf("order_num %d repeated: %w", entry.OrderNum, model.ErrInvalidRegion)
		}
		seen[entry.OrderNum] = true

		if err := entry.Region.Validate(bounds); err != nil {
			return nil, fmt.Errorf("question %d: %w", entry.OrderNum, err)
		}

		questions = append(questions, model.Question{
			ID:           uuid.New(),
			ExamID:       examID,
			OrderNum:     entry.OrderNum,
			Region:       entry.Region,
			QuestionType: model.QuestionTypeShortAnswer,
		})
	}

	sort.Slice(questions, func(i, j int) bool {
		return questions[i].OrderNum < questions[j].OrderNum
	})

	if err := s.questions.ReplaceAll(ctx, examID, questions); err != nil {
		return nil, fmt.Errorf("replace template: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("questions", len(questions)).
		Msg("Question template replaced")

	return questions, nil
}

// List returns the exam's template ordered by question number.
func (s *TemplateService) List(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// AssignKeys applies per-range type, score and answer-key settings in
// one batch. Ranges must not overlap and must only cover questions that
// exist; the raw answer string of each range is split into one canonical
// token per question by the key codec. All or nothing.
func (s *TemplateService) AssignKeys(ctx context.Context, examID uuid.UUID, req *model.AssignKeysRequest) ([]model.Question, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusReady {
		return nil, ErrExamNotReady
	}

	existing, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, ErrNoTemplate
	}

	byNum := make(map[int]*model.Question, len(existing))
	for i := range existing {
		byNum[existing[i].OrderNum] = &existing[i]
	}

	claimed := make(map[int]bool)
	for _, r := range req.Ranges {
		if r.EndNum < r.StartNum {
			return nil, fmt.Errorf("range %d-%d: %w", r.StartNum, r.EndNum, ErrRangeOverlap)
		}

		typ := model.QuestionType(r.Type)
		count := r.EndNum - r.StartNum + 1

		var keys []answerkey.Key
		if typ.Keyable() {
			keys, err = answerkey.Split(typ, r.CorrectAnswer, count)
			if err != nil {
				return nil, fmt.Errorf("range %d-%d: %w", r.StartNum, r.EndNum, err)
			}
		} else if r.CorrectAnswer != "" {
			return nil, fmt.Errorf("range %d-%d: %w", r.StartNum, r.EndNum, answerkey.ErrUnsupportedForType)
		}

		for num := r.StartNum; num <= r.EndNum; num++ {
			if claimed[num] {
				return nil, fmt.Errorf("question %d claimed twice: %w", num, ErrRangeOverlap)
			}
			claimed[num] = true

			q, ok := byNum[num]
			if !ok {
				return nil, fmt.Errorf("question %d: %w", num, ErrQuestionNotFound)
			}

			q.QuestionType = typ
			q.FullScore = r.Score
			if keys != nil {
				q.CorrectAnswer = keys[num-r.StartNum].Canonical()
			} else {
				q.CorrectAnswer = ""
			}
		}
	}

	updated := make([]model.Question, 0, len(claimed))
	for _, q := range existing {
		if claimed[q.OrderNum] {
			updated = append(updated, q)
		}
	}

	if err := s.questions.UpdateKeys(ctx, examID, updated); err != nil {
		return nil, fmt.Errorf("assign keys: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("ranges", len(req.Ranges)).
		Int("questions", len(updated)).
		Msg("Answer keys assigned")

	return existing, nil
}
