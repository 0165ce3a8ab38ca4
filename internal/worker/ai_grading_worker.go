package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/oracle"
	"github.com/ccccowo/imark-backend/internal/queue"
	"github.com/ccccowo/imark-backend/internal/service"
)

const aiPollTimeout = 1 * time.Second

// questionGetter is the slice of the question repository the worker
// needs: the correct answer and full score for the prompt.
type questionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

// AIGradingWorker drains the AI grading queue. Each job resolves one
// answer record, asks the oracle for an advisory score and stores the
// result. Oracle failures are logged and dropped; they never block
// teacher grading and a teacher can simply re-request the AI grade.
type AIGradingWorker struct {
	bus           *queue.RedisBus
	grading       *service.GradingService
	questions     questionGetter
	oracle        oracle.Client
	oracleTimeout time.Duration
	publicBaseURL string
	log           zerolog.Logger
}

// NewAIGradingWorker creates an AIGradingWorker.
func NewAIGradingWorker(
	bus *queue.RedisBus,
	grading *service.GradingService,
	questions questionGetter,
	client oracle.Client,
	oracleTimeout time.Duration,
	publicBaseURL string,
	log zerolog.Logger,
) *AIGradingWorker {
	return &AIGradingWorker{
		bus:           bus,
		grading:       grading,
		questions:     questions,
		oracle:        client,
		oracleTimeout: oracleTimeout,
		publicBaseURL: publicBaseURL,
		log:           log.With().Str("component", "ai_grading_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *AIGradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AIGradingWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AIGradingWorker stopped")
			return
		default:
			payload, err := w.bus.Dequeue(ctx, aiPollTimeout)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Dequeue error")
				}
				continue
			}

			var job service.AIGradingJob
			if err := json.Unmarshal(payload, &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid job payload")
				continue
			}

			w.process(ctx, job)
		}
	}
}

func (w *AIGradingWorker) process(ctx context.Context, job service.AIGradingJob) {
	rec, err := w.grading.GetRecord(ctx, job.AnswerID)
	if err != nil {
		w.log.Warn().Err(err).Str("answer_id", job.AnswerID.String()).Msg("Skipping job")
		return
	}

	question, err := w.questions.GetByID(ctx, rec.QuestionID)
	if err != nil {
		w.log.Warn().Err(err).Str("answer_id", job.AnswerID.String()).Msg("Question lookup failed")
		return
	}

	gctx, cancel := context.WithTimeout(ctx, w.oracleTimeout)
	defer cancel()

	result, err := w.oracle.Grade(gctx, w.imageURL(rec.ImagePath), rec.FullScore, question.CorrectAnswer)
	if err != nil {
		w.log.Error().Err(err).Str("answer_id", job.AnswerID.String()).Msg("Oracle grading failed")
		return
	}

	if _, err := w.grading.RecordAIGrade(ctx, rec.ID, result); err != nil {
		w.log.Error().Err(err).Str("answer_id", job.AnswerID.String()).Msg("Failed to store AI grade")
		return
	}

	w.log.Info().
		Str("answer_id", rec.ID.String()).
		Float64("score", result.Score).
		Float64("confidence", result.Confidence).
		Msg("AI grade recorded")
}

// imageURL makes a locally stored crop reachable for the oracle.
func (w *AIGradingWorker) imageURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(w.publicBaseURL, "/") + path
}
