package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/service"
)

// QuestionRepository handles question template data access. The region
// is stored as a jsonb column and mapped straight onto model.Region.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ReplaceAll swaps the exam's whole template in one transaction so no
// reader ever sees a partial set.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO questions (id, exam_id, order_num, region, question_type, full_score, correct_answer)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, q.ExamID, q.OrderNum, q.Region, q.QuestionType, q.FullScore, q.CorrectAnswer)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves one question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, order_num, region, question_type, full_score, correct_answer
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.ExamID, &q.OrderNum, &q.Region, &q.QuestionType, &q.FullScore, &q.CorrectAnswer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListByExam retrieves the template ordered by question number.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, order_num, region, question_type, full_score, correct_answer
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.OrderNum, &q.Region,
			&q.QuestionType, &q.FullScore, &q.CorrectAnswer); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateKeys applies type, score and answer-key updates in one
// transaction. All or nothing.
func (r *QuestionRepository) UpdateKeys(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		tag, err := tx.Exec(ctx,
			`UPDATE questions
			 SET question_type = $3, full_score = $4, correct_answer = $5
			 WHERE id = $1 AND exam_id = $2`,
			q.ID, examID, q.QuestionType, q.FullScore, q.CorrectAnswer)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return service.ErrQuestionNotFound
		}
	}

	return tx.Commit(ctx)
}
