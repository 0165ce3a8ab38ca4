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

// AnswerRecordRepository handles answer record data access. The unique
// (exam_id, question_id, examinee_id) index is the last line of defense
// for the one-record-per-pair invariant.
type AnswerRecordRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRecordRepository creates a new AnswerRecordRepository.
func NewAnswerRecordRepository(pool *pgxpool.Pool) *AnswerRecordRepository {
	return &AnswerRecordRepository{pool: pool}
}

// CreateBatch inserts the whole extraction batch in one transaction so
// either every record becomes visible or none does.
func (r *AnswerRecordRepository) CreateBatch(ctx context.Context, records []model.AnswerRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		batch.Queue(
			`INSERT INTO answer_records (id, exam_id, question_id, examinee_id, image_path, full_score)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID, rec.ExamID, rec.QuestionID, rec.ExamineeID, rec.ImagePath, rec.FullScore)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ExistsByExam reports whether any answer record exists for the exam.
func (r *AnswerRecordRepository) ExistsByExam(ctx context.Context, examID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM answer_records WHERE exam_id = $1)`, examID,
	).Scan(&exists)
	return exists, err
}

const answerRecordColumns = `id, exam_id, question_id, examinee_id, image_path, full_score,
	teacher_score, teacher_comment, ai_score, ai_comment, ai_confidence,
	is_graded, created_at, updated_at`

func scanAnswerRecord(row pgx.Row) (*model.AnswerRecord, error) {
	rec := &model.AnswerRecord{}
	var teacherComment, aiComment *string
	err := row.Scan(&rec.ID, &rec.ExamID, &rec.QuestionID, &rec.ExamineeID,
		&rec.ImagePath, &rec.FullScore, &rec.TeacherScore, &teacherComment,
		&rec.AIScore, &aiComment, &rec.AIConfidence, &rec.IsGraded,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if teacherComment != nil {
		rec.TeacherComment = *teacherComment
	}
	if aiComment != nil {
		rec.AIComment = *aiComment
	}
	return rec, nil
}

// GetByID retrieves one answer record.
func (r *AnswerRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	rec, err := scanAnswerRecord(r.pool.QueryRow(ctx,
		`SELECT `+answerRecordColumns+` FROM answer_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByQuestion retrieves a question's records ordered by the owning
// examinee's student id, matching the grading view.
func (r *AnswerRecordRepository) ListByQuestion(ctx context.Context, examID, questionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ar.id, ar.exam_id, ar.question_id, ar.examinee_id, ar.image_path, ar.full_score,
		        ar.teacher_score, ar.teacher_comment, ar.ai_score, ar.ai_comment, ar.ai_confidence,
		        ar.is_graded, ar.created_at, ar.updated_at
		 FROM answer_records ar
		 JOIN examinees e ON e.id = ar.examinee_id
		 WHERE ar.exam_id = $1 AND ar.question_id = $2
		 ORDER BY e.student_id`, examID, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		rec, err := scanAnswerRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// SetTeacherGrade records the authoritative grade and marks the record
// graded.
func (r *AnswerRecordRepository) SetTeacherGrade(ctx context.Context, id uuid.UUID, score float64, comment string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE answer_records
		 SET teacher_score = $2, teacher_comment = $3, is_graded = TRUE, updated_at = now()
		 WHERE id = $1`,
		id, score, comment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrRecordNotFound
	}
	return nil
}

// SetAIGrade records the advisory AI result. is_graded is deliberately
// untouched.
func (r *AnswerRecordRepository) SetAIGrade(ctx context.Context, id uuid.UUID, score float64, comment string, confidence float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE answer_records
		 SET ai_score = $2, ai_comment = $3, ai_confidence = $4, updated_at = now()
		 WHERE id = $1`,
		id, score, comment, confidence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrRecordNotFound
	}
	return nil
}

// CountByExam returns (graded, total) record counts for completeness
// checks in a single consistent read.
func (r *AnswerRecordRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, int, error) {
	var graded, total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_graded), COUNT(*)
		 FROM answer_records WHERE exam_id = $1`, examID,
	).Scan(&graded, &total)
	return graded, total, err
}
