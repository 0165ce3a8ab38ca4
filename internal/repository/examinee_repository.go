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

// ExamineeRepository handles examinee data access.
type ExamineeRepository struct {
	pool *pgxpool.Pool
}

// NewExamineeRepository creates a new ExamineeRepository.
func NewExamineeRepository(pool *pgxpool.Pool) *ExamineeRepository {
	return &ExamineeRepository{pool: pool}
}

// ListByExam retrieves an exam's roster ordered by student id.
func (r *ExamineeRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Examinee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, name, student_id, total_score, created_at
		 FROM examinees
		 WHERE exam_id = $1
		 ORDER BY student_id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examinees []model.Examinee
	for rows.Next() {
		var ex model.Examinee
		if err := rows.Scan(&ex.ID, &ex.ExamID, &ex.Name, &ex.StudentID,
			&ex.TotalScore, &ex.CreatedAt); err != nil {
			return nil, err
		}
		examinees = append(examinees, ex)
	}
	return examinees, rows.Err()
}

// RecomputeTotal rewrites the examinee's total as the full sum of their
// teacher scores in one statement, so concurrent grades can never leave
// a stale increment behind.
func (r *ExamineeRepository) RecomputeTotal(ctx context.Context, examineeID uuid.UUID) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`UPDATE examinees
		 SET total_score = COALESCE((
		     SELECT SUM(teacher_score) FROM answer_records
		     WHERE examinee_id = $1 AND teacher_score IS NOT NULL
		 ), 0)
		 WHERE id = $1
		 RETURNING total_score`, examineeID,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, service.ErrExamineeNotFound
		}
		return 0, err
	}
	return total, nil
}
