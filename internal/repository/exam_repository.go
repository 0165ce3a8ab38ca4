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

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts the exam and its roster in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam, examinees []model.Examinee) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (id, name, status)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		exam.ID, exam.Name, exam.Status,
	).Scan(&exam.CreatedAt, &exam.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range examinees {
		ex := &examinees[i]
		err = tx.QueryRow(ctx,
			`INSERT INTO examinees (id, exam_id, name, student_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			ex.ID, ex.ExamID, ex.Name, ex.StudentID,
		).Scan(&ex.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	var paperImage *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, status, paper_image, paper_width, paper_height, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Status, &paperImage, &e.PaperWidth, &e.PaperHeight,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrExamNotFound
		}
		return nil, err
	}
	if paperImage != nil {
		e.PaperImage = *paperImage
	}
	return e, nil
}

// ListPaginated retrieves exams newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, status, paper_image, paper_width, paper_height, created_at, updated_at
		 FROM exams
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var paperImage *string
		if err := rows.Scan(&e.ID, &e.Name, &e.Status, &paperImage, &e.PaperWidth,
			&e.PaperHeight, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if paperImage != nil {
			e.PaperImage = *paperImage
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// Delete removes an exam. Questions, examinees and answer records go
// with it via ON DELETE CASCADE.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrExamNotFound
	}
	return nil
}

// UpdatePaper records the reference paper path and pixel dimensions.
func (r *ExamRepository) UpdatePaper(ctx context.Context, id uuid.UUID, imagePath string, width, height int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET paper_image = $2, paper_width = $3, paper_height = $4, updated_at = now()
		 WHERE id = $1`,
		id, imagePath, width, height)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrExamNotFound
	}
	return nil
}

// UpdateStatusIf compare-and-swaps the exam status. Reports whether the
// row actually changed.
func (r *ExamRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expect, next model.ExamStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $3, updated_at = now()
		 WHERE id = $1 AND status = $2`,
		id, expect, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
