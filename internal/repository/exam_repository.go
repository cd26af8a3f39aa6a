package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// ExamRepository reads exam records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindByID loads a single exam.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, name, term, academic_year_id, created_at FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, fmt.Errorf("find exam %s: %w", id, err)
	}
	return &exam, nil
}
