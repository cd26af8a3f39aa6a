package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// StudentRepository reads student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, admission_no, full_name, gender, education_level, class_id, subject_combination_id, active, created_at, updated_at
		FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student %s: %w", id, err)
	}
	return &student, nil
}

// ListByClass returns active students in a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT id, admission_no, full_name, gender, education_level, class_id, subject_combination_id, active, created_at, updated_at
		FROM students WHERE class_id = $1 AND active = TRUE ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students for class %s: %w", classID, err)
	}
	return students, nil
}
