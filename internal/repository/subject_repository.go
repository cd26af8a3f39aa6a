package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// SubjectRepository reads subject records.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a single subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, type, level, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, fmt.Errorf("find subject %s: %w", id, err)
	}
	return &subject, nil
}

// ListByClass returns the subjects taught in a class.
func (r *SubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.code, s.name, s.type, s.level, s.created_at, s.updated_at
		FROM subjects s
		JOIN class_subjects cs ON cs.subject_id = s.id
		WHERE cs.class_id = $1
		ORDER BY s.code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list subjects for class %s: %w", classID, err)
	}
	return subjects, nil
}
