package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// SelectionRepository persists O-Level optional subject selections. A student
// has at most one selection per academic year, enforced by a unique index on
// (student_id, academic_year_id).
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// FindByStudentAndYear returns the student's selection for the year, or
// sql.ErrNoRows when none exists.
func (r *SelectionRepository) FindByStudentAndYear(ctx context.Context, studentID, academicYearID string) (*models.SubjectSelection, error) {
	const query = `SELECT id, student_id, academic_year_id, core_subject_ids, optional_subject_ids, approved_by, created_at
		FROM subject_selections WHERE student_id = $1 AND academic_year_id = $2`
	var selection models.SubjectSelection
	if err := r.db.GetContext(ctx, &selection, query, studentID, academicYearID); err != nil {
		return nil, fmt.Errorf("find selection for student %s: %w", studentID, err)
	}
	return &selection, nil
}

// Create inserts a selection. When one already exists for the student and
// year, the insert is a no-op and the existing row is returned with
// created=false.
func (r *SelectionRepository) Create(ctx context.Context, selection *models.SubjectSelection) (bool, error) {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subject_selections (id, student_id, academic_year_id, core_subject_ids, optional_subject_ids, approved_by, created_at)
		VALUES (:id, :student_id, :academic_year_id, :core_subject_ids, :optional_subject_ids, :approved_by, :created_at)
		ON CONFLICT (student_id, academic_year_id) DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, selection)
	if err != nil {
		return false, fmt.Errorf("create selection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check created selection rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	existing, err := r.FindByStudentAndYear(ctx, selection.StudentID, selection.AcademicYearID)
	if err != nil {
		return false, err
	}
	*selection = *existing
	return false, nil
}
