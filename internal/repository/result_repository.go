package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// ResultRepository persists exam results. A result is keyed naturally by
// (student_id, subject_id, exam_id); re-entering marks for the same key
// updates the existing row instead of inserting a duplicate.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Upsert inserts or updates a result on its natural key and reloads the
// persisted row so the caller sees the final timestamps and audit columns.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now
	const query = `INSERT INTO results (id, student_id, subject_id, exam_id, class_id, academic_year_id, marks, grade, points, is_principal, is_subsidiary, comment, entered_by, updated_by, created_at, updated_at)
		VALUES (:id, :student_id, :subject_id, :exam_id, :class_id, :academic_year_id, :marks, :grade, :points, :is_principal, :is_subsidiary, :comment, :entered_by, :updated_by, :created_at, :updated_at)
		ON CONFLICT (student_id, subject_id, exam_id)
		DO UPDATE SET marks = EXCLUDED.marks, grade = EXCLUDED.grade, points = EXCLUDED.points,
			is_principal = EXCLUDED.is_principal, is_subsidiary = EXCLUDED.is_subsidiary,
			comment = EXCLUDED.comment, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}

	const reload = `SELECT id, student_id, subject_id, exam_id, class_id, academic_year_id, marks, grade, points, is_principal, is_subsidiary, comment, entered_by, updated_by, created_at, updated_at
		FROM results WHERE student_id = $1 AND subject_id = $2 AND exam_id = $3`
	if err := r.db.GetContext(ctx, result, reload, result.StudentID, result.SubjectID, result.ExamID); err != nil {
		return fmt.Errorf("reload result: %w", err)
	}
	return nil
}

// ListByStudentAndExam returns a student's results for an exam with subject
// display fields.
func (r *ResultRepository) ListByStudentAndExam(ctx context.Context, studentID, examID string) ([]models.ResultRow, error) {
	const query = `SELECT r.id, r.student_id, r.subject_id, r.exam_id, r.class_id, r.academic_year_id, r.marks, r.grade, r.points, r.is_principal, r.is_subsidiary, r.comment, r.entered_by, r.updated_by, r.created_at, r.updated_at,
			s.code AS subject_code, s.name AS subject_name, st.full_name AS student_name
		FROM results r
		JOIN subjects s ON s.id = r.subject_id
		JOIN students st ON st.id = r.student_id
		WHERE r.student_id = $1 AND r.exam_id = $2
		ORDER BY s.code ASC`
	var rows []models.ResultRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, examID); err != nil {
		return nil, fmt.Errorf("list results for student %s: %w", studentID, err)
	}
	return rows, nil
}

// ListByClassAndExam returns every result in a class for an exam in one
// query, ordered so per-student grouping is a single pass.
func (r *ResultRepository) ListByClassAndExam(ctx context.Context, classID, examID string) ([]models.ResultRow, error) {
	const query = `SELECT r.id, r.student_id, r.subject_id, r.exam_id, r.class_id, r.academic_year_id, r.marks, r.grade, r.points, r.is_principal, r.is_subsidiary, r.comment, r.entered_by, r.updated_by, r.created_at, r.updated_at,
			s.code AS subject_code, s.name AS subject_name, st.full_name AS student_name
		FROM results r
		JOIN subjects s ON s.id = r.subject_id
		JOIN students st ON st.id = r.student_id
		WHERE r.class_id = $1 AND r.exam_id = $2
		ORDER BY st.full_name ASC, r.student_id ASC, s.code ASC`
	var rows []models.ResultRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, examID); err != nil {
		return nil, fmt.Errorf("list results for class %s: %w", classID, err)
	}
	return rows, nil
}
