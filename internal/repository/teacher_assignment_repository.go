package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// TeacherAssignmentRepository persists teacher-subject-class assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// HasActiveAssignment reports whether the teacher holds an ACTIVE assignment
// for the subject in the class.
func (r *TeacherAssignmentRepository) HasActiveAssignment(ctx context.Context, teacherID, subjectID, classID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_subject_assignments
		WHERE teacher_id = $1 AND subject_id = $2 AND class_id = $3 AND status = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, subjectID, classID, models.AssignmentActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return true, nil
}

// ListByTeacher returns assignments owned by a teacher with display names.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignmentDetail, error) {
	const query = `
SELECT ta.id, ta.teacher_id, ta.subject_id, ta.class_id, ta.status, ta.created_at, ta.updated_at,
       s.name AS subject_name, c.name AS class_name
FROM teacher_subject_assignments ta
JOIN subjects s ON s.id = ta.subject_id
JOIN classes c ON c.id = ta.class_id
WHERE ta.teacher_id = $1
ORDER BY c.name ASC, s.name ASC`
	var assignments []models.TeacherSubjectAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts a new assignment. Re-creating an existing tuple revives it
// as ACTIVE rather than erroring.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = models.AssignmentActive
	}
	const query = `INSERT INTO teacher_subject_assignments (id, teacher_id, subject_id, class_id, status, created_at, updated_at)
		VALUES (:id, :teacher_id, :subject_id, :class_id, :status, :created_at, :updated_at)
		ON CONFLICT (teacher_id, subject_id, class_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// SetStatus flips an assignment between ACTIVE and INACTIVE.
func (r *TeacherAssignmentRepository) SetStatus(ctx context.Context, assignmentID string, status models.AssignmentStatus) (*models.TeacherSubjectAssignment, error) {
	const query = `UPDATE teacher_subject_assignments SET status = $1, updated_at = $2 WHERE id = $3
		RETURNING id, teacher_id, subject_id, class_id, status, created_at, updated_at`
	var assignment models.TeacherSubjectAssignment
	if err := r.db.GetContext(ctx, &assignment, query, status, time.Now().UTC(), assignmentID); err != nil {
		return nil, fmt.Errorf("update assignment status: %w", err)
	}
	return &assignment, nil
}
