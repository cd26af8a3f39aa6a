package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumark/smis-api/internal/models"
)

func newTeacherAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherAssignmentRepositoryHasActiveAssignment(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	query := regexp.QuoteMeta(`SELECT 1 FROM teacher_subject_assignments
		WHERE teacher_id = $1 AND subject_id = $2 AND class_id = $3 AND status = $4 LIMIT 1`)

	mock.ExpectQuery(query).
		WithArgs("teacher-1", "subject-1", "class-1", models.AssignmentActive).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := repo.HasActiveAssignment(context.Background(), "teacher-1", "subject-1", "class-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(query).
		WithArgs("teacher-2", "subject-1", "class-1", models.AssignmentActive).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err = repo.HasActiveAssignment(context.Background(), "teacher-2", "subject-1", "class-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "class_id", "status", "created_at", "updated_at", "subject_name", "class_name"}).
		AddRow("assign-1", "teacher-1", "subject-1", "class-1", "ACTIVE", time.Now(), time.Now(), "Mathematics", "S.3 East")
	mock.ExpectQuery("SELECT ta.id, ta.teacher_id, ta.subject_id, ta.class_id").
		WithArgs("teacher-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Mathematics", assignments[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryCreateAndSetStatus(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_subject_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.TeacherSubjectAssignment{
		TeacherID: "teacher-1",
		SubjectID: "subject-1",
		ClassID:   "class-1",
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.Equal(t, models.AssignmentActive, assignment.Status)

	mock.ExpectQuery("UPDATE teacher_subject_assignments SET status = \\$1").
		WithArgs(models.AssignmentInactive, sqlmock.AnyArg(), "assign-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "class_id", "status", "created_at", "updated_at"}).
			AddRow("assign-1", "teacher-1", "subject-1", "class-1", "INACTIVE", time.Now(), time.Now()))

	updated, err := repo.SetStatus(context.Background(), "assign-1", models.AssignmentInactive)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentInactive, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
