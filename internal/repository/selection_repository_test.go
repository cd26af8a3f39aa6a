package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumark/smis-api/internal/models"
)

func newSelectionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func selectionColumns() []string {
	return []string{"id", "student_id", "academic_year_id", "core_subject_ids", "optional_subject_ids", "approved_by", "created_at"}
}

func TestSelectionRepositoryCreateNew(t *testing.T) {
	db, mock, cleanup := newSelectionMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec("INSERT INTO subject_selections").
		WillReturnResult(sqlmock.NewResult(1, 1))

	selection := &models.SubjectSelection{
		StudentID:          "student-1",
		AcademicYearID:     "year-1",
		CoreSubjectIDs:     pq.StringArray{"subject-1", "subject-2"},
		OptionalSubjectIDs: pq.StringArray{"subject-3"},
	}
	created, err := repo.Create(context.Background(), selection)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, selection.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryCreateConflictReturnsExisting(t *testing.T) {
	db, mock, cleanup := newSelectionMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec("INSERT INTO subject_selections").
		WillReturnResult(sqlmock.NewResult(0, 0))

	existingCreated := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM subject_selections WHERE student_id = \\$1 AND academic_year_id = \\$2").
		WithArgs("student-1", "year-1").
		WillReturnRows(sqlmock.NewRows(selectionColumns()).
			AddRow("selection-1", "student-1", "year-1", pq.StringArray{"subject-1"}, pq.StringArray{"subject-9"}, nil, existingCreated))

	selection := &models.SubjectSelection{
		StudentID:          "student-1",
		AcademicYearID:     "year-1",
		OptionalSubjectIDs: pq.StringArray{"subject-3"},
	}
	created, err := repo.Create(context.Background(), selection)
	require.NoError(t, err)
	assert.False(t, created)
	// Caller gets the row that already existed, not the attempted one.
	assert.Equal(t, "selection-1", selection.ID)
	assert.Equal(t, pq.StringArray{"subject-9"}, selection.OptionalSubjectIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
