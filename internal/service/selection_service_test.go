package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type memorySelectionRepo struct {
	selections map[string]*models.SubjectSelection
}

func newMemorySelectionRepo() *memorySelectionRepo {
	return &memorySelectionRepo{selections: make(map[string]*models.SubjectSelection)}
}

func (m *memorySelectionRepo) FindByStudentAndYear(ctx context.Context, studentID, academicYearID string) (*models.SubjectSelection, error) {
	if s, ok := m.selections[studentID+":"+academicYearID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memorySelectionRepo) Create(ctx context.Context, selection *models.SubjectSelection) (bool, error) {
	key := selection.StudentID + ":" + selection.AcademicYearID
	if existing, ok := m.selections[key]; ok {
		*selection = *existing
		return false, nil
	}
	stored := *selection
	m.selections[key] = &stored
	return true, nil
}

func newSelectionFixture() (*SelectionService, *memorySelectionRepo) {
	repo := newMemorySelectionRepo()
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-o": {ID: "stu-o", FullName: "Okello James", EducationLevel: models.OLevel, ClassID: "s3a", Active: true},
		"stu-a": {ID: "stu-a", FullName: "Nantale Ruth", EducationLevel: models.ALevel, ClassID: "s5s", Active: true},
	}}
	return NewSelectionService(repo, students, validator.New(), zap.NewNop()), repo
}

func TestSelectSubjectsCreates(t *testing.T) {
	svc, _ := newSelectionFixture()

	result, err := svc.Select(context.Background(), "admin", SelectSubjectsRequest{
		StudentID:          "stu-o",
		AcademicYearID:     "2026",
		OptionalSubjectIDs: []string{"art", "agr"},
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	require.NotNil(t, result.Selection.ApprovedBy)
	assert.Equal(t, "admin", *result.Selection.ApprovedBy)
}

func TestSelectSubjectsSecondAttemptReturnsExisting(t *testing.T) {
	svc, _ := newSelectionFixture()

	first, err := svc.Select(context.Background(), "admin", SelectSubjectsRequest{
		StudentID: "stu-o", AcademicYearID: "2026", OptionalSubjectIDs: []string{"art"},
	})
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := svc.Select(context.Background(), "admin", SelectSubjectsRequest{
		StudentID: "stu-o", AcademicYearID: "2026", OptionalSubjectIDs: []string{"agr"},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, []string{"art"}, []string(second.Selection.OptionalSubjectIDs))
}

func TestSelectSubjectsRejectsALevelStudent(t *testing.T) {
	svc, _ := newSelectionFixture()

	_, err := svc.Select(context.Background(), "admin", SelectSubjectsRequest{
		StudentID: "stu-a", AcademicYearID: "2026", OptionalSubjectIDs: []string{"art"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSelectSubjectsRequiresOptionals(t *testing.T) {
	svc, _ := newSelectionFixture()

	_, err := svc.Select(context.Background(), "admin", SelectSubjectsRequest{
		StudentID: "stu-o", AcademicYearID: "2026",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSelectionGetNotFound(t *testing.T) {
	svc, _ := newSelectionFixture()

	_, err := svc.Get(context.Background(), "stu-o", "2026")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
