package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type memoryAssignmentRepo struct {
	assignments map[string]*models.TeacherSubjectAssignment
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[string]*models.TeacherSubjectAssignment)}
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	stored := *assignment
	m.assignments[assignment.ID] = &stored
	return nil
}

func (m *memoryAssignmentRepo) SetStatus(ctx context.Context, assignmentID string, status models.AssignmentStatus) (*models.TeacherSubjectAssignment, error) {
	assignment, ok := m.assignments[assignmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	assignment.Status = status
	copied := *assignment
	return &copied, nil
}

func (m *memoryAssignmentRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignmentDetail, error) {
	var details []models.TeacherSubjectAssignmentDetail
	for _, assignment := range m.assignments {
		if assignment.TeacherID == teacherID {
			details = append(details, models.TeacherSubjectAssignmentDetail{TeacherSubjectAssignment: *assignment})
		}
	}
	return details, nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateTeacher(ctx context.Context, teacherID string) error {
	m.invalidated = append(m.invalidated, teacherID)
	return nil
}

func TestAssignmentCreateInvalidatesAuthorization(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	invalidator := &mockInvalidator{}
	svc := NewAssignmentService(repo, invalidator, validator.New(), zap.NewNop())

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{TeacherID: "t1", SubjectID: "math", ClassID: "s3a"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, assignment.Status)
	assert.Equal(t, []string{"t1"}, invalidator.invalidated)
}

func TestAssignmentSetStatusDeactivates(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	invalidator := &mockInvalidator{}
	svc := NewAssignmentService(repo, invalidator, validator.New(), zap.NewNop())

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{TeacherID: "t1", SubjectID: "math", ClassID: "s3a"})
	require.NoError(t, err)

	updated, err := svc.SetStatus(context.Background(), assignment.ID, models.AssignmentInactive)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentInactive, updated.Status)
	assert.Equal(t, []string{"t1", "t1"}, invalidator.invalidated)
}

func TestAssignmentSetStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewAssignmentService(newMemoryAssignmentRepo(), &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.SetStatus(context.Background(), "any", models.AssignmentStatus("SUSPENDED"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentSetStatusNotFound(t *testing.T) {
	svc := NewAssignmentService(newMemoryAssignmentRepo(), &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.SetStatus(context.Background(), "ghost", models.AssignmentInactive)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentCreateMissingFields(t *testing.T) {
	svc := NewAssignmentService(newMemoryAssignmentRepo(), &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{TeacherID: "t1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
