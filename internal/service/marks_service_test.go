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

type mockExamReader struct {
	exams map[string]*models.Exam
}

func (m *mockExamReader) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if e, ok := m.exams[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

type mockResultWriter struct {
	saved []models.Result
}

func (m *mockResultWriter) Upsert(ctx context.Context, result *models.Result) error {
	m.saved = append(m.saved, *result)
	return nil
}

type mockEligibilityChecker struct {
	outcomes map[string]models.Eligibility
}

func (m *mockEligibilityChecker) Check(ctx context.Context, studentID, subjectID, academicYearID string) (*models.Eligibility, error) {
	if outcome, ok := m.outcomes[studentID+":"+subjectID]; ok {
		return &outcome, nil
	}
	return &models.Eligibility{StudentID: studentID, SubjectID: subjectID, Eligible: true}, nil
}

type mockAuthorizer struct {
	denied map[string]bool
	calls  int
}

func (m *mockAuthorizer) Authorize(ctx context.Context, teacherID, subjectID, classID string) error {
	m.calls++
	if m.denied[teacherID] {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this subject in this class")
	}
	return nil
}

func ptrFloat(v float64) *float64 {
	return &v
}

type marksFixture struct {
	students    *mockStudentReader
	exams       *mockExamReader
	results     *mockResultWriter
	eligibility *mockEligibilityChecker
	authz       *mockAuthorizer
	svc         *MarksService
}

func newMarksFixture() *marksFixture {
	f := &marksFixture{
		students: &mockStudentReader{students: map[string]*models.Student{
			"stu-o": {ID: "stu-o", FullName: "Okello James", EducationLevel: models.OLevel, ClassID: "s3a", Active: true},
			"stu-a": {ID: "stu-a", FullName: "Nantale Ruth", EducationLevel: models.ALevel, ClassID: "s5s", Active: true},
		}},
		exams:       &mockExamReader{exams: map[string]*models.Exam{"mid": {ID: "mid", Name: "Midterm", Term: "II", AcademicYearID: "2026"}}},
		results:     &mockResultWriter{},
		eligibility: &mockEligibilityChecker{outcomes: map[string]models.Eligibility{}},
		authz:       &mockAuthorizer{denied: map[string]bool{}},
	}
	f.svc = NewMarksService(f.students, f.exams, f.results, f.eligibility, f.authz, validator.New(), zap.NewNop())
	return f
}

func TestEnterMarkComputesGradeAndPoints(t *testing.T) {
	f := newMarksFixture()

	outcome, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(86),
	})
	require.NoError(t, err)
	assert.Equal(t, "D1", outcome.Result.Grade)
	assert.Equal(t, 1, outcome.Result.Points)
	assert.Equal(t, "s3a", outcome.Result.ClassID)
	assert.Equal(t, "2026", outcome.Result.AcademicYearID)
	assert.Equal(t, "t1", outcome.Result.EnteredBy)
	require.Len(t, f.results.saved, 1)
}

func TestEnterMarkZeroIsValid(t *testing.T) {
	f := newMarksFixture()

	outcome, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "F9", outcome.Result.Grade)
	assert.Equal(t, 9, outcome.Result.Points)
}

func TestEnterMarkRejectsOutOfRange(t *testing.T) {
	f := newMarksFixture()
	actor := Actor{UserID: "t1", Role: models.RoleTeacher}

	for _, marks := range []float64{-1, 100.5} {
		_, err := f.svc.EnterMark(context.Background(), actor, EnterMarkRequest{
			StudentID: "stu-o", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(marks),
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, f.results.saved)
}

func TestEnterMarkMissingMarksFailsValidation(t *testing.T) {
	f := newMarksFixture()

	_, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "math", ExamID: "mid",
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "marks")
}

func TestEnterMarkUnassignedTeacherForbidden(t *testing.T) {
	f := newMarksFixture()
	f.authz.denied["t2"] = true

	_, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t2", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(70),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.results.saved)
}

func TestEnterMarkAdminBypassesAssignmentCheck(t *testing.T) {
	f := newMarksFixture()
	f.authz.denied["admin"] = true

	_, err := f.svc.EnterMark(context.Background(), Actor{UserID: "admin", Role: models.RoleAdmin}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(70),
	})
	require.NoError(t, err)
	assert.Zero(t, f.authz.calls)
}

func TestEnterMarkOverridableWarningProceeds(t *testing.T) {
	f := newMarksFixture()
	f.eligibility.outcomes["stu-o:art"] = models.Eligibility{
		StudentID: "stu-o", SubjectID: "art", Eligible: false,
		Warning: "optional subject ART not selected by student",
	}

	outcome, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-o", SubjectID: "art", ExamID: "mid", Marks: ptrFloat(55),
	})
	require.NoError(t, err)
	assert.Contains(t, outcome.Warning, "not selected")
	require.Len(t, f.results.saved, 1)
}

func TestEnterMarkHardIneligibilityBlocks(t *testing.T) {
	f := newMarksFixture()
	f.eligibility.outcomes["stu-a:math"] = models.Eligibility{
		StudentID: "stu-a", SubjectID: "math", Eligible: false,
		Reason: "student has no subject combination",
	}

	_, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-a", SubjectID: "math", ExamID: "mid", Marks: ptrFloat(55),
	})
	require.Error(t, err)
	assert.Equal(t, "student has no subject combination", appErrors.FromError(err).Message)
	assert.Empty(t, f.results.saved)
}

func TestEnterMarkPrincipalFromEligibility(t *testing.T) {
	f := newMarksFixture()
	f.eligibility.outcomes["stu-a:phy"] = models.Eligibility{
		StudentID: "stu-a", SubjectID: "phy", Eligible: true, IsPrincipal: true,
	}

	outcome, err := f.svc.EnterMark(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterMarkRequest{
		StudentID: "stu-a", SubjectID: "phy", ExamID: "mid", Marks: ptrFloat(82),
	})
	require.NoError(t, err)
	assert.True(t, outcome.Result.Principal())
	assert.Equal(t, "A", outcome.Result.Grade)
	assert.Equal(t, 1, outcome.Result.Points)
}

func TestEnterBatchMarksPartialSuccess(t *testing.T) {
	f := newMarksFixture()
	f.students.students["stu-o2"] = &models.Student{ID: "stu-o2", FullName: "Apio Grace", EducationLevel: models.OLevel, ClassID: "s3a", Active: true}

	result, err := f.svc.EnterBatchMarks(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterBatchMarksRequest{
		SubjectID: "math",
		ExamID:    "mid",
		Items: []BatchMarkItem{
			{StudentID: "stu-o", Marks: ptrFloat(74)},
			{StudentID: "stu-o2", Marks: ptrFloat(61)},
			{StudentID: "missing", Marks: ptrFloat(50)},
			{StudentID: "stu-o", Marks: ptrFloat(180)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "missing", result.Failures[0].StudentID)
	assert.Equal(t, "student not found", result.Failures[0].Reason)
	assert.Equal(t, "marks must be between 0 and 100", result.Failures[1].Reason)
	assert.Len(t, f.results.saved, 2)
}

func TestEnterBatchMarksEmptyItemsRejected(t *testing.T) {
	f := newMarksFixture()

	_, err := f.svc.EnterBatchMarks(context.Background(), Actor{UserID: "t1", Role: models.RoleTeacher}, EnterBatchMarksRequest{
		SubjectID: "math", ExamID: "mid",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
