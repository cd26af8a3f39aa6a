package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/middleware"
	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type studentReaderStub struct {
	students map[string]*models.Student
}

func (s *studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentReaderStub) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return nil, nil
}

type examReaderStub struct {
	exams map[string]*models.Exam
}

func (s *examReaderStub) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := s.exams[id]; ok {
		return exam, nil
	}
	return nil, sql.ErrNoRows
}

type resultWriterStub struct {
	saved []models.Result
}

func (s *resultWriterStub) Upsert(ctx context.Context, result *models.Result) error {
	s.saved = append(s.saved, *result)
	return nil
}

type eligibilityStub struct{}

func (eligibilityStub) Check(ctx context.Context, studentID, subjectID, academicYearID string) (*models.Eligibility, error) {
	return &models.Eligibility{StudentID: studentID, SubjectID: subjectID, Eligible: true}, nil
}

type authorizerStub struct {
	deny bool
}

func (s *authorizerStub) Authorize(ctx context.Context, teacherID, subjectID, classID string) error {
	if s.deny {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this subject in this class")
	}
	return nil
}

type resultListerStub struct{}

func (resultListerStub) ListByStudentAndExam(ctx context.Context, studentID, examID string) ([]models.ResultRow, error) {
	return nil, nil
}

func (resultListerStub) ListByClassAndExam(ctx context.Context, classID, examID string) ([]models.ResultRow, error) {
	return nil, nil
}

type classReaderStub struct{}

func (classReaderStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return nil, sql.ErrNoRows
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newMarksHandlerForTest(deny bool) (*MarksHandler, *resultWriterStub) {
	students := &studentReaderStub{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FullName: "Okello James", EducationLevel: models.OLevel, ClassID: "s3a", Active: true},
	}}
	exams := &examReaderStub{exams: map[string]*models.Exam{
		"mid": {ID: "mid", Name: "Midterm", Term: "II", AcademicYearID: "2026"},
	}}
	writer := &resultWriterStub{}
	marks := service.NewMarksService(students, exams, writer, eligibilityStub{}, &authorizerStub{deny: deny}, nil, zap.NewNop())
	results := service.NewResultsService(resultListerStub{}, students, exams, classReaderStub{}, service.NewCacheService(nil, nil, 0, zap.NewNop(), false), zap.NewNop())
	return NewMarksHandler(marks, results), writer
}

func TestMarksHandlerEnter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, writer := newMarksHandlerForTest(false)

	marks := 74.0
	payload, _ := json.Marshal(service.EnterMarkRequest{StudentID: "stu-1", SubjectID: "math", ExamID: "mid", Marks: &marks})
	c, w := newGinContext(http.MethodPost, "/marks", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})

	handler.Enter(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, writer.saved, 1)
	require.Equal(t, "C4", writer.saved[0].Grade)
}

func TestMarksHandlerEnterForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, writer := newMarksHandlerForTest(true)

	marks := 74.0
	payload, _ := json.Marshal(service.EnterMarkRequest{StudentID: "stu-1", SubjectID: "math", ExamID: "mid", Marks: &marks})
	c, w := newGinContext(http.MethodPost, "/marks", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher})

	handler.Enter(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, writer.saved)
}

func TestMarksHandlerEnterBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, writer := newMarksHandlerForTest(false)

	first, second := 61.0, 180.0
	payload, _ := json.Marshal(service.EnterBatchMarksRequest{
		SubjectID: "math",
		ExamID:    "mid",
		Items: []service.BatchMarkItem{
			{StudentID: "stu-1", Marks: &first},
			{StudentID: "stu-1", Marks: &second},
		},
	})
	c, w := newGinContext(http.MethodPost, "/marks/batch", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})

	handler.EnterBatch(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, writer.saved, 1)

	var envelope struct {
		Data service.BatchMarksResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.SuccessCount)
	require.Len(t, envelope.Data.Failures, 1)
}

func TestMarksHandlerEnterInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newMarksHandlerForTest(false)

	c, w := newGinContext(http.MethodPost, "/marks", []byte("{"))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})

	handler.Enter(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
