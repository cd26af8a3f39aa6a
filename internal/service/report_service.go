package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type aggregateProvider interface {
	StudentResults(ctx context.Context, studentID, examID string) (*models.StudentAggregate, error)
	ClassResults(ctx context.Context, classID, examID string) (*models.ClassAggregate, error)
}

// SchoolInfo is the static identity printed on report headers.
type SchoolInfo struct {
	Name  string
	Motto string
}

// ReportService shapes aggregated results into printable report payloads
// with the school header block.
type ReportService struct {
	aggregates aggregateProvider
	exams      examReader
	classes    classReader
	school     SchoolInfo
	logger     *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(aggregates aggregateProvider, exams examReader, classes classReader, school SchoolInfo, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		aggregates: aggregates,
		exams:      exams,
		classes:    classes,
		school:     school,
		logger:     logger,
	}
}

// StudentReport builds one student's report for an exam.
func (s *ReportService) StudentReport(ctx context.Context, studentID, examID string) (*models.StudentReport, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	aggregate, err := s.aggregates.StudentResults(ctx, studentID, examID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.StudentReportRow, 0, len(aggregate.Results))
	for _, result := range aggregate.Results {
		row := models.StudentReportRow{
			SubjectCode: result.SubjectCode,
			SubjectName: result.SubjectName,
			Marks:       result.Marks,
			Grade:       result.Grade,
			Points:      result.Points,
			IsPrincipal: result.Principal(),
		}
		if result.Comment != nil {
			row.Comment = *result.Comment
		}
		rows = append(rows, row)
	}

	return &models.StudentReport{
		Header: models.SchoolHeader{
			SchoolName: s.school.Name,
			Motto:      s.school.Motto,
			ExamName:   exam.Name,
			Term:       exam.Term,
		},
		StudentID:   aggregate.StudentID,
		StudentName: aggregate.StudentName,
		Rows:        rows,
		Summary: models.StudentReportSummary{
			TotalPoints:     aggregate.TotalPoints,
			Division:        aggregate.Division,
			AverageMarks:    aggregate.AverageMarks,
			SubjectCount:    len(aggregate.Results),
			MissingSubjects: aggregate.MissingSubjects,
		},
	}, nil
}

// ClassReport builds a ranked class sheet for an exam.
func (s *ReportService) ClassReport(ctx context.Context, classID, examID string) (*models.ClassReport, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	aggregate, err := s.aggregates.ClassResults(ctx, classID, examID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ClassReportRow, 0, len(aggregate.Students))
	for _, student := range aggregate.Students {
		rows = append(rows, models.ClassReportRow{
			Position:     student.Position,
			StudentID:    student.StudentID,
			StudentName:  student.StudentName,
			TotalPoints:  student.TotalPoints,
			AverageMarks: student.AverageMarks,
			Division:     student.Division,
			SubjectCount: len(student.Results),
		})
	}

	return &models.ClassReport{
		Header: models.SchoolHeader{
			SchoolName: s.school.Name,
			Motto:      s.school.Motto,
			ExamName:   exam.Name,
			Term:       exam.Term,
			ClassName:  class.Name,
		},
		Rows:          rows,
		DivisionStats: aggregate.DivisionStats,
		SubjectStats:  aggregate.SubjectStats,
	}, nil
}

func (s *ReportService) loadExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}
