package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type marksStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type examReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type resultWriter interface {
	Upsert(ctx context.Context, result *models.Result) error
}

type eligibilityChecker interface {
	Check(ctx context.Context, studentID, subjectID, academicYearID string) (*models.Eligibility, error)
}

type marksAuthorizer interface {
	Authorize(ctx context.Context, teacherID, subjectID, classID string) error
}

// Actor identifies who is entering marks. Teachers are checked against their
// assignments; admins and headteachers pass through.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// EnterMarkRequest is a single mark entry payload. Marks is a pointer so a
// legitimate zero survives required validation.
type EnterMarkRequest struct {
	StudentID    string   `json:"student_id" validate:"required"`
	SubjectID    string   `json:"subject_id" validate:"required"`
	ExamID       string   `json:"exam_id" validate:"required"`
	Marks        *float64 `json:"marks" validate:"required"`
	Comment      string   `json:"comment"`
	IsPrincipal  *bool    `json:"is_principal,omitempty"`
	IsSubsidiary *bool    `json:"is_subsidiary,omitempty"`
}

// EnterMarkOutcome pairs a persisted result with any eligibility warning
// that was attached instead of blocking the write.
type EnterMarkOutcome struct {
	Result  *models.Result `json:"result"`
	Warning string         `json:"warning,omitempty"`
}

// BatchMarkItem is one student's marks inside a batch payload.
type BatchMarkItem struct {
	StudentID string   `json:"student_id" validate:"required"`
	Marks     *float64 `json:"marks" validate:"required"`
	Comment   string   `json:"comment"`
}

// EnterBatchMarksRequest enters marks for many students in one subject and
// exam. Failing items never abort the batch; they are reported alongside the
// successes.
type EnterBatchMarksRequest struct {
	SubjectID string          `json:"subject_id" validate:"required"`
	ExamID    string          `json:"exam_id" validate:"required"`
	Items     []BatchMarkItem `json:"items" validate:"required,min=1,dive"`
}

// BatchMarkFailure captures one rejected batch item.
type BatchMarkFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BatchMarksResult summarises a batch entry.
type BatchMarksResult struct {
	SuccessCount int                `json:"success_count"`
	Entries      []EnterMarkOutcome `json:"entries"`
	Failures     []BatchMarkFailure `json:"failures,omitempty"`
}

// MarksService validates, authorizes, grades and persists exam marks.
type MarksService struct {
	students    marksStudentReader
	exams       examReader
	results     resultWriter
	eligibility eligibilityChecker
	authz       marksAuthorizer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMarksService constructs MarksService.
func NewMarksService(students marksStudentReader, exams examReader, results resultWriter, eligibility eligibilityChecker, authz marksAuthorizer, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		students:    students,
		exams:       exams,
		results:     results,
		eligibility: eligibility,
		authz:       authz,
		validator:   validate,
		logger:      logger,
	}
}

// EnterMark records marks for one student in one subject and exam. The grade
// and points are always recomputed from the marks; anything the client sent
// for them is ignored. Re-entry for the same (student, subject, exam) updates
// the existing result.
func (s *MarksService) EnterMark(ctx context.Context, actor Actor, req EnterMarkRequest) (*EnterMarkOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	marks := *req.Marks
	if marks < 0 || marks > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks must be between 0 and 100")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if actor.Role == models.RoleTeacher {
		if err := s.authz.Authorize(ctx, actor.UserID, req.SubjectID, student.ClassID); err != nil {
			return nil, err
		}
	}
	exam, err := s.exams.FindByID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	eligibility, err := s.eligibility.Check(ctx, req.StudentID, req.SubjectID, exam.AcademicYearID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible && !eligibility.Overridable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, eligibility.Reason)
	}

	grade, points, err := CalculateGradeAndPoints(student.EducationLevel, marks)
	if err != nil {
		return nil, err
	}

	result := &models.Result{
		StudentID:      req.StudentID,
		SubjectID:      req.SubjectID,
		ExamID:         req.ExamID,
		ClassID:        student.ClassID,
		AcademicYearID: exam.AcademicYearID,
		Marks:          marks,
		Grade:          grade,
		Points:         points,
		EnteredBy:      actor.UserID,
		UpdatedBy:      &actor.UserID,
	}
	if req.Comment != "" {
		result.Comment = &req.Comment
	}
	result.IsPrincipal = principalFlag(eligibility.IsPrincipal, req.IsPrincipal)
	result.IsSubsidiary = principalFlag(eligibility.IsSubsidiary, req.IsSubsidiary)

	if err := s.results.Upsert(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}

	if eligibility.Warning != "" {
		s.logger.Info("mark entered with eligibility warning",
			zap.String("student_id", req.StudentID),
			zap.String("subject_id", req.SubjectID),
			zap.String("warning", eligibility.Warning))
	}
	return &EnterMarkOutcome{Result: result, Warning: eligibility.Warning}, nil
}

// EnterBatchMarks records marks for many students in one subject and exam.
// Items are processed independently; a bad item is reported as a failure and
// the rest proceed.
func (s *MarksService) EnterBatchMarks(ctx context.Context, actor Actor, req EnterBatchMarksRequest) (*BatchMarksResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	result := &BatchMarksResult{}
	for _, item := range req.Items {
		outcome, err := s.EnterMark(ctx, actor, EnterMarkRequest{
			StudentID: item.StudentID,
			SubjectID: req.SubjectID,
			ExamID:    req.ExamID,
			Marks:     item.Marks,
			Comment:   item.Comment,
		})
		if err != nil {
			result.Failures = append(result.Failures, BatchMarkFailure{
				StudentID: item.StudentID,
				Reason:    appErrors.FromError(err).Message,
			})
			continue
		}
		result.SuccessCount++
		result.Entries = append(result.Entries, *outcome)
	}
	return result, nil
}

func principalFlag(fromEligibility bool, override *bool) *bool {
	if override != nil {
		return override
	}
	if fromEligibility {
		value := true
		return &value
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		if first.Tag() == "required" {
			return fmt.Sprintf("field %s is required", strings.ToLower(first.Field()))
		}
		return fmt.Sprintf("field %s failed %s validation", strings.ToLower(first.Field()), first.Tag())
	}
	return "invalid payload"
}
