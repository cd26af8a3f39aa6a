package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type selectionRepo interface {
	FindByStudentAndYear(ctx context.Context, studentID, academicYearID string) (*models.SubjectSelection, error)
	Create(ctx context.Context, selection *models.SubjectSelection) (bool, error)
}

// SelectSubjectsRequest records an O-Level student's optional subject picks
// for an academic year.
type SelectSubjectsRequest struct {
	StudentID          string   `json:"student_id" validate:"required"`
	AcademicYearID     string   `json:"academic_year_id" validate:"required"`
	CoreSubjectIDs     []string `json:"core_subject_ids"`
	OptionalSubjectIDs []string `json:"optional_subject_ids" validate:"required,min=1"`
}

// SelectSubjectsResult reports whether a new selection was written or an
// existing one returned.
type SelectSubjectsResult struct {
	Selection *models.SubjectSelection `json:"selection"`
	Created   bool                     `json:"created"`
}

// SelectionService manages O-Level optional subject selections. A student
// holds exactly one selection per academic year; a second attempt returns
// the existing one instead of erroring.
type SelectionService struct {
	selections selectionRepo
	students   marksStudentReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSelectionService constructs SelectionService.
func NewSelectionService(selections selectionRepo, students marksStudentReader, validate *validator.Validate, logger *zap.Logger) *SelectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{selections: selections, students: students, validator: validate, logger: logger}
}

// Select records the student's subject selection.
func (s *SelectionService) Select(ctx context.Context, approvedBy string, req SelectSubjectsRequest) (*SelectSubjectsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.EducationLevel != models.OLevel {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject selection applies to O-Level students only")
	}

	selection := &models.SubjectSelection{
		StudentID:          req.StudentID,
		AcademicYearID:     req.AcademicYearID,
		CoreSubjectIDs:     pq.StringArray(req.CoreSubjectIDs),
		OptionalSubjectIDs: pq.StringArray(req.OptionalSubjectIDs),
	}
	if approvedBy != "" {
		selection.ApprovedBy = &approvedBy
	}
	created, err := s.selections.Create(ctx, selection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save selection")
	}
	if !created {
		s.logger.Info("selection already exists for student",
			zap.String("student_id", req.StudentID),
			zap.String("academic_year_id", req.AcademicYearID))
	}
	return &SelectSubjectsResult{Selection: selection, Created: created}, nil
}

// Get returns the student's selection for the academic year.
func (s *SelectionService) Get(ctx context.Context, studentID, academicYearID string) (*models.SubjectSelection, error) {
	selection, err := s.selections.FindByStudentAndYear(ctx, studentID, academicYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	return selection, nil
}
