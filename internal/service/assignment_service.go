package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type assignmentRepo interface {
	Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error
	SetStatus(ctx context.Context, assignmentID string, status models.AssignmentStatus) (*models.TeacherSubjectAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignmentDetail, error)
}

type authzInvalidator interface {
	InvalidateTeacher(ctx context.Context, teacherID string) error
}

// CreateAssignmentRequest assigns a teacher to a subject within a class.
type CreateAssignmentRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// AssignmentService manages teacher-subject assignments. Every write
// invalidates the teacher's cached authorization decisions before returning,
// so a revocation takes effect immediately rather than at cache expiry.
type AssignmentService struct {
	assignments assignmentRepo
	authz       authzInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentRepo, authz authzInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, authz: authz, validator: validate, logger: logger}
}

// Create assigns the teacher to the subject in the class.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.TeacherSubjectAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	assignment := &models.TeacherSubjectAssignment{
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		Status:    models.AssignmentActive,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	if err := s.authz.InvalidateTeacher(ctx, req.TeacherID); err != nil {
		s.logger.Warn("failed to invalidate authorization cache", zap.String("teacher_id", req.TeacherID), zap.Error(err))
	}
	return assignment, nil
}

// SetStatus activates or deactivates an assignment.
func (s *AssignmentService) SetStatus(ctx context.Context, assignmentID string, status models.AssignmentStatus) (*models.TeacherSubjectAssignment, error) {
	if status != models.AssignmentActive && status != models.AssignmentInactive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be ACTIVE or INACTIVE")
	}
	assignment, err := s.assignments.SetStatus(ctx, assignmentID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if err := s.authz.InvalidateTeacher(ctx, assignment.TeacherID); err != nil {
		s.logger.Warn("failed to invalidate authorization cache", zap.String("teacher_id", assignment.TeacherID), zap.Error(err))
	}
	return assignment, nil
}

// ListByTeacher returns a teacher's assignments with display names.
func (s *AssignmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherSubjectAssignmentDetail, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}
