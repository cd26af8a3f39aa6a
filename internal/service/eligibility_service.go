package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type eligibilityStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type eligibilitySubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type combinationReader interface {
	FindByID(ctx context.Context, id string) (*models.SubjectCombination, error)
}

type selectionReader interface {
	FindByStudentAndYear(ctx context.Context, studentID, academicYearID string) (*models.SubjectSelection, error)
}

// EligibilityService decides whether a student may receive marks for a
// subject. Level mismatches and missing A-Level combinations block outright;
// an unselected optional or a subject outside the combination only attaches
// a warning so the entry clerk can still proceed.
type EligibilityService struct {
	students     eligibilityStudentReader
	subjects     eligibilitySubjectReader
	combinations combinationReader
	selections   selectionReader
	logger       *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(students eligibilityStudentReader, subjects eligibilitySubjectReader, combinations combinationReader, selections selectionReader, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		students:     students,
		subjects:     subjects,
		combinations: combinations,
		selections:   selections,
		logger:       logger,
	}
}

// Check evaluates one student against one subject for the academic year.
func (s *EligibilityService) Check(ctx context.Context, studentID, subjectID, academicYearID string) (*models.Eligibility, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return s.evaluate(ctx, student, subject, academicYearID)
}

// CheckClass evaluates every active student in a class against a subject.
// The returned map always covers the whole roster; ineligible students are
// present with their reason rather than omitted.
func (s *EligibilityService) CheckClass(ctx context.Context, classID, subjectID, academicYearID string) (map[string]models.Eligibility, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	outcomes := make(map[string]models.Eligibility, len(students))
	for i := range students {
		eligibility, err := s.evaluate(ctx, &students[i], subject, academicYearID)
		if err != nil {
			return nil, err
		}
		outcomes[students[i].ID] = *eligibility
	}
	return outcomes, nil
}

func (s *EligibilityService) evaluate(ctx context.Context, student *models.Student, subject *models.Subject, academicYearID string) (*models.Eligibility, error) {
	outcome := &models.Eligibility{StudentID: student.ID, SubjectID: subject.ID}

	if !student.EducationLevel.Valid() {
		outcome.Reason = fmt.Sprintf("unsupported education level %q", student.EducationLevel)
		return outcome, nil
	}
	if !subject.Level.Matches(student.EducationLevel) {
		outcome.Reason = fmt.Sprintf("subject %s is not offered at %s", subject.Code, student.EducationLevel)
		return outcome, nil
	}

	switch student.EducationLevel {
	case models.OLevel:
		return s.evaluateOLevel(ctx, student, subject, academicYearID, outcome)
	case models.ALevel:
		return s.evaluateALevel(ctx, student, subject, outcome)
	default:
		outcome.Reason = fmt.Sprintf("unsupported education level %q", student.EducationLevel)
		return outcome, nil
	}
}

func (s *EligibilityService) evaluateOLevel(ctx context.Context, student *models.Student, subject *models.Subject, academicYearID string, outcome *models.Eligibility) (*models.Eligibility, error) {
	if subject.Type == models.SubjectCore {
		outcome.Eligible = true
		return outcome, nil
	}

	selection, err := s.selections.FindByStudentAndYear(ctx, student.ID, academicYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			outcome.Warning = fmt.Sprintf("optional subject %s not selected by student", subject.Code)
			return outcome, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject selection")
	}
	if !selection.HasOptional(subject.ID) {
		outcome.Warning = fmt.Sprintf("optional subject %s not selected by student", subject.Code)
		return outcome, nil
	}
	outcome.Eligible = true
	return outcome, nil
}

func (s *EligibilityService) evaluateALevel(ctx context.Context, student *models.Student, subject *models.Subject, outcome *models.Eligibility) (*models.Eligibility, error) {
	if student.SubjectCombinationID == nil || *student.SubjectCombinationID == "" {
		outcome.Reason = "student has no subject combination"
		return outcome, nil
	}

	combination, err := s.combinations.FindByID(ctx, *student.SubjectCombinationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			outcome.Reason = "student has no subject combination"
			return outcome, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject combination")
	}
	item, ok := combination.FindItem(subject.ID)
	if !ok {
		outcome.Warning = fmt.Sprintf("subject %s is not in combination %s", subject.Code, combination.Code)
		return outcome, nil
	}
	outcome.Eligible = true
	outcome.IsPrincipal = item.IsPrincipal
	outcome.IsSubsidiary = item.IsSubsidiary
	return outcome, nil
}
