package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type assignmentChecker interface {
	HasActiveAssignment(ctx context.Context, teacherID, subjectID, classID string) (bool, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// AuthorizationService decides whether a teacher may enter marks for a
// subject in a class. A grant comes from either an active subject assignment
// or from being the class teacher. Decisions are cached briefly; assignment
// writes invalidate the teacher's cached decisions before returning so a
// revoked grant is never honoured past the write.
type AuthorizationService struct {
	assignments assignmentChecker
	classes     classReader
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewAuthorizationService constructs AuthorizationService.
func NewAuthorizationService(assignments assignmentChecker, classes classReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *AuthorizationService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizationService{
		assignments: assignments,
		classes:     classes,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func authzCacheKey(teacherID, subjectID, classID string) string {
	return fmt.Sprintf("authz:%s:%s:%s", teacherID, subjectID, classID)
}

// CanEnterMarks reports whether the teacher holds a grant for the subject in
// the class.
func (s *AuthorizationService) CanEnterMarks(ctx context.Context, teacherID, subjectID, classID string) (bool, error) {
	key := authzCacheKey(teacherID, subjectID, classID)
	var cached bool
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	allowed, err := s.decide(ctx, teacherID, subjectID, classID)
	if err != nil {
		return false, err
	}

	if err := s.cache.Set(ctx, key, allowed, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache authorization decision", zap.String("teacher_id", teacherID), zap.Error(err))
	}
	return allowed, nil
}

// Authorize is CanEnterMarks that converts a denial into ErrForbidden.
func (s *AuthorizationService) Authorize(ctx context.Context, teacherID, subjectID, classID string) error {
	allowed, err := s.CanEnterMarks(ctx, teacherID, subjectID, classID)
	if err != nil {
		return err
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this subject in this class")
	}
	return nil
}

// InvalidateTeacher drops every cached decision for a teacher. Assignment
// writes call this before reporting success.
func (s *AuthorizationService) InvalidateTeacher(ctx context.Context, teacherID string) error {
	return s.cache.Invalidate(ctx, fmt.Sprintf("authz:%s:*", teacherID))
}

func (s *AuthorizationService) decide(ctx context.Context, teacherID, subjectID, classID string) (bool, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.ClassTeacherID != nil && *class.ClassTeacherID == teacherID {
		return true, nil
	}

	assigned, err := s.assignments.HasActiveAssignment(ctx, teacherID, subjectID, classID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher assignment")
	}
	return assigned, nil
}
