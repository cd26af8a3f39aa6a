package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type resultLister interface {
	ListByStudentAndExam(ctx context.Context, studentID, examID string) ([]models.ResultRow, error)
	ListByClassAndExam(ctx context.Context, classID, examID string) ([]models.ResultRow, error)
}

// divisionNA buckets students whose division cannot be computed yet.
const divisionNA = "N/A"

const classResultsCacheTTL = time.Minute

// ResultsService aggregates raw results into student and class standings:
// best-subject selection, points totals, divisions and class ranking.
type ResultsService struct {
	results  resultLister
	students eligibilityStudentReader
	exams    examReader
	classes  classReader
	cache    *CacheService
	logger   *zap.Logger
}

// NewResultsService constructs ResultsService.
func NewResultsService(results resultLister, students eligibilityStudentReader, exams examReader, classes classReader, cache *CacheService, logger *zap.Logger) *ResultsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsService{
		results:  results,
		students: students,
		exams:    exams,
		classes:  classes,
		cache:    cache,
		logger:   logger,
	}
}

func (s *ResultsService) loadExam(ctx context.Context, examID string) error {
	if _, err := s.exams.FindByID(ctx, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return nil
}

func classResultsCacheKey(classID, examID string) string {
	return fmt.Sprintf("results:class:%s:%s", classID, examID)
}

// StudentResults aggregates one student's results for an exam.
func (s *ResultsService) StudentResults(ctx context.Context, studentID, examID string) (*models.StudentAggregate, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	rows, err := s.results.ListByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	aggregate := aggregateStudent(student.EducationLevel, rows)
	aggregate.StudentID = student.ID
	aggregate.StudentName = student.FullName
	return &aggregate, nil
}

// ClassResults aggregates and ranks every student's results in a class for
// an exam. The payload is cached briefly; marks entry invalidates it.
func (s *ResultsService) ClassResults(ctx context.Context, classID, examID string) (*models.ClassAggregate, error) {
	key := classResultsCacheKey(classID, examID)
	var cached models.ClassAggregate
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	rows, err := s.results.ListByClassAndExam(ctx, classID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class results")
	}

	students := rankStudents(groupAndAggregate(class.Level, rows))
	aggregate := &models.ClassAggregate{
		ClassID:       classID,
		ExamID:        examID,
		Students:      students,
		DivisionStats: divisionStats(students),
		SubjectStats:  subjectStats(class.Level, rows),
	}

	if err := s.cache.Set(ctx, key, aggregate, classResultsCacheTTL); err != nil {
		s.logger.Warn("failed to cache class results", zap.String("class_id", classID), zap.Error(err))
	}
	return aggregate, nil
}

// InvalidateClass drops the cached class aggregate after a marks write.
func (s *ResultsService) InvalidateClass(ctx context.Context, classID, examID string) error {
	return s.cache.Invalidate(ctx, classResultsCacheKey(classID, examID))
}

func groupAndAggregate(level models.EducationLevel, rows []models.ResultRow) []models.StudentAggregate {
	order := make([]string, 0)
	grouped := make(map[string][]models.ResultRow)
	names := make(map[string]string)
	for _, row := range rows {
		if _, ok := grouped[row.StudentID]; !ok {
			order = append(order, row.StudentID)
		}
		grouped[row.StudentID] = append(grouped[row.StudentID], row)
		names[row.StudentID] = row.StudentName
	}
	aggregates := make([]models.StudentAggregate, 0, len(order))
	for _, studentID := range order {
		aggregate := aggregateStudent(level, grouped[studentID])
		aggregate.StudentID = studentID
		aggregate.StudentName = names[studentID]
		aggregates = append(aggregates, aggregate)
	}
	return aggregates
}

func aggregateStudent(level models.EducationLevel, rows []models.ResultRow) models.StudentAggregate {
	aggregate := models.StudentAggregate{Results: rows}
	if len(rows) == 0 {
		aggregate.MissingSubjects = DivisionSubjectCount
		if level == models.ALevel {
			aggregate.MissingSubjects = BestPrincipalCount
		}
		return aggregate
	}

	total := 0.0
	for _, row := range rows {
		total += row.Marks
	}
	aggregate.AverageMarks = RoundAverage(total / float64(len(rows)))

	switch level {
	case models.ALevel:
		principals := make([]models.ResultRow, 0, len(rows))
		for _, row := range rows {
			if row.Principal() {
				principals = append(principals, row)
			}
		}
		if len(principals) < BestPrincipalCount {
			aggregate.MissingSubjects = BestPrincipalCount - len(principals)
		}
		if len(principals) == 0 {
			return aggregate
		}
		best := bestByPoints(principals, BestPrincipalCount)
		points := sumPoints(best)
		aggregate.BestSubjects = best
		aggregate.TotalPoints = &points
		// A-Level standing is ranked on principal points; the O-Level
		// division bands do not apply.
		return aggregate
	default:
		if len(rows) < DivisionSubjectCount {
			aggregate.MissingSubjects = DivisionSubjectCount - len(rows)
			return aggregate
		}
		best := bestByPoints(rows, DivisionSubjectCount)
		points := sumPoints(best)
		division := DivisionFromPoints(points)
		aggregate.BestSubjects = best
		aggregate.TotalPoints = &points
		aggregate.Division = &division
		return aggregate
	}
}

// bestByPoints picks the n strongest results: lowest points first, higher
// marks breaking ties.
func bestByPoints(rows []models.ResultRow, n int) []models.ResultRow {
	sorted := make([]models.ResultRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points < sorted[j].Points
		}
		return sorted[i].Marks > sorted[j].Marks
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func sumPoints(rows []models.ResultRow) int {
	total := 0
	for _, row := range rows {
		total += row.Points
	}
	return total
}

// rankStudents orders students best-first and stamps distinct sequential
// positions. Better division first, then fewer points, then higher average;
// the sort is stable so equal students keep roster order.
func rankStudents(students []models.StudentAggregate) []models.StudentAggregate {
	sort.SliceStable(students, func(i, j int) bool {
		ri, rj := divisionRank(students[i].Division), divisionRank(students[j].Division)
		if ri != rj {
			return ri < rj
		}
		pi, pj := pointsOrInf(students[i].TotalPoints), pointsOrInf(students[j].TotalPoints)
		if pi != pj {
			return pi < pj
		}
		return students[i].AverageMarks > students[j].AverageMarks
	})
	for i := range students {
		students[i].Position = i + 1
	}
	return students
}

func divisionRank(d *models.Division) int {
	if d == nil {
		return models.DivisionNone.Rank()
	}
	return d.Rank()
}

func pointsOrInf(points *int) int {
	if points == nil {
		return int(^uint(0) >> 1)
	}
	return *points
}

func divisionStats(students []models.StudentAggregate) map[string]int {
	stats := map[string]int{
		string(models.DivisionOne):   0,
		string(models.DivisionTwo):   0,
		string(models.DivisionThree): 0,
		string(models.DivisionFour):  0,
		string(models.DivisionNone):  0,
		divisionNA:                   0,
	}
	for _, student := range students {
		if student.Division == nil {
			stats[divisionNA]++
			continue
		}
		stats[string(*student.Division)]++
	}
	return stats
}

func subjectStats(level models.EducationLevel, rows []models.ResultRow) []models.SubjectStats {
	order := make([]string, 0)
	grouped := make(map[string][]models.ResultRow)
	for _, row := range rows {
		if _, ok := grouped[row.SubjectID]; !ok {
			order = append(order, row.SubjectID)
		}
		grouped[row.SubjectID] = append(grouped[row.SubjectID], row)
	}

	stats := make([]models.SubjectStats, 0, len(order))
	for _, subjectID := range order {
		subjectRows := grouped[subjectID]
		distribution := emptyDistribution(level)
		total := 0.0
		for _, row := range subjectRows {
			total += row.Marks
			distribution[row.Grade]++
		}
		stats = append(stats, models.SubjectStats{
			SubjectID:         subjectID,
			SubjectCode:       subjectRows[0].SubjectCode,
			SubjectName:       subjectRows[0].SubjectName,
			TotalStudents:     len(subjectRows),
			AverageMarks:      RoundAverage(total / float64(len(subjectRows))),
			GradeDistribution: distribution,
		})
	}
	return stats
}

// emptyDistribution zero-fills every grade at the level so histograms always
// carry the full grade scale.
func emptyDistribution(level models.EducationLevel) map[string]int {
	distribution := make(map[string]int)
	bands, err := GradesForLevel(level)
	if err != nil {
		return distribution
	}
	for _, band := range bands {
		distribution[band.Grade] = 0
	}
	return distribution
}
