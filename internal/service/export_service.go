package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/repository"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/export"
	"github.com/edumark/smis-api/pkg/jobs"
	"github.com/edumark/smis-api/pkg/storage"
)

type exportJobRepo interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type csvRenderer interface {
	Render(rows []export.ClassResultRow) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService runs the asynchronous class-results CSV pipeline: a request
// persists a job row and enqueues it; a worker renders the ranked sheet,
// stores the file and stamps a signed download URL on the job.
type ExportService struct {
	repo       exportJobRepo
	aggregates aggregateProvider
	classes    classReader
	exams      examReader
	storage    fileStorage
	csv        csvRenderer
	signer     *storage.DownloadSigner
	queue      jobEnqueuer
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService. The queue is attached later
// with SetQueue because the queue handler needs the service.
func NewExportService(repo exportJobRepo, aggregates aggregateProvider, classes classReader, exams examReader, fileStore fileStorage, signer *storage.DownloadSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:       repo,
		aggregates: aggregates,
		classes:    classes,
		exams:      exams,
		storage:    fileStore,
		csv:        export.NewClassResultsWriter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// SetQueue attaches the job queue used for dispatch.
func (s *ExportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Request persists a new class-results export job and enqueues it.
func (s *ExportService) Request(ctx context.Context, createdBy string, params models.ExportJobParams) (*models.ExportJob, error) {
	if params.ClassID == "" || params.ExamID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id and exam_id are required")
	}
	if _, err := s.classes.FindByID(ctx, params.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.exams.FindByID(ctx, params.ExamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	job := &models.ExportJob{
		Type:      models.ExportTypeClassResults,
		Params:    params,
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.enqueue(job.ID); err != nil {
		s.logger.Error("failed to enqueue export job", zap.String("job_id", job.ID), zap.Error(err))
	}
	return job, nil
}

// Status returns the job row for polling.
func (s *ExportService) Status(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// Handle is the queue handler; it renders and stores one export job.
func (s *ExportService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}

	if err := s.markProcessing(ctx, job.ID); err != nil {
		return err
	}

	url, err := s.generate(ctx, job)
	if err != nil {
		s.markFailed(ctx, job.ID, err)
		return err
	}
	return s.markFinished(ctx, job.ID, url)
}

// RecoverPending re-enqueues jobs that were queued when the process last
// stopped.
func (s *ExportService) RecoverPending(ctx context.Context) error {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.enqueue(job.ID); err != nil {
			s.logger.Warn("failed to re-enqueue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered pending export jobs", zap.Int("count", len(pending)))
	}
	return nil
}

// ExportDownload wraps an open export file for streaming.
type ExportDownload struct {
	File     *os.File
	Filename string
}

// ResolveDownload validates a token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claim, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, claim.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(claim.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{File: file, Filename: filepath.Base(claim.Path)}, nil
}

// Cleanup removes export files older than the configured TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func (s *ExportService) enqueue(jobID string) error {
	if s.queue == nil {
		return fmt.Errorf("export queue not attached")
	}
	return s.queue.Enqueue(jobs.Job{ID: jobID, Type: string(models.ExportTypeClassResults)})
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	report, err := s.aggregates.ClassResults(ctx, job.Params.ClassID, job.Params.ExamID)
	if err != nil {
		return "", err
	}

	payload, err := s.csv.Render(classResultsRows(report))
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("class-results/%s_%s_%s.csv",
		sanitizeFilename(job.Params.ClassID),
		sanitizeFilename(job.Params.ExamID),
		time.Now().UTC().Format("20060102_150405"))
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", err
	}

	token, _, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return "", err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download/%s", prefix, token), nil
}

func classResultsRows(report *models.ClassAggregate) []export.ClassResultRow {
	rows := make([]export.ClassResultRow, 0, len(report.Students))
	for _, student := range report.Students {
		rows = append(rows, export.ClassResultRow{
			Position:     student.Position,
			StudentID:    student.StudentID,
			StudentName:  student.StudentName,
			SubjectCount: len(student.Results),
			AverageMarks: student.AverageMarks,
			TotalPoints:  formatPoints(student.TotalPoints),
			Division:     formatDivision(student.Division),
		})
	}
	return rows
}

func formatPoints(points *int) string {
	if points == nil {
		return ""
	}
	return fmt.Sprintf("%d", *points)
}

func formatDivision(division *models.Division) string {
	if division == nil {
		return ""
	}
	return string(*division)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) markProcessing(ctx context.Context, jobID string) error {
	status := models.ExportStatusProcessing
	progress := 10
	return s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{Status: &status, Progress: &progress})
}

func (s *ExportService) markFinished(ctx context.Context, jobID, url string) error {
	status := models.ExportStatusFinished
	progress := 100
	now := time.Now().UTC()
	return s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{Status: &status, Progress: &progress, ResultURL: &url, FinishedAt: &now})
}

func (s *ExportService) markFailed(ctx context.Context, jobID string, cause error) {
	status := models.ExportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{Status: &status, ErrorMessage: &message, FinishedAt: &now}); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
