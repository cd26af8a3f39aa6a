package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/repository"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/jobs"
	"github.com/edumark/smis-api/pkg/storage"
)

type memoryExportJobRepo struct {
	jobsByID map[string]*models.ExportJob
}

func newMemoryExportJobRepo() *memoryExportJobRepo {
	return &memoryExportJobRepo{jobsByID: make(map[string]*models.ExportJob)}
}

func (m *memoryExportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	stored := *job
	m.jobsByID[job.ID] = &stored
	return nil
}

func (m *memoryExportJobRepo) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *memoryExportJobRepo) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.jobsByID[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryExportJobRepo) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range m.jobsByID {
		if job.Status == models.ExportStatusQueued && len(queued) < limit {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

type aggregateStub struct{}

func (aggregateStub) StudentResults(ctx context.Context, studentID, examID string) (*models.StudentAggregate, error) {
	return &models.StudentAggregate{StudentID: studentID}, nil
}

func (aggregateStub) ClassResults(ctx context.Context, classID, examID string) (*models.ClassAggregate, error) {
	points := 9
	division := models.DivisionOne
	return &models.ClassAggregate{
		ClassID: classID,
		ExamID:  examID,
		Students: []models.StudentAggregate{
			{StudentID: "stu-1", StudentName: "Okello James", AverageMarks: 88.5, TotalPoints: &points, Division: &division, Position: 1},
			{StudentID: "stu-2", StudentName: "Apio Grace", AverageMarks: 41.0, Position: 2},
		},
	}, nil
}

type inlineQueue struct {
	handler jobs.Handler
}

func (q *inlineQueue) Enqueue(job jobs.Job) error {
	return q.handler(context.Background(), job)
}

func newExportFixture(t *testing.T) (*ExportService, *memoryExportJobRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("secret", time.Hour)
	repo := newMemoryExportJobRepo()
	classes := &mockClassReader{classes: map[string]*models.Class{"s3a": {ID: "s3a", Name: "S3 A", Level: models.OLevel}}}
	exams := &mockExamReader{exams: map[string]*models.Exam{"mid": {ID: "mid", Name: "Midterm", Term: "II", AcademicYearID: "2026"}}}
	svc := NewExportService(repo, aggregateStub{}, classes, exams, store, signer, ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, zap.NewNop())
	svc.SetQueue(&inlineQueue{handler: svc.Handle})
	return svc, repo
}

func TestExportRequestRunsToFinished(t *testing.T) {
	svc, _ := newExportFixture(t)

	job, err := svc.Request(context.Background(), "admin", models.ExportJobParams{ClassID: "s3a", ExamID: "mid"})
	require.NoError(t, err)

	finished, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.ResultURL)
	assert.Contains(t, *finished.ResultURL, "/api/v1/exports/download/")
	require.NotNil(t, finished.FinishedAt)
}

func TestExportRequestUnknownClass(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Request(context.Background(), "admin", models.ExportJobParams{ClassID: "ghost", ExamID: "mid"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportDownloadServesCSV(t *testing.T) {
	svc, _ := newExportFixture(t)

	job, err := svc.Request(context.Background(), "admin", models.ExportJobParams{ClassID: "s3a", ExamID: "mid"})
	require.NoError(t, err)
	finished, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.ResultURL)

	parts := strings.Split(*finished.ResultURL, "/")
	token := parts[len(parts)-1]

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	payload, err := io.ReadAll(download.File)
	require.NoError(t, err)
	content := string(payload)
	assert.Contains(t, content, "Position,Student ID,Student Name")
	assert.Contains(t, content, "Okello James")
	assert.Contains(t, content, ",I")
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))
}

func TestExportDownloadRejectsBadToken(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportRecoverPendingReenqueues(t *testing.T) {
	svc, repo := newExportFixture(t)

	// simulate a job left behind by a previous process
	job := &models.ExportJob{
		Type:      models.ExportTypeClassResults,
		Params:    models.ExportJobParams{ClassID: "s3a", ExamID: "mid"},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	require.NoError(t, svc.RecoverPending(context.Background()))
	recovered, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, recovered.Status)
}
