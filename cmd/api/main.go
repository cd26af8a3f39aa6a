package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edumark/smis-api/api/swagger"
	"github.com/edumark/smis-api/internal/handler"
	"github.com/edumark/smis-api/internal/middleware"
	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/repository"
	"github.com/edumark/smis-api/internal/service"
	"github.com/edumark/smis-api/pkg/cache"
	"github.com/edumark/smis-api/pkg/config"
	"github.com/edumark/smis-api/pkg/database"
	"github.com/edumark/smis-api/pkg/jobs"
	"github.com/edumark/smis-api/pkg/logger"
	corsmiddleware "github.com/edumark/smis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edumark/smis-api/pkg/middleware/requestid"
	"github.com/edumark/smis-api/pkg/storage"
)

// @title SMIS Results API
// @version 1.0.0
// @description Marks entry, eligibility and results aggregation for secondary schools
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// the cache is an optimisation; the API stays up without it
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	examRepo := repository.NewExamRepository(db)
	combinationRepo := repository.NewCombinationRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	// services
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheEnabled := cfg.Authorization.CacheEnabled && redisClient != nil
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Authorization.CacheTTL, logr, cacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	authzSvc := service.NewAuthorizationService(assignmentRepo, classRepo, cacheSvc, cfg.Authorization.CacheTTL, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, subjectRepo, combinationRepo, selectionRepo, logr)
	marksSvc := service.NewMarksService(studentRepo, examRepo, resultRepo, eligibilitySvc, authzSvc, validate, logr)
	resultsSvc := service.NewResultsService(resultRepo, studentRepo, examRepo, classRepo, cacheSvc, logr)
	reportSvc := service.NewReportService(resultsSvc, examRepo, classRepo, service.SchoolInfo{
		Name:  cfg.School.Name,
		Motto: cfg.School.Motto,
	}, logr)
	selectionSvc := service.NewSelectionService(selectionRepo, studentRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, authzSvc, validate, logr)

	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewDownloadSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportJobRepo := repository.NewExportJobRepository(db)
		exportSvc = service.NewExportService(exportJobRepo, resultsSvc, classRepo, examRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr)
		exportQueue = jobs.NewQueue("exports", exportSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc.SetQueue(exportQueue)
		exportQueue.Start(ctx)
		if err := exportSvc.RecoverPending(ctx); err != nil {
			logr.Warn("failed to recover pending export jobs", zap.Error(err))
		}
		go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	marksHandler := handler.NewMarksHandler(marksSvc, resultsSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc)
	resultsHandler := handler.NewResultsHandler(resultsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	if cfg.Exports.Enabled {
		// token-authenticated; the signed URL is the credential
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		staff := authed.Group("", middleware.RequireRoles(models.RoleTeacher, models.RoleHeadteacher, models.RoleAdmin))
		{
			staff.POST("/marks", marksHandler.Enter)
			staff.POST("/marks/batch", marksHandler.EnterBatch)
			staff.GET("/eligibility", eligibilityHandler.Check)
			staff.GET("/eligibility/classes/:classId", eligibilityHandler.CheckClass)
			staff.GET("/results/students/:studentId/exams/:examId", resultsHandler.Student)
			staff.GET("/results/classes/:classId/exams/:examId", resultsHandler.Class)
			staff.GET("/reports/students/:studentId/exams/:examId", reportHandler.Student)
			staff.GET("/reports/classes/:classId/exams/:examId", reportHandler.Class)
			staff.GET("/selections/students/:studentId", selectionHandler.Get)
			staff.GET("/assignments/teachers/:teacherId", assignmentHandler.ListByTeacher)
			if cfg.Exports.Enabled {
				staff.POST("/exports", exportHandler.Request)
				staff.GET("/exports/:id", exportHandler.Status)
			}
		}

		admin := authed.Group("", middleware.RequireRoles(models.RoleHeadteacher, models.RoleAdmin))
		{
			admin.POST("/selections", selectionHandler.Select)
			admin.POST("/assignments", assignmentHandler.Create)
			admin.PATCH("/assignments/:id/status", assignmentHandler.SetStatus)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
	if cacheRepo != nil {
		_ = cacheRepo.Close()
	}
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup()
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("removed expired export files", zap.Int("count", len(removed)))
			}
		}
	}
}
