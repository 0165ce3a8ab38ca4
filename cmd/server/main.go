package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/config"
	"github.com/ccccowo/imark-backend/internal/database"
	"github.com/ccccowo/imark-backend/internal/handler"
	"github.com/ccccowo/imark-backend/internal/lock"
	"github.com/ccccowo/imark-backend/internal/logger"
	"github.com/ccccowo/imark-backend/internal/oracle"
	"github.com/ccccowo/imark-backend/internal/queue"
	"github.com/ccccowo/imark-backend/internal/repository"
	"github.com/ccccowo/imark-backend/internal/router"
	"github.com/ccccowo/imark-backend/internal/service"
	"github.com/ccccowo/imark-backend/internal/storage"
	"github.com/ccccowo/imark-backend/internal/validator"
	"github.com/ccccowo/imark-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting iMark Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Image Storage ─────────────────────────────────────────────────
	var store storage.ImageStore
	switch cfg.StorageBackend {
	case "kodo":
		store = storage.NewKodoStore(cfg, log)
	default:
		store, err = storage.NewFSStore(cfg.UploadDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize upload directory")
		}
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	examineeRepo := repository.NewExamineeRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRecordRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	bus := queue.NewRedisBus(rdb)
	locker := lock.NewRedisLocker(rdb)
	lifecycle := service.NewExamLifecycle(examRepo, log)

	examService := service.NewExamService(examRepo, examineeRepo, answerRepo, store, log)
	templateService := service.NewTemplateService(examRepo, questionRepo, log)
	mediaService := service.NewMediaService(examRepo, store, log)
	segmentationService := service.NewSegmentationService(
		examRepo, questionRepo, examineeRepo, answerRepo, store, locker, lifecycle, log)
	gradingService := service.NewGradingService(answerRepo, examineeRepo, lifecycle, bus, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:         handler.NewExamHandler(examService),
		Question:     handler.NewQuestionHandler(templateService),
		Media:        handler.NewMediaHandler(mediaService, cfg.MaxUploadBytes),
		Segmentation: handler.NewSegmentationHandler(segmentationService, cfg.MaxUploadBytes),
		Grading:      handler.NewGradingHandler(gradingService),
		WS:           handler.NewWSHandler(bus, examService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	oracleClient := oracle.NewOpenAIClient(cfg.OracleBaseURL, cfg.OracleAPIKey, cfg.OracleModel, log)
	aiWorker := worker.NewAIGradingWorker(
		bus, gradingService, questionRepo, oracleClient,
		cfg.OracleTimeout, cfg.PublicBaseURL, log)

	go aiWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker and give in-flight oracle calls a moment.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
