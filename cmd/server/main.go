package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"bmmregistration/config"
	_ "bmmregistration/docs"
	"bmmregistration/internal/adapters/auth"
	"bmmregistration/internal/adapters/email"
	"bmmregistration/internal/adapters/memberlist"
	deliveryhttp "bmmregistration/internal/delivery/http"
	"bmmregistration/internal/delivery/http/controllers"
	"bmmregistration/internal/delivery/http/middleware"
	"bmmregistration/internal/queue"
	"bmmregistration/internal/repository/postgres"
	"bmmregistration/internal/services"
)

// @title BMM Registration API
// @version 1.0
// @description Registration, check-in, and member sync backend for the biennial membership meeting.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	members := postgres.NewMemberRepository(db)
	events := postgres.NewEventRepository(db)
	jobs := postgres.NewSyncJobRepository(db)
	outbox := postgres.NewTicketOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Queue: Redis when configured, otherwise in-process.
	var q queue.Queue
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		q = queue.NewRedisQueue(redis.NewClient(opts), "bmm", logger)
	} else {
		q = queue.NewMemoryQueue(logger)
	}
	defer q.Close()

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	importSource := memberlist.NewHTTPSource(nil, cfg.MemberListAPIKey)

	// Services
	eventSvc := services.NewEventService(events, logger)
	audit := services.NewAuditRecorder(auditRepo, logger)
	registration := services.NewRegistrationService(members, outbox, audit, logger)
	checkin := services.NewCheckInService(members, logger)
	syncJobs := services.NewSyncJobService(jobs, members, importSource, q, logger)
	dispatcher := services.NewTicketMailDispatcher(outbox, members, events, renderer, mailer, logger, 30*time.Second)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := syncJobs.Start(workerCtx); err != nil {
		logger.Error("failed to start sync job consumer", "err", err)
		os.Exit(1)
	}
	dispatcher.Start(workerCtx)

	// HTTP
	mux := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, eventSvc),
		controllers.NewRegistrationController(logger, registration),
		controllers.NewCheckInController(logger, checkin),
		controllers.NewSyncJobController(logger, syncJobs),
		controllers.NewAuditController(logger, audit),
		verifier,
		logger,
	)
	handler := middleware.LoggingMiddleware(logger, mux)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopWorkers()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		os.Exit(1)
	}
}
