package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remindflow/internal/api"
	"remindflow/internal/config"
	"remindflow/internal/database"
	"remindflow/internal/metrics"
	"remindflow/internal/repository"
	"remindflow/internal/service"
	"remindflow/internal/webhook"
	"remindflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 2. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Infrastructure
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}

	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. Initialize Repositories
	reminderRepo := repository.NewReminderRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)

	// 5. Initialize Services
	observer := metrics.NewPrometheusObserver()
	reminderSvc := service.NewReminderService(reminderRepo, webhookRepo)
	webhookSvc := service.NewWebhookService(webhookRepo)

	// 6. Start the dispatch scheduler
	dispatcher := service.NewDispatcher(
		reminderRepo,
		webhook.NewClient(cfg.Dispatch.DeliveryTimeout),
		observer,
		cfg.Dispatch.BatchSize,
	)
	scheduler := service.NewScheduler(dispatcher, service.NewCronTrigger(), cfg.Dispatch.Interval, observer)

	schedulerDone := make(chan error, 1)
	go func() {
		logger.Info("starting scheduler", zap.Int("batch_size", cfg.Dispatch.BatchSize))
		schedulerDone <- scheduler.Run(ctx)
	}()

	// 7. Setup HTTP Server
	if cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.RegisterRoutes(
		api.NewReminderHandler(reminderSvc),
		api.NewWebhookHandler(webhookSvc),
		rdb,
		cfg,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	// 8. Start Server
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	// 9. Wait for a signal or a scheduler failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down server...")
	case err := <-schedulerDone:
		runErr = fmt.Errorf("scheduler stopped: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop the scheduler; an interrupted delivery leaves its reminder pending
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown deadline")
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

// initRedis returns a nil client when no address is configured.
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		logger.Info("redis disabled, rate limiting is process-local")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
