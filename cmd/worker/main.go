package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/user/staffstream/internal/adapter/api"
	"github.com/user/staffstream/internal/adapter/mailer"
	"github.com/user/staffstream/internal/adapter/metrics"
	"github.com/user/staffstream/internal/adapter/realtime"
	"github.com/user/staffstream/internal/adapter/repository/postgres"
	redisrepo "github.com/user/staffstream/internal/adapter/repository/redis"
	"github.com/user/staffstream/internal/pkg/config"
	"github.com/user/staffstream/internal/pkg/logger"
	"github.com/user/staffstream/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting notification worker", "streams", cfg.Streams)

	m := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	// Unique consumer identity for this process: hostname plus a random
	// suffix so multiple workers on one host never collide.
	hostname, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		hostname = "worker"
	}
	consumerName := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])

	// --- Adapters ---
	hub := realtime.NewHub(cfg.JWTSecret, log)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPRateLimit, log)
	streamRepo := redisrepo.NewStreamRepository(redisClient, log)
	notificationRepo := postgres.NewNotificationRepository(db, log)
	userDirectory := postgres.NewUserRepository(db)

	// --- Use Cases ---
	notifier := usecase.NewNotificationService(notificationRepo, userDirectory, hub, smtpMailer, log, m)
	dispatcher := usecase.NewDispatcher(notifier, hub, log)

	var tasks []usecase.Task
	for _, stream := range cfg.Streams {
		consumer := usecase.NewStreamConsumer(streamRepo, dispatcher, log, m, stream, consumerName, cfg.BatchSize, cfg.ReadBlock, cfg.ReadBackoff)
		reclaimer := usecase.NewReclaimer(streamRepo, consumer, log, m, stream, consumerName, cfg.ReclaimInterval, cfg.ReclaimMinIdle, cfg.ReclaimBatch)
		tasks = append(tasks, consumer, reclaimer)
	}

	supervisor := usecase.NewSupervisor(tasks, log, m, cfg.RestartBackoff)
	supervisor.Start(ctx)

	// --- Ops Server ---
	opsUseCase := usecase.NewStreamOpsUseCase(streamRepo)
	opsServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: api.NewOpsRouter(opsUseCase, hub, log),
	}

	go func() {
		log.Info("starting ops server", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops server failed", "error", err)
			stop()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping worker...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown failed", "error", err)
	}

	// Consumers finish the batch in flight before returning.
	supervisor.Wait()
	log.Info("worker shut down gracefully")
}
