package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	"github.com/BruksfildServices01/calendrier-rdv/internal/config"
	dbpkg "github.com/BruksfildServices01/calendrier-rdv/internal/db"
	infraRepo "github.com/BruksfildServices01/calendrier-rdv/internal/infra/repository"
	"github.com/BruksfildServices01/calendrier-rdv/internal/logging"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
	"github.com/BruksfildServices01/calendrier-rdv/internal/routes"
	"github.com/BruksfildServices01/calendrier-rdv/internal/telemetry"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/calendrier-rdv/internal/usecase/appointment"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ======================================================
	// TELEMETRY
	// ======================================================
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampling,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	// ======================================================
	// STORAGE
	// ======================================================
	db, err := dbpkg.NewDB(cfg, logger)
	if err != nil {
		return err
	}

	nonceRedis := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisNonceDB,
	})
	if err := nonceRedis.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	queueRedis := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}

	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	catalogRepo := infraRepo.NewCatalogGormRepository(db)
	notificationRepo := infraRepo.NewNotificationGormRepository(db)

	// ======================================================
	// AUDIT
	// ======================================================
	sinks := []audit.Sink{audit.NewDBSink(db)}

	var kafkaWriter interface{ Close() error }
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		w := audit.NewKafkaWriter(brokers, cfg.KafkaTopic)
		kafkaWriter = w
		sinks = append(sinks, audit.NewKafkaSink(w))
		logger.Info("audit events published to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	auditDispatcher := audit.NewDispatcher(logger, sinks...)

	// ======================================================
	// NOTIFICATIONS
	// ======================================================
	queueClient := asynq.NewClient(queueRedis)
	queue := notification.NewQueue(queueClient, notificationRepo, cfg.NotifyMaxRetry, logger)

	sender := notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	worker := notification.NewWorker(notificationRepo, sender, logger)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	queueServer := notification.NewServer(queueRedis, notification.ServerConfig{
		Concurrency: cfg.NotifyConcurrency,
		RetryBase:   cfg.NotifyRetryBase,
	}, logger)
	if err := queueServer.Start(mux); err != nil {
		logger.Error("notification worker not started", zap.Error(err))
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	routes.RegisterRoutes(r, routes.Deps{
		Config:       cfg,
		Log:          logger,
		DB:           db,
		Appointments: appointmentRepo,
		Catalog:      catalogRepo,
		Nonces:       nonce.NewRedisStore(nonceRedis, cfg.NonceTTL),
		Notifier:     queue,
		Audit:        auditDispatcher,
		Policy: ucAppointment.BookingPolicy{
			Location:         timezone.Location(cfg.Timezone),
			MinAdvance:       time.Duration(cfg.MinAdvanceMinutes) * time.Minute,
			SlotInterval:     time.Duration(cfg.SlotIntervalMinutes) * time.Minute,
			CheckEmailDomain: cfg.ValidateEmailDomain,
			AdminEmail:       cfg.AdminNotifyEmail,
		},
		Ready: map[string]func(context.Context) error{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return nonceRedis.Ping(ctx).Err()
			},
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           telemetry.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	// ======================================================
	// SHUTDOWN
	// ======================================================
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}

	queueServer.Shutdown()
	if err := queueClient.Close(); err != nil {
		logger.Warn("close queue client", zap.Error(err))
	}

	if err := auditDispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("audit queue not drained", zap.Error(err))
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Warn("close kafka writer", zap.Error(err))
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("flush traces", zap.Error(err))
	}

	if err := nonceRedis.Close(); err != nil {
		logger.Warn("close redis", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}

	logger.Info("server stopped gracefully")
	return nil
}
