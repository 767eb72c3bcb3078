package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type Worker struct {
	store  Store
	sender Sender
	log    *zap.Logger
	now    func() time.Time
}

func NewWorker(store Store, sender Sender, log *zap.Logger) *Worker {
	return &Worker{
		store:  store,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSend, w.ProcessTask)
}

func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error("invalid notification payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	return w.handle(ctx, p, retried, maxRetry)
}

// handle runs one delivery attempt. retried is the number of earlier
// attempts; once it reaches maxRetry the failure is terminal.
func (w *Worker) handle(ctx context.Context, p Payload, retried, maxRetry int) error {
	attempts := retried + 1
	logger := w.log.With(
		zap.Uint("notification_id", p.NotificationID),
		zap.String("template", p.Message.Template),
		zap.Int("attempt", attempts),
	)

	sendErr := w.sender.Send(ctx, p.Message)
	if sendErr == nil {
		if err := w.store.MarkSent(ctx, p.NotificationID, attempts, w.now()); err != nil {
			logger.Error("mark notification sent", zap.Error(err))
		}
		logger.Info("notification sent")
		return nil
	}

	if retried >= maxRetry {
		if err := w.store.MarkFailed(ctx, p.NotificationID, &models.NotificationFailure{
			NotificationID: p.NotificationID,
			Template:       p.Message.Template,
			Recipient:      p.Message.Recipient,
			Attempts:       attempts,
			Error:          sendErr.Error(),
			FailedAt:       w.now(),
		}); err != nil {
			logger.Error("record notification failure", zap.Error(err))
		}
		logger.Error("notification failed permanently", zap.Error(sendErr))
		return fmt.Errorf("%v: %w", sendErr, asynq.SkipRetry)
	}

	if err := w.store.MarkRetrying(ctx, p.NotificationID, attempts, sendErr.Error()); err != nil {
		logger.Error("mark notification retrying", zap.Error(err))
	}
	logger.Warn("notification send failed, will retry", zap.Error(sendErr))
	return sendErr
}

// RetryDelay doubles the wait after every failed attempt: base, 2*base, 4*base...
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		if n < 0 {
			n = 0
		}
		if n > 16 {
			n = 16
		}
		return base * time.Duration(1<<uint(n))
	}
}

type ServerConfig struct {
	Concurrency int
	RetryBase   time.Duration
}

func NewServer(redis asynq.RedisConnOpt, cfg ServerConfig, log *zap.Logger) *asynq.Server {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Minute
	}

	return asynq.NewServer(redis, asynq.Config{
		Concurrency:    cfg.Concurrency,
		RetryDelayFunc: RetryDelay(cfg.RetryBase),
		Logger:         log.Sugar(),
		Queues: map[string]int{
			"default": 1,
		},
	})
}
