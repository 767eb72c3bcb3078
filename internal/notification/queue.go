package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

const TypeSend = "notification:send"

type Payload struct {
	NotificationID uint    `json:"notification_id"`
	Message        Message `json:"message"`
}

// TaskEnqueuer is the part of *asynq.Client the queue needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue records each message as a queued notification and hands it to the
// asynq worker pool.
type Queue struct {
	client   TaskEnqueuer
	store    Store
	maxRetry int
	log      *zap.Logger
}

func NewQueue(client TaskEnqueuer, store Store, maxRetry int, log *zap.Logger) *Queue {
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &Queue{
		client:   client,
		store:    store,
		maxRetry: maxRetry,
		log:      log,
	}
}

func NewTask(p Payload, maxRetry int) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSend, b, asynq.MaxRetry(maxRetry)), nil
}

func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	if !Known(msg.Template) {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}

	n := &models.Notification{
		AppointmentID: msg.AppointmentID,
		Template:      msg.Template,
		Recipient:     msg.Recipient,
		Status:        models.NotificationQueued,
	}
	if err := q.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	task, err := NewTask(Payload{NotificationID: n.ID, Message: msg}, q.maxRetry)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		if markErr := q.store.MarkFailed(ctx, n.ID, &models.NotificationFailure{
			NotificationID: n.ID,
			Template:       n.Template,
			Recipient:      n.Recipient,
			Error:          "enqueue: " + err.Error(),
		}); markErr != nil {
			q.log.Error("mark notification failed", zap.Uint("notification_id", n.ID), zap.Error(markErr))
		}
		return fmt.Errorf("enqueue notification: %w", err)
	}

	q.log.Debug("notification queued",
		zap.Uint("notification_id", n.ID),
		zap.String("template", msg.Template),
		zap.String("task_id", info.ID),
	)
	return nil
}
