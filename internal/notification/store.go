package notification

import (
	"context"
	"time"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

// Store persists the delivery state of every queued message.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id uint, attempts int, at time.Time) error
	MarkRetrying(ctx context.Context, id uint, attempts int, lastErr string) error

	// MarkFailed flags the notification as failed and records f in the
	// failure log, atomically.
	MarkFailed(ctx context.Context, id uint, f *models.NotificationFailure) error
}
