package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationGormRepository) MarkSent(ctx context.Context, id uint, attempts int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.NotificationSent,
			"attempts":   attempts,
			"sent_at":    at,
			"last_error": "",
		}).Error
}

func (r *NotificationGormRepository) MarkRetrying(ctx context.Context, id uint, attempts int, lastErr string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   attempts,
			"last_error": lastErr,
		}).Error
}

func (r *NotificationGormRepository) MarkFailed(ctx context.Context, id uint, f *models.NotificationFailure) error {
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     models.NotificationFailed,
			"last_error": f.Error,
		}
		if f.Attempts > 0 {
			updates["attempts"] = f.Attempts
		}

		if err := tx.Model(&models.Notification{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(f).Error
	})
}

// Compile-time check
var _ notification.Store = (*NotificationGormRepository)(nil)
