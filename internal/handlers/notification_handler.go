package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httpresp"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type NotificationHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewNotificationHandler(db *gorm.DB, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{db: db, log: log}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, limit, offset := pageParams(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Notification{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if template := c.Query("template"); template != "" {
		q = q.Where("template = ?", template)
	}
	if apID := c.Query("appointment_id"); apID != "" {
		q = q.Where("appointment_id = ?", apID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	var items []models.Notification
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {

		respondError(c, h.log, err)
		return
	}

	httpresp.Page(c, items, total, page, limit)
}

func (h *NotificationHandler) Failures(c *gin.Context) {
	page, limit, offset := pageParams(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.NotificationFailure{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	var items []models.NotificationFailure
	if err := q.
		Order("failed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {

		respondError(c, h.log, err)
		return
	}

	httpresp.Page(c, items, total, page, limit)
}
