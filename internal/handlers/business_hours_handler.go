package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/middleware"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type BusinessHoursHandler struct {
	repo  catalog.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewBusinessHoursHandler(repo catalog.Repository, audit *audit.Dispatcher, log *zap.Logger) *BusinessHoursHandler {
	return &BusinessHoursHandler{repo: repo, audit: audit, log: log}
}

type BusinessDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	OpenTime   string `json:"open_time"`
	CloseTime  string `json:"close_time"`
	BreakStart string `json:"break_start"`
	BreakEnd   string `json:"break_end"`
}

type BusinessHoursUpdateRequest struct {
	Days []BusinessDayConfig `json:"days" binding:"required,dive"`
}

func (h *BusinessHoursHandler) Get(c *gin.Context) {
	hours, err := h.repo.ListBusinessHours(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *BusinessHoursHandler) Update(c *gin.Context) {
	var req BusinessHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if len(req.Days) == 0 {
		httperr.BadRequest(c, "invalid_request", "At least one day is required.")
		return
	}

	hours := make([]models.BusinessHours, 0, len(req.Days))
	for _, d := range req.Days {
		hours = append(hours, models.BusinessHours{
			Weekday:    d.Weekday,
			Active:     d.Active,
			OpenTime:   strings.TrimSpace(d.OpenTime),
			CloseTime:  strings.TrimSpace(d.CloseTime),
			BreakStart: strings.TrimSpace(d.BreakStart),
			BreakEnd:   strings.TrimSpace(d.BreakEnd),
		})
	}

	if fields := catalog.ValidateHours(hours); !fields.Valid() {
		httperr.Validation(c, fields)
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.ReplaceBusinessHours(ctx, hours); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID: middleware.UserID(c),
		Action: "business_hours_updated",
		Entity: "business_hours",
	})

	saved, err := h.repo.ListBusinessHours(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
