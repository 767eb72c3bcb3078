package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/middleware"
	"github.com/BruksfildServices01/calendrier-rdv/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	repo domain.Repository
	uc   BookingUseCases
	log  *zap.Logger
}

func NewAppointmentHandler(repo domain.Repository, uc BookingUseCases, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, uc: uc, log: log}
}

// ======================================================
// REQUESTS
// ======================================================

type RescheduleRequest struct {
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`
	ProviderID *uint  `json:"provider_id"`
}

// ======================================================
// LIST / CALENDAR / GET
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	providerID, ok := uintQuery(c, "provider_id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		date = h.uc.ListByDate.Today()
	}

	list, err := h.uc.ListByDate.Execute(c.Request.Context(), appointment.ListAppointmentsByDateInput{
		Date:       date,
		ProviderID: providerID,
		Status:     domain.Status(c.Query("status")),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         date,
		"appointments": list,
	})
}

func (h *AppointmentHandler) Calendar(c *gin.Context) {
	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		httperr.BadRequest(c, "invalid_period", "year and month are required.")
		return
	}

	providerID, ok := uintQuery(c, "provider_id")
	if !ok {
		return
	}

	days, err := h.uc.Calendar.Execute(c.Request.Context(), appointment.CalendarInput{
		Year:       year,
		Month:      month,
		ProviderID: providerID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.repo.GetAppointment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse(ap))
}

// ======================================================
// CREATE (on behalf of a customer)
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	in := req.input()
	in.ActorID = middleware.UserID(c)

	ap, err := h.uc.Create.Execute(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse(ap))
}

// ======================================================
// STATUS TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.uc.Confirm.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.uc.Cancel.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.uc.Complete.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ap, err := h.uc.Reschedule.Execute(c.Request.Context(), appointment.RescheduleInput{
		ID:         id,
		Date:       req.Date,
		Time:       req.Time,
		ProviderID: req.ProviderID,
		ActorID:    middleware.UserID(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ap)
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
