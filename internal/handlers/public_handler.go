package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httpresp"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
	"github.com/BruksfildServices01/calendrier-rdv/internal/usecase/appointment"
)

// BookingUseCases groups the booking operations shared by the public,
// AJAX and admin surfaces.
type BookingUseCases struct {
	Slots        *appointment.GetSlots
	Availability *appointment.CheckAvailability
	Create       *appointment.CreateBooking
	CancelToken  *appointment.CancelByToken

	Confirm    *appointment.ConfirmAppointment
	Cancel     *appointment.CancelAppointment
	Complete   *appointment.CompleteAppointment
	Reschedule *appointment.RescheduleAppointment
	Delete     *appointment.DeleteAppointment
	ListByDate *appointment.ListAppointmentsByDate
	Calendar   *appointment.Calendar
}

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	catalog catalog.Repository
	nonces  nonce.Store
	uc      BookingUseCases
	loc     *time.Location
	log     *zap.Logger
}

func NewPublicHandler(
	repo catalog.Repository,
	nonces nonce.Store,
	uc BookingUseCases,
	loc *time.Location,
	log *zap.Logger,
) *PublicHandler {
	return &PublicHandler{
		catalog: repo,
		nonces:  nonces,
		uc:      uc,
		loc:     loc,
		log:     log,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type CreateBookingRequest struct {
	ServiceID     uint   `json:"service_id" form:"service_id" binding:"required"`
	ProviderID    uint   `json:"provider_id" form:"provider_id" binding:"required"`
	Date          string `json:"date" form:"date"` // YYYY-MM-DD
	Time          string `json:"time" form:"time"` // HH:MM
	CustomerName  string `json:"customer_name" form:"customer_name"`
	CustomerEmail string `json:"customer_email" form:"customer_email"`
	CustomerPhone string `json:"customer_phone" form:"customer_phone"`
	Notes         string `json:"notes" form:"notes"`
}

func (r CreateBookingRequest) input() appointment.CreateBookingInput {
	return appointment.CreateBookingInput{
		ServiceID:     r.ServiceID,
		ProviderID:    r.ProviderID,
		Date:          strings.TrimSpace(r.Date),
		Time:          strings.TrimSpace(r.Time),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		Notes:         r.Notes,
	}
}

func bookingResponse(ap *models.Appointment) gin.H {
	return gin.H{
		"appointment":  ap,
		"cancel_token": ap.CancelToken,
	}
}

////////////////////////////////////////////////////////
// CATALOG
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	active := true
	services, err := h.catalog.ListServices(c.Request.Context(), catalog.ServiceFilter{
		Category: c.Query("category"),
		Query:    c.Query("query"),
		Active:   &active,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	httpresp.List(c, services)
}

func (h *PublicHandler) ListProviders(c *gin.Context) {
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}

	active := true
	providers, err := h.catalog.ListProviders(c.Request.Context(), catalog.ProviderFilter{
		Active:    &active,
		ServiceID: serviceID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	httpresp.List(c, providers)
}

////////////////////////////////////////////////////////
// SLOTS / AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Slots(c *gin.Context) {
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}
	providerID, ok := uintQuery(c, "provider_id")
	if !ok {
		return
	}
	date := c.Query("date")

	if serviceID == 0 || providerID == 0 || date == "" {
		httperr.BadRequest(c, "missing_params", "service_id, provider_id and date are required.")
		return
	}

	slots, err := h.uc.Slots.Execute(c.Request.Context(), appointment.GetSlotsInput{
		ServiceID:  serviceID,
		ProviderID: providerID,
		Date:       date,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
	})
}

// parseInstant accepts RFC3339 or "YYYY-MM-DD HH:MM" in the business location.
func parseInstant(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(timezone.DateTimeLayout, s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (h *PublicHandler) Availability(c *gin.Context) {
	providerID, ok := uintQuery(c, "provider_id")
	if !ok {
		return
	}
	excludeID, ok := uintQuery(c, "exclude_id")
	if !ok {
		return
	}

	start, okS := parseInstant(c.Query("start"), h.loc)
	end, okE := parseInstant(c.Query("end"), h.loc)
	if providerID == 0 || !okS || !okE {
		httperr.BadRequest(c, "missing_params", "provider_id, start and end are required.")
		return
	}

	in := appointment.CheckAvailabilityInput{ProviderID: providerID, Start: start, End: end}
	if excludeID != 0 {
		in.ExcludeID = &excludeID
	}

	available, err := h.uc.Availability.Execute(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

////////////////////////////////////////////////////////
// NONCE
////////////////////////////////////////////////////////

func (h *PublicHandler) IssueNonce(c *gin.Context) {
	action := c.DefaultQuery("action", nonce.ActionBookingCreate)
	if action != nonce.ActionBookingCreate && action != nonce.ActionBookingCancel {
		httperr.BadRequest(c, "invalid_action", "Unknown nonce action.")
		return
	}

	token, err := h.nonces.Issue(c.Request.Context(), action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": action,
		"nonce":  token,
	})
}

////////////////////////////////////////////////////////
// BOOKINGS
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ap, err := h.uc.Create.Execute(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse(ap))
}

func (h *PublicHandler) CancelBooking(c *gin.Context) {
	ap, err := h.uc.CancelToken.Execute(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     ap.ID,
		"status": ap.Status,
	})
}
