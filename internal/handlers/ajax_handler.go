package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
	"github.com/BruksfildServices01/calendrier-rdv/internal/usecase/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

const (
	AjaxGetSlots          = "rdv_get_slots"
	AjaxCheckAvailability = "rdv_check_availability"
	AjaxSubmitBooking     = "rdv_submit_booking"
)

// AjaxHandler serves the legacy form endpoint: one POST, dispatched on the
// "action" field, answering {"success": bool, "data": ...}.
type AjaxHandler struct {
	public *PublicHandler
}

func NewAjaxHandler(public *PublicHandler) *AjaxHandler {
	return &AjaxHandler{public: public}
}

func ajaxOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func ajaxFail(c *gin.Context, status int, code, message string, fields map[string][]string) {
	data := gin.H{"error_code": code, "message": message}
	if len(fields) > 0 {
		data["fields"] = fields
	}
	c.JSON(status, gin.H{"success": false, "data": data})
}

func (h *AjaxHandler) ajaxError(c *gin.Context, err error) {
	var verr *validators.ValidationError
	if errors.As(err, &verr) {
		ajaxFail(c, http.StatusBadRequest, "validation_failed", "Some fields are invalid.", verr.Fields)
		return
	}
	if code, ok := httperr.CodeOf(err); ok {
		ajaxFail(c, statusForCode(code), code, businessMessage[code], nil)
		return
	}

	h.public.log.Error("ajax request failed", zap.Error(err))
	ajaxFail(c, http.StatusInternalServerError, "internal_error", "Unexpected error.", nil)
}

func formUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.PostForm(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func (h *AjaxHandler) Dispatch(c *gin.Context) {
	action := c.PostForm("action")
	token := c.PostForm("_nonce")
	ctx := c.Request.Context()

	switch action {
	case AjaxGetSlots, AjaxCheckAvailability, AjaxSubmitBooking:
	default:
		ajaxFail(c, http.StatusBadRequest, "unknown_action", "Unknown action.", nil)
		return
	}

	// Read actions only check the form nonce; submitting spends it.
	var err error
	if action == AjaxSubmitBooking {
		err = h.public.nonces.Consume(ctx, nonce.ActionBookingCreate, token)
	} else {
		err = h.public.nonces.Verify(ctx, nonce.ActionBookingCreate, token)
	}
	if err != nil {
		if errors.Is(err, nonce.ErrInvalidNonce) {
			ajaxFail(c, http.StatusUnauthorized, "invalid_nonce", "Your session expired, please reload the page.", nil)
			return
		}
		h.ajaxError(c, err)
		return
	}

	switch action {
	case AjaxGetSlots:
		slots, err := h.public.uc.Slots.Execute(ctx, appointment.GetSlotsInput{
			ServiceID:  formUint(c, "service_id"),
			ProviderID: formUint(c, "provider_id"),
			Date:       c.PostForm("date"),
		})
		if err != nil {
			h.ajaxError(c, err)
			return
		}
		ajaxOK(c, gin.H{"slots": slots})

	case AjaxCheckAvailability:
		start, okS := parseInstant(c.PostForm("start"), h.public.loc)
		end, okE := parseInstant(c.PostForm("end"), h.public.loc)
		if !okS || !okE {
			ajaxFail(c, http.StatusBadRequest, "invalid_date_or_time", businessMessage["invalid_date_or_time"], nil)
			return
		}

		in := appointment.CheckAvailabilityInput{
			ProviderID: formUint(c, "provider_id"),
			Start:      start,
			End:        end,
		}
		if id := formUint(c, "exclude_id"); id != 0 {
			in.ExcludeID = &id
		}

		available, err := h.public.uc.Availability.Execute(ctx, in)
		if err != nil {
			h.ajaxError(c, err)
			return
		}
		ajaxOK(c, gin.H{"available": available})

	case AjaxSubmitBooking:
		var req CreateBookingRequest
		if err := c.ShouldBind(&req); err != nil {
			ajaxFail(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}

		ap, err := h.public.uc.Create.Execute(ctx, req.input())
		if err != nil {
			h.ajaxError(c, err)
			return
		}
		ajaxOK(c, bookingResponse(ap))
	}
}
