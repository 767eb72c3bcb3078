package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/middleware"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

// businessStatus maps domain codes to HTTP statuses. Unknown codes are 400.
var businessStatus = map[string]int{
	"time_conflict":      http.StatusConflict,
	"invalid_transition": http.StatusConflict,
	"email_taken":        http.StatusConflict,
}

var businessMessage = map[string]string{
	"time_conflict":         "This time slot is no longer available.",
	"invalid_transition":    "This appointment cannot change to the requested status.",
	"invalid_interval":      "The end time must be after the start time.",
	"invalid_date_or_time":  "Invalid date or time.",
	"invalid_status":        "Unknown appointment status.",
	"too_soon":              "This time is too close to now, please pick a later slot.",
	"provider_inactive":     "This provider is not taking bookings.",
	"service_inactive":      "This service is not available.",
	"service_not_offered":   "This provider does not offer the selected service.",
	"appointment_not_found": "Appointment not found.",
	"service_not_found":     "Service not found.",
	"provider_not_found":    "Provider not found.",
	"email_taken":           "This email is already used.",
}

func statusForCode(code string) int {
	if s, ok := businessStatus[code]; ok {
		return s
	}
	if strings.HasSuffix(code, "_not_found") {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// respondError writes err with the status its kind calls for. Anything that
// is not a validation or business error is logged and hidden behind a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *validators.ValidationError
	if errors.As(err, &verr) {
		httperr.Validation(c, verr.Fields)
		return
	}

	if code, ok := httperr.CodeOf(err); ok {
		msg := businessMessage[code]
		if msg == "" {
			msg = code
		}
		httperr.Write(c, statusForCode(code), code, msg)
		return
	}

	middleware.Logger(c, log).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	httperr.Internal(c, "internal_error", "Unexpected error.")
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.HTTPError{
		Code:    "invalid_request",
		Message: err.Error(),
	})
}
