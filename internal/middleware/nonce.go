package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
)

const NonceHeader = "X-RDV-Nonce"

// RequireNonce consumes the single-use token sent in X-RDV-Nonce for action.
func RequireNonce(store nonce.Store, action string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := store.Consume(c.Request.Context(), action, c.GetHeader(NonceHeader))
		if err == nil {
			c.Next()
			return
		}

		if errors.Is(err, nonce.ErrInvalidNonce) {
			httperr.Abort(c, http.StatusUnauthorized, "invalid_nonce", "Your session expired, please reload the page.")
			return
		}

		log.Error("nonce store unavailable", zap.String("action", action), zap.Error(err))
		httperr.Abort(c, http.StatusInternalServerError, "internal_error", "Unexpected error.")
	}
}
