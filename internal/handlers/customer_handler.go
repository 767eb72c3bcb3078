package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httpresp"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

// Customers are not stored on their own: they are the distinct contacts
// found on appointments.
type CustomerHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCustomerHandler(db *gorm.DB, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{db: db, log: log}
}

type CustomerDTO struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Appointments int64     `json:"appointments"`
	LastVisit    time.Time `json:"last_visit"`
}

// ======================================================
// LIST CUSTOMERS
// ======================================================
func (h *CustomerHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Appointment{}).
		Select(`customer_email AS email,
			MAX(customer_name) AS name,
			MAX(customer_phone) AS phone,
			COUNT(*) AS appointments,
			MAX(start_time) AS last_visit`).
		Group("customer_email")

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(customer_name) LIKE ? OR customer_phone LIKE ? OR LOWER(customer_email) LIKE ?",
			like, like, like,
		)
	}

	customers := []CustomerDTO{}
	if err := q.
		Order("last_visit DESC").
		Scan(&customers).Error; err != nil {

		respondError(c, h.log, err)
		return
	}

	httpresp.List(c, customers)
}
