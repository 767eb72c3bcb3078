package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	"github.com/BruksfildServices01/calendrier-rdv/internal/config"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/handlers"
	"github.com/BruksfildServices01/calendrier-rdv/internal/middleware"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
	ucAppointment "github.com/BruksfildServices01/calendrier-rdv/internal/usecase/appointment"
)

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger

	// DB backs the plain CRUD screens (users, customers, notifications,
	// audit logs). Booking goes through the repositories only.
	DB *gorm.DB

	Appointments domain.Repository
	Catalog      catalog.Repository
	Nonces       nonce.Store
	Notifier     ucAppointment.Notifier
	Audit        *audit.Dispatcher
	Policy       ucAppointment.BookingPolicy

	// Ready checks dependencies for GET /ready, keyed by name.
	Ready map[string]func(ctx context.Context) error
}

func NewBookingUseCases(d Deps) handlers.BookingUseCases {
	repo := d.Appointments

	return handlers.BookingUseCases{
		Slots:        ucAppointment.NewGetSlots(repo, d.Policy),
		Availability: ucAppointment.NewCheckAvailability(repo),
		Create:       ucAppointment.NewCreateBooking(repo, d.Notifier, d.Audit, d.Policy, d.Log),
		CancelToken:  ucAppointment.NewCancelByToken(repo, d.Notifier, d.Audit, d.Policy, d.Log),

		Confirm:    ucAppointment.NewConfirmAppointment(repo, d.Notifier, d.Audit, d.Policy, d.Log),
		Cancel:     ucAppointment.NewCancelAppointment(repo, d.Notifier, d.Audit, d.Policy, d.Log),
		Complete:   ucAppointment.NewCompleteAppointment(repo, d.Audit, d.Policy, d.Log),
		Reschedule: ucAppointment.NewRescheduleAppointment(repo, d.Audit, d.Policy, d.Log),
		Delete:     ucAppointment.NewDeleteAppointment(repo, d.Audit),
		ListByDate: ucAppointment.NewListAppointmentsByDate(repo, d.Policy),
		Calendar:   ucAppointment.NewCalendar(repo, d.Policy),
	}
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	log := d.Log

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.CORSMiddleware(cfg.AllowedOrigins()),
	)

	// ======================================================
	// USE CASES
	// ======================================================
	uc := NewBookingUseCases(d)

	// ======================================================
	// HANDLERS
	// ======================================================
	publicHandler := handlers.NewPublicHandler(d.Catalog, d.Nonces, uc, d.Policy.Location, log)
	ajaxHandler := handlers.NewAjaxHandler(publicHandler)

	authHandler := handlers.NewAuthHandler(d.DB, cfg.JWTSecret, d.Audit, log)
	meHandler := handlers.NewMeHandler(d.DB, log)

	serviceHandler := handlers.NewServiceHandler(d.Catalog, d.Audit, log)
	providerHandler := handlers.NewProviderHandler(d.Catalog, d.Audit, log)
	hoursHandler := handlers.NewBusinessHoursHandler(d.Catalog, d.Audit, log)
	appointmentHandler := handlers.NewAppointmentHandler(d.Appointments, uc, log)

	customerHandler := handlers.NewCustomerHandler(d.DB, log)
	notificationHandler := handlers.NewNotificationHandler(d.DB, log)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB, log)

	// ======================================================
	// HEALTH
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		checks := gin.H{}
		status := http.StatusOK
		for name, check := range d.Ready {
			if err := check(c.Request.Context()); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		c.JSON(status, gin.H{"checks": checks})
	})

	limiter := middleware.RateLimitMiddleware(cfg.RateLimitPerMin, log)

	// ======================================================
	// LEGACY AJAX
	// ======================================================
	r.POST("/ajax", limiter, ajaxHandler.Dispatch)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		public := api.Group("/public")
		public.Use(limiter)
		{
			public.GET("/services", publicHandler.ListServices)
			public.GET("/providers", publicHandler.ListProviders)
			public.GET("/slots", publicHandler.Slots)
			public.GET("/availability", publicHandler.Availability)
			public.GET("/nonce", publicHandler.IssueNonce)

			public.POST("/bookings",
				middleware.RequireNonce(d.Nonces, nonce.ActionBookingCreate, log),
				publicHandler.CreateBooking,
			)
			public.POST("/bookings/:token/cancel",
				middleware.RequireNonce(d.Nonces, nonce.ActionBookingCancel, log),
				publicHandler.CancelBooking,
			)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/login", limiter, authHandler.Login)

		// ------------------------------
		// ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			// read access for every authenticated role
			admin.GET("/me", meHandler.GetMe)
			admin.GET("/services", serviceHandler.List)
			admin.GET("/providers", providerHandler.List)
			admin.GET("/business-hours", hoursHandler.Get)
			admin.GET("/appointments", appointmentHandler.ListByDate)
			admin.GET("/appointments/calendar", appointmentHandler.Calendar)
			admin.GET("/appointments/:id", appointmentHandler.Get)
			admin.GET("/customers", customerHandler.List)
			admin.GET("/notifications", notificationHandler.List)
			admin.GET("/notifications/failures", notificationHandler.Failures)
			admin.GET("/audit-logs", auditLogsHandler.List)

			manage := admin.Group("")
			manage.Use(middleware.RequireAdmin())
			{
				manage.POST("/users", authHandler.CreateUser)

				manage.POST("/services", serviceHandler.Create)
				manage.PATCH("/services/:id", serviceHandler.Update)
				manage.DELETE("/services/:id", serviceHandler.Delete)

				manage.POST("/providers", providerHandler.Create)
				manage.PATCH("/providers/:id", providerHandler.Update)
				manage.DELETE("/providers/:id", providerHandler.Delete)
				manage.PUT("/providers/:id/services", providerHandler.SetServices)

				manage.PUT("/business-hours", hoursHandler.Update)

				manage.POST("/appointments", appointmentHandler.Create)
				manage.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
				manage.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
				manage.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
				manage.PATCH("/appointments/:id/reschedule", appointmentHandler.Reschedule)
				manage.DELETE("/appointments/:id", appointmentHandler.Delete)
			}
		}
	}
}
