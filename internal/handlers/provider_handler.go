package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httpresp"
	"github.com/BruksfildServices01/calendrier-rdv/internal/middleware"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type ProviderHandler struct {
	repo  catalog.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewProviderHandler(repo catalog.Repository, audit *audit.Dispatcher, log *zap.Logger) *ProviderHandler {
	return &ProviderHandler{repo: repo, audit: audit, log: log}
}

// --------- Requests ---------

type CreateProviderRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	ServiceIDs []uint `json:"service_ids"`
}

type UpdateProviderRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type SetProviderServicesRequest struct {
	ServiceIDs []uint `json:"service_ids" binding:"required"`
}

func (h *ProviderHandler) record(c *gin.Context, action string, id uint, meta map[string]any) {
	h.audit.Dispatch(audit.Event{
		UserID:   middleware.UserID(c),
		Action:   action,
		Entity:   "provider",
		EntityID: &id,
		Metadata: meta,
	})
}

// --------- Handlers ---------

func (h *ProviderHandler) List(c *gin.Context) {
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}

	providers, err := h.repo.ListProviders(c.Request.Context(), catalog.ProviderFilter{
		Active:    boolQuery(c, "active"),
		ServiceID: serviceID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	httpresp.List(c, providers)
}

func (h *ProviderHandler) Create(c *gin.Context) {
	var req CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()

	p := models.Provider{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  strings.TrimSpace(req.Phone),
		Active: true,
	}
	if err := h.repo.CreateProvider(ctx, &p); err != nil {
		respondError(c, h.log, err)
		return
	}

	created := &p
	if len(req.ServiceIDs) > 0 {
		var err error
		if created, err = h.repo.SetProviderServices(ctx, p.ID, req.ServiceIDs); err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	h.record(c, "provider_created", p.ID, nil)
	c.JSON(http.StatusCreated, created)
}

func (h *ProviderHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.repo.GetProvider(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.repo.UpdateProvider(c.Request.Context(), p); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "provider_updated", p.ID, nil)
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) SetServices(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetProviderServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.repo.SetProviderServices(c.Request.Context(), id, req.ServiceIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "provider_services_set", id, map[string]any{"service_ids": req.ServiceIDs})
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.repo.DeleteProvider(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "provider_deleted", id, map[string]any{"deactivated": deactivated})
	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"deactivated": deactivated,
	})
}
