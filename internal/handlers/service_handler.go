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

type ServiceHandler struct {
	repo  catalog.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewServiceHandler(repo catalog.Repository, audit *audit.Dispatcher, log *zap.Logger) *ServiceHandler {
	return &ServiceHandler{repo: repo, audit: audit, log: log}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	DurationMin int     `json:"duration_min" binding:"required,min=1"`
	Price       float64 `json:"price" binding:"min=0"`
	Category    string  `json:"category"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	DurationMin *int     `json:"duration_min,omitempty" binding:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	Category    *string  `json:"category,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

func (h *ServiceHandler) record(c *gin.Context, action string, id uint, meta map[string]any) {
	h.audit.Dispatch(audit.Event{
		UserID:   middleware.UserID(c),
		Action:   action,
		Entity:   "service",
		EntityID: &id,
		Metadata: meta,
	})
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.repo.ListServices(c.Request.Context(), catalog.ServiceFilter{
		Category: c.Query("category"),
		Active:   boolQuery(c, "active"),
		Query:    c.Query("query"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	httpresp.List(c, services)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	svc := models.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DurationMin: req.DurationMin,
		Price:       req.Price,
		Active:      true,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
	}

	if err := h.repo.CreateService(c.Request.Context(), &svc); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "service_created", svc.ID, nil)
	c.JSON(http.StatusCreated, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	svc, err := h.repo.GetService(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.DurationMin != nil {
		svc.DurationMin = *req.DurationMin
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.Category != nil {
		svc.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}

	if err := h.repo.UpdateService(c.Request.Context(), svc); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "service_updated", svc.ID, nil)
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.repo.DeleteService(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.record(c, "service_deleted", id, map[string]any{"deactivated": deactivated})
	c.JSON(http.StatusOK, gin.H{
		"id":          id,
		"deactivated": deactivated,
	})
}
