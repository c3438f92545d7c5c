package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/service"
)

// HospitalHandler implements hospital API endpoints
type HospitalHandler struct {
	service *service.HospitalService
	logger  *zap.Logger
}

// NewHospitalHandler creates a new HospitalHandler
func NewHospitalHandler(service *service.HospitalService, logger *zap.Logger) *HospitalHandler {
	return &HospitalHandler{service: service, logger: logger}
}

// Create handles POST /api/v1/hospitals
func (h *HospitalHandler) Create(c *gin.Context) {
	var req service.CreateHospitalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	hospital, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, hospital)
}

// Get handles GET /api/v1/hospitals/:id
func (h *HospitalHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/v1/hospitals
func (h *HospitalHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Update handles PUT /api/v1/hospitals/:id
func (h *HospitalHandler) Update(c *gin.Context) {
	var req service.UpdateHospitalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	hospital, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

// Delete handles DELETE /api/v1/hospitals/:id
func (h *HospitalHandler) Delete(c *gin.Context) {
	warn, err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondDeleted(c, warn)
}
