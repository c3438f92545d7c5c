package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/service"
)

// AppointmentHandler implements appointment API endpoints
type AppointmentHandler struct {
	service *service.AppointmentService
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(service *service.AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, logger: logger}
}

// Create handles POST /api/v1/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req service.CreateAppointmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	appt, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// Get handles GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	appt, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// UpdateStatus handles PUT /api/v1/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	appt, err := h.service.UpdateStatus(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// Delete handles DELETE /api/v1/appointments/:id
func (h *AppointmentHandler) Delete(c *gin.Context) {
	warn, err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondDeleted(c, warn)
}

// ListAll handles GET /api/v1/appointments
func (h *AppointmentHandler) ListAll(c *gin.Context) {
	appts, err := h.service.ListAll(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

// ListMine handles GET /api/v1/appointments/me
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	appts, err := h.service.ListMine(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}
