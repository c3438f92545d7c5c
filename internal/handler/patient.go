package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/service"
)

// PatientHandler implements patient API endpoints
type PatientHandler struct {
	service *service.PatientService
	logger  *zap.Logger
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(service *service.PatientService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{service: service, logger: logger}
}

// Register handles POST /api/v1/patients
func (h *PatientHandler) Register(c *gin.Context) {
	var req service.RegisterPatientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	patient, err := h.service.Register(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// Get handles GET /api/v1/patients/:id
func (h *PatientHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMyRecord handles GET /api/v1/patients/me
func (h *PatientHandler) GetMyRecord(c *gin.Context) {
	view, err := h.service.GetMyRecord(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/v1/patients
func (h *PatientHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Update handles PUT /api/v1/patients/:id
func (h *PatientHandler) Update(c *gin.Context) {
	var req service.UpdatePatientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	patient, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// Delete handles DELETE /api/v1/patients/:id
func (h *PatientHandler) Delete(c *gin.Context) {
	warn, err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondDeleted(c, warn)
}
