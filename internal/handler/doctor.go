package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/service"
)

// DoctorHandler implements doctor API endpoints
type DoctorHandler struct {
	service *service.DoctorService
	logger  *zap.Logger
}

// NewDoctorHandler creates a new DoctorHandler
func NewDoctorHandler(service *service.DoctorService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{service: service, logger: logger}
}

// Register handles POST /api/v1/doctors
func (h *DoctorHandler) Register(c *gin.Context) {
	var req service.RegisterDoctorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	doctor, err := h.service.Register(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

// Get handles GET /api/v1/doctors/:id
func (h *DoctorHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMyProfile handles GET /api/v1/doctors/me
func (h *DoctorHandler) GetMyProfile(c *gin.Context) {
	view, err := h.service.GetMyProfile(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/v1/doctors
func (h *DoctorHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Update handles PUT /api/v1/doctors/:id
func (h *DoctorHandler) Update(c *gin.Context) {
	var req service.UpdateDoctorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	doctor, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

// SetRating handles PUT /api/v1/doctors/:id/rating
func (h *DoctorHandler) SetRating(c *gin.Context) {
	var req struct {
		Rating float64 `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	doctor, err := h.service.SetRating(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

// Delete handles DELETE /api/v1/doctors/:id
func (h *DoctorHandler) Delete(c *gin.Context) {
	warn, err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondDeleted(c, warn)
}
