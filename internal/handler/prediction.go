package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/service"
)

// PredictionHandler implements symptom-analysis API endpoints
type PredictionHandler struct {
	service *service.PredictionService
	logger  *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(service *service.PredictionService, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{service: service, logger: logger}
}

// Predict handles POST /api/v1/predictions
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), middleware.ActorFromContext(c), req.Symptoms)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Get handles GET /api/v1/predictions/:id
func (h *PredictionHandler) Get(c *gin.Context) {
	pred, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

// ListMine handles GET /api/v1/predictions/me
func (h *PredictionHandler) ListMine(c *gin.Context) {
	preds, err := h.service.ListMine(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preds)
}

// ListAll handles GET /api/v1/predictions
func (h *PredictionHandler) ListAll(c *gin.Context) {
	preds, err := h.service.ListAll(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preds)
}

// Delete handles DELETE /api/v1/predictions/:id
func (h *PredictionHandler) Delete(c *gin.Context) {
	warn, err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondDeleted(c, warn)
}
