package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/service"
	"github.com/caregraph/caregraph/pkg/model"
)

// RecommendationHandler implements facility search API endpoints
type RecommendationHandler struct {
	locator *service.FacilityLocator
	recs    *service.RecommendationService
	logger  *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(locator *service.FacilityLocator, recs *service.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{locator: locator, recs: recs, logger: logger}
}

func parseGeoQuery(c *gin.Context) (model.GeoPoint, float64, bool) {
	lon, err1 := strconv.ParseFloat(c.Query("lon"), 64)
	lat, err2 := strconv.ParseFloat(c.Query("lat"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "lon and lat query parameters are required numbers",
		})
		return model.GeoPoint{}, 0, false
	}
	var radius float64
	if r := c.Query("radius"); r != "" {
		radius, err1 = strconv.ParseFloat(r, 64)
		if err1 != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "radius must be a number of meters",
			})
			return model.GeoPoint{}, 0, false
		}
	}
	return model.GeoPoint{Lon: lon, Lat: lat}, radius, true
}

// Nearby handles GET /api/v1/facilities/nearby?lon=&lat=&radius=&category=...
func (h *RecommendationHandler) Nearby(c *gin.Context) {
	origin, radius, ok := parseGeoQuery(c)
	if !ok {
		return
	}

	var categories []model.DepartmentCategory
	for _, raw := range c.QueryArray("category") {
		cat, ok := model.ParseDepartmentCategory(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "unknown department category: " + raw,
			})
			return
		}
		categories = append(categories, cat)
	}

	facilities, err := h.locator.FindNearby(c.Request.Context(), origin, radius, categories)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, facilities)
}

// Recommend handles GET /api/v1/recommendations?disease=&lon=&lat=&radius=
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	disease := c.Query("disease")
	if disease == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "disease query parameter is required",
		})
		return
	}
	origin, radius, ok := parseGeoQuery(c)
	if !ok {
		return
	}

	rec, err := h.recs.Recommend(c.Request.Context(), disease, origin, radius)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
