package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/service"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// respondError maps the service error taxonomy to HTTP status codes.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		ce *service.ConflictError
		ae *service.AuthorizationError
		ue *service.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_ERROR", Message: ve.Msg})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: nf.Error()})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, ErrorResponse{Code: "CONFLICT", Message: ce.Msg})
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, ErrorResponse{Code: "FORBIDDEN", Message: ae.Msg})
	case errors.As(err, &ue):
		c.JSON(http.StatusBadGateway, ErrorResponse{Code: "UPSTREAM_ERROR", Message: ue.Error()})
	case errors.Is(err, service.ErrCascadeDeadline):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "CASCADE_TIMEOUT", Message: err.Error()})
	case errors.Is(err, service.ErrNoFacilityInRange):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NO_FACILITY_IN_RANGE", Message: err.Error()})
	default:
		logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		})
	}
}

// deleteResponse reports a successful delete, carrying cascade warnings for
// delete-side steps whose target was already gone.
type deleteResponse struct {
	Deleted  bool     `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

func respondDeleted(c *gin.Context, warn *service.PartialCascadeError) {
	resp := deleteResponse{Deleted: true}
	if warn != nil {
		for _, f := range warn.Failures {
			resp.Warnings = append(resp.Warnings, f.String())
		}
	}
	c.JSON(http.StatusOK, resp)
}
