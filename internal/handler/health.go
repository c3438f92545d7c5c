package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// HealthHandler implements the liveness endpoint
type HealthHandler struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. pool may be nil when the
// service runs on the in-memory store.
func NewHealthHandler(pool *pgxpool.Pool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{pool: pool, logger: logger}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	if h.pool != nil {
		if err := h.pool.Ping(c.Request.Context()); err != nil {
			h.logger.Error("database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
