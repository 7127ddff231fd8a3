package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

var startTime = time.Now()

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	redis    Pinger
	registry *listview.Registry
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(redis Pinger, registry *listview.Registry) *HealthHandler {
	return &HealthHandler{redis: redis, registry: registry}
}

// GetHealth responds with service and session store status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	redisStatus := "connected"
	if err := h.redis.Ping(ctx); err != nil {
		status = "degraded"
		redisStatus = "disconnected"
	}

	utils.Success(c, http.StatusOK, "Service is "+status, gin.H{
		"status":  status,
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"redis": gin.H{
			"status": redisStatus,
		},
		"liveViews": h.registry.Len(),
	})
}
