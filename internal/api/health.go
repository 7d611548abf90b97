// internal/api/health.go
// Health check endpoint for monitoring

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/config"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/database"
)

// HealthCheck returns a health check handler
func HealthCheck(cfg *config.Config, db *database.Connections) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		if err := db.HealthCheck(ctx); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":      status,
			"environment": cfg.Environment,
			"services": gin.H{
				"api":       "operational",
				"websocket": cfg.Features.EnableWebSocket,
				"audit_log": cfg.Features.EnableAuditLog,
			},
		})
	}
}
