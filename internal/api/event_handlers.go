// internal/api/event_handlers.go
// Event-scoped schedule operations: avoid edges, waterfall grouping, injection

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/services"
)

// HandleBulkAvoidEdges registers avoid edges from pairs or link groups.
// ?dry_run=true enumerates the canonical pairs without writing.
func HandleBulkAvoidEdges(avoidEdgeService *services.AvoidEdgeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.BulkEdgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}
		if len(req.Pairs) == 0 && len(req.LinkGroups) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Provide pairs or link_groups"})
			return
		}

		dryRun := c.Query("dry_run") == "true"
		result, err := avoidEdgeService.BulkAdd(c.Request.Context(), c.Param("eventId"), req, dryRun)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleAssignWaterfallGroups runs the conflict-minimizing grouping engine
func HandleAssignWaterfallGroups(groupingService *services.GroupingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := groupingService.AssignGroups(c.Request.Context(), c.Param("eventId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleInjectTeams resolves team ids onto an event's matches
func HandleInjectTeams(injectionService *services.InjectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ScheduleVersionID string   `json:"schedule_version_id" binding:"required"`
			TeamOrderOverride []string `json:"team_order_override"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		plan, err := injectionService.Inject(c.Request.Context(), c.Param("eventId"), req.ScheduleVersionID, req.TeamOrderOverride)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

// HandleValidateEventPlan validates an event's draw plan
func HandleValidateEventPlan(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		validation, err := planService.ValidateEvent(c.Request.Context(), c.Param("eventId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, validation)
	}
}
