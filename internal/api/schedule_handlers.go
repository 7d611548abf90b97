// internal/api/schedule_handlers.go
// Schedule orchestration HTTP handlers: versions, slots, matches, assignment,
// build, grid and conflicts

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/services"
)

// HandleGetPlanReport returns the tournament-wide plan report
func HandleGetPlanReport(planService *services.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := planService.GetPlanReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// HandleCreateDraftVersion opens a new draft schedule version
func HandleCreateDraftVersion(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Notes *string `json:"notes"`
		}
		// Body is optional for draft creation.
		_ = c.ShouldBindJSON(&req)

		version, err := versionService.CreateDraft(c.Request.Context(), c.Param("id"), req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"version": version})
	}
}

// HandleListVersions lists a tournament's schedule versions
func HandleListVersions(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		versions, err := versionService.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"versions": versions})
	}
}

// HandleGetVersion retrieves one schedule version
func HandleGetVersion(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		version, err := versionService.Get(c.Request.Context(), c.Param("id"), c.Param("versionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"version": version})
	}
}

// HandleResetVersion empties a draft version
func HandleResetVersion(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := versionService.Reset(c.Request.Context(), c.Param("id"), c.Param("versionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleFinalizeVersion finalizes a draft version with its checksum
func HandleFinalizeVersion(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		version, err := versionService.Finalize(c.Request.Context(), c.Param("id"), c.Param("versionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"version": version})
	}
}

// HandleCloneVersion deep-copies a finalized version into a new draft
func HandleCloneVersion(versionService *services.VersionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := versionService.CloneToDraft(c.Request.Context(), c.Param("id"), c.Param("versionId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// HandleGenerateSlots (re)builds the slot grid of a draft version
func HandleGenerateSlots(slotService *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ScheduleVersionID string                   `json:"schedule_version_id" binding:"required"`
			Source            services.SlotSource      `json:"source"`
			Manual            []services.ManualDaySpec `json:"manual"`
			WipeExisting      *bool                    `json:"wipe_existing"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		wipe := true
		if req.WipeExisting != nil {
			wipe = *req.WipeExisting
		}

		result, err := slotService.GenerateSlots(c.Request.Context(), c.Param("id"), req.ScheduleVersionID, req.Source, req.Manual, wipe)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleGenerateMatches regenerates match inventories for a draft version
func HandleGenerateMatches(inventoryService *services.InventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ScheduleVersionID string `json:"schedule_version_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		result, err := inventoryService.GenerateForTournament(c.Request.Context(), c.Param("id"), req.ScheduleVersionID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleAutoAssign runs the rest-aware first-fit assignment pass
func HandleAutoAssign(assignmentService *services.AssignmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ClearExisting bool `json:"clear_existing"`
		}
		_ = c.ShouldBindJSON(&req)

		outcome, err := assignmentService.AutoAssign(c.Request.Context(), c.Param("id"), c.Param("versionId"), req.ClearExisting)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

// HandleBuildSchedule runs the full orchestrated pipeline
func HandleBuildSchedule(buildService *services.BuildService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.BuildOptions
		_ = c.ShouldBindJSON(&req)

		result, err := buildService.Build(c.Request.Context(), c.Param("id"), c.Param("versionId"), req)
		if err != nil {
			respondError(c, err)
			return
		}

		status := http.StatusOK
		if result.Status == "error" {
			status = http.StatusInternalServerError
		}
		c.JSON(status, result)
	}
}

// HandleGetGrid returns the day x court x time assignment grid
func HandleGetGrid(reportService *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		versionID := c.Query("schedule_version_id")
		if versionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "schedule_version_id is required"})
			return
		}

		grid, err := reportService.GetGrid(c.Request.Context(), c.Param("id"), versionID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, grid)
	}
}

// HandleGetAuditTrail returns the latest schedule operation events
func HandleGetAuditTrail(auditService *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := auditService.RecentEvents(c.Request.Context(), c.Param("id"), 50)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// HandleGetConflicts returns the diagnostic conflict report
func HandleGetConflicts(reportService *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		versionID := c.Query("schedule_version_id")
		if versionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "schedule_version_id is required"})
			return
		}

		report, err := reportService.GetConflicts(c.Request.Context(), c.Param("id"), versionID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
