// internal/api/routes.go
// Central route registration for all API endpoints

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/config"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/middleware"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/services"
)

// RegisterTournamentRoutes registers tournament setup and schedule routes
func RegisterTournamentRoutes(router *gin.RouterGroup, services *services.Container, cfg *config.Config) {
	tournaments := router.Group("/tournaments")
	{
		// Public reads
		tournaments.GET("", HandleListTournaments(services.Tournament))
		tournaments.GET("/:id", HandleGetTournament(services.Tournament))
		tournaments.GET("/:id/events", HandleListEvents(services.Tournament))
		tournaments.GET("/:id/schedule/plan-report", HandleGetPlanReport(services.Plan))
		tournaments.GET("/:id/schedule/versions", HandleListVersions(services.Version))
		tournaments.GET("/:id/schedule/versions/:versionId", HandleGetVersion(services.Version))
		tournaments.GET("/:id/schedule/grid", HandleGetGrid(services.Report))
		tournaments.GET("/:id/schedule/conflicts", HandleGetConflicts(services.Report))
		tournaments.GET("/:id/schedule/audit", HandleGetAuditTrail(services.Audit))

		// Protected mutations
		tournaments.Use(middleware.RequireAuth(cfg.Auth))
		tournaments.POST("", HandleCreateTournament(services.Tournament))
		tournaments.POST("/:id/events", HandleCreateEvent(services.Tournament))
		tournaments.POST("/:id/schedule/versions", HandleCreateDraftVersion(services.Version))
		tournaments.POST("/:id/schedule/versions/:versionId/reset", HandleResetVersion(services.Version))
		tournaments.POST("/:id/schedule/versions/:versionId/finalize", HandleFinalizeVersion(services.Version))
		tournaments.POST("/:id/schedule/versions/:versionId/clone-to-draft", HandleCloneVersion(services.Version))
		tournaments.POST("/:id/schedule/slots/generate", HandleGenerateSlots(services.Slot))
		tournaments.POST("/:id/schedule/matches/generate", HandleGenerateMatches(services.Inventory))
		tournaments.POST("/:id/schedule/versions/:versionId/auto-assign-rest", HandleAutoAssign(services.Assignment))
		tournaments.POST("/:id/schedule/versions/:versionId/build", HandleBuildSchedule(services.Build))
	}
}

// RegisterEventRoutes registers event-scoped schedule routes
func RegisterEventRoutes(router *gin.RouterGroup, services *services.Container, cfg *config.Config) {
	events := router.Group("/events")
	{
		events.GET("/:eventId", HandleGetEvent(services.Tournament))
		events.GET("/:eventId/teams", HandleListTeams(services.Tournament))
		events.GET("/:eventId/plan/validate", HandleValidateEventPlan(services.Plan))

		events.Use(middleware.RequireAuth(cfg.Auth))
		events.POST("/:eventId/teams", HandleRegisterTeams(services.Tournament))
		events.POST("/:eventId/avoid-edges/bulk", HandleBulkAvoidEdges(services.AvoidEdge))
		events.POST("/:eventId/waterfall/assign-groups", HandleAssignWaterfallGroups(services.Grouping))
		events.POST("/:eventId/teams/inject", HandleInjectTeams(services.Injection))
	}
}
