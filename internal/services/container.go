// internal/services/container.go
// Service container provides dependency injection for all business logic
// services. This pattern makes testing easier and keeps services loosely
// coupled.

package services

import (
	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/config"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/database"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// Container holds all service instances and provides them to handlers
type Container struct {
	Tournament *TournamentService
	Plan       *PlanService
	Inventory  *InventoryService
	Grouping   *GroupingService
	Injection  *InjectionService
	Slot       *SlotService
	Assignment *AssignmentService
	Report     *ReportService
	Version    *VersionService
	Build      *BuildService
	AvoidEdge  *AvoidEdgeService
	Cache      *CacheService
	Audit      *AuditService
}

// NewContainer creates a new service container with all dependencies. hub may
// be nil when live updates are disabled.
func NewContainer(db *database.Connections, cfg *config.Config, hub ScheduleNotifier, logger *logrus.Logger) *Container {
	// Initialize repositories
	repos := repositories.NewContainer(db)

	// Shared infrastructure services
	cache := NewCacheService(db.Redis, logger)
	audit := NewAuditService(db.MongoDB, cfg.Features.EnableAuditLog, logger)

	// Core services with their dependencies
	tournament := NewTournamentService(repos, cache, logger)
	plan := NewPlanService(repos, cache, logger)
	inventory := NewInventoryService(repos, cache, audit, logger)
	grouping := NewGroupingService(repos, audit, logger)
	injection := NewInjectionService(repos, cache, logger)
	slot := NewSlotService(repos, cache, audit, logger)
	assignment := NewAssignmentService(repos, cache, audit, logger)
	report := NewReportService(repos, cache, logger)
	version := NewVersionService(repos, cache, audit, logger)
	build := NewBuildService(repos, grouping, injection, assignment, cache, audit, hub, logger)
	avoidEdge := NewAvoidEdgeService(repos, logger)

	return &Container{
		Tournament: tournament,
		Plan:       plan,
		Inventory:  inventory,
		Grouping:   grouping,
		Injection:  injection,
		Slot:       slot,
		Assignment: assignment,
		Report:     report,
		Version:    version,
		Build:      build,
		AvoidEdge:  avoidEdge,
		Cache:      cache,
		Audit:      audit,
	}
}
