// internal/services/build_service.go
// One-click build orchestrator: sequences grouping, injection and assignment
// atomically over a draft version with rollback on any step failure.

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// Build step names surfaced on failure.
const (
	StepValidate           = "VALIDATE"
	StepClearAssignments   = "CLEAR_ASSIGNMENTS"
	StepCheckSlots         = "CHECK_SLOTS"
	StepCheckMatches       = "CHECK_MATCHES"
	StepWaterfallGrouping  = "WATERFALL_GROUPING"
	StepTeamInjection      = "TEAM_INJECTION"
	StepRestAwareAssignment = "REST_AWARE_ASSIGNMENT"
	StepComposeResponse    = "COMPOSE_RESPONSE"
)

// BuildOptions controls one orchestrated build.
type BuildOptions struct {
	ClearExisting bool `json:"clear_existing"`
	DryRun        bool `json:"dry_run"`
}

// BuildSummary is the headline block of a build response.
type BuildSummary struct {
	SlotCount       int `json:"slot_count"`
	MatchCount      int `json:"match_count"`
	AssignedCount   int `json:"assigned_count"`
	UnassignedCount int `json:"unassigned_count"`
	GroupedEvents   int `json:"grouped_events"`
	InjectedEvents  int `json:"injected_events"`
}

// BuildResult is the composite response of the orchestrator.
type BuildResult struct {
	Status         string                `json:"status"`
	FailedStep     string                `json:"failed_step,omitempty"`
	ErrorMessage   string                `json:"error_message,omitempty"`
	DryRun         bool                  `json:"dry_run"`
	Summary        BuildSummary          `json:"summary"`
	Warnings       []string              `json:"warnings"`
	Assignment     *AssignmentOutcome    `json:"assignment,omitempty"`
	Grid           *Grid                 `json:"grid,omitempty"`
	Conflicts      *ConflictReport       `json:"conflicts,omitempty"`
	WFConflictLens []EventConflictLens   `json:"wf_conflict_lens"`
}

// stepError tags an error with the step it failed in.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return fmt.Sprintf("%s: %v", e.step, e.err) }
func (e *stepError) Unwrap() error { return e.err }

func failStep(step string, err error) error {
	return &stepError{step: step, err: err}
}

// BuildService sequences the full pipeline.
type BuildService struct {
	repos      *repositories.Container
	grouping   *GroupingService
	injection  *InjectionService
	assignment *AssignmentService
	cache      *CacheService
	audit      *AuditService
	hub        ScheduleNotifier
	logger     *logrus.Logger
}

// ScheduleNotifier receives schedule change events for live listeners.
type ScheduleNotifier interface {
	NotifyScheduleEvent(eventType, tournamentID, versionID string, payload interface{})
}

// NewBuildService creates a new build service
func NewBuildService(
	repos *repositories.Container,
	grouping *GroupingService,
	injection *InjectionService,
	assignment *AssignmentService,
	cache *CacheService,
	audit *AuditService,
	hub ScheduleNotifier,
	logger *logrus.Logger,
) *BuildService {
	return &BuildService{
		repos:      repos,
		grouping:   grouping,
		injection:  injection,
		assignment: assignment,
		cache:      cache,
		audit:      audit,
		hub:        hub,
		logger:     logger,
	}
}

// Build runs the strict step order of the orchestrator in one transaction.
// Any step failure rolls the whole call back and names the step; dry runs
// roll back after composing the response.
func (s *BuildService) Build(ctx context.Context, tournamentID, versionID string, opts BuildOptions) (*BuildResult, error) {
	result := &BuildResult{
		Status:         "ok",
		DryRun:         opts.DryRun,
		Warnings:       []string{},
		WFConflictLens: []EventConflictLens{},
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.runSteps(ctx, tx, tournamentID, versionID, opts, result); err != nil {
		var se *stepError
		if errors.As(err, &se) {
			if appErr := apperr.From(se.err); appErr != nil {
				// Precondition and validation failures propagate as-is so the
				// adapter can map their status codes.
				return nil, appErr
			}
			result.Status = "error"
			result.FailedStep = se.step
			result.ErrorMessage = se.err.Error()
			s.logger.WithFields(logrus.Fields{
				"version_id": versionID,
				"step":       se.step,
			}).WithError(se.err).Error("schedule build failed")
			return result, nil
		}
		return nil, err
	}

	if opts.DryRun {
		// Response reflects the would-be state; nothing commits.
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "schedule_built", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
		"assigned":            result.Summary.AssignedCount,
		"unassigned":          result.Summary.UnassignedCount,
	})
	if s.hub != nil {
		s.hub.NotifyScheduleEvent("schedule_built", tournamentID, versionID, result.Summary)
	}
	return result, nil
}

func (s *BuildService) runSteps(ctx context.Context, tx *sql.Tx, tournamentID, versionID string, opts BuildOptions, result *BuildResult) error {
	// Step 1: validate tournament, version, draft status. The version lock
	// serializes concurrent builds on the same version.
	tournament, err := s.repos.Tournament.GetByID(ctx, tx, tournamentID)
	if err != nil {
		return failStep(StepValidate, err)
	}
	if tournament == nil {
		return failStep(StepValidate, apperr.NotFound(apperr.CodeTournamentNotFound, "tournament %s not found", tournamentID))
	}
	version, err := s.repos.Version.LockForUpdate(ctx, tx, versionID)
	if err != nil {
		return failStep(StepValidate, err)
	}
	if version == nil || version.TournamentID != tournamentID {
		return failStep(StepValidate, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID))
	}
	if !version.IsDraft() {
		return failStep(StepValidate, apperr.Precondition(apperr.CodeVersionNotDraft,
			"schedule version %d is %s, build requires draft", version.VersionNumber, version.Status))
	}

	// Step 2: optionally clear existing assignments.
	if opts.ClearExisting {
		if err := s.repos.Assignment.DeleteByVersion(ctx, tx, versionID); err != nil {
			return failStep(StepClearAssignments, err)
		}
		if err := s.repos.Match.ResetStatuses(ctx, tx, versionID); err != nil {
			return failStep(StepClearAssignments, err)
		}
	}

	// Step 3: confirm slots exist.
	slotCount, err := s.repos.Slot.CountByVersion(ctx, tx, versionID)
	if err != nil {
		return failStep(StepCheckSlots, err)
	}
	result.Summary.SlotCount = slotCount
	if slotCount == 0 {
		result.Warnings = append(result.Warnings, "version has no slots")
	}

	// Step 4: confirm matches exist.
	matchCount, err := s.repos.Match.CountByVersion(ctx, tx, versionID)
	if err != nil {
		return failStep(StepCheckMatches, err)
	}
	result.Summary.MatchCount = matchCount
	if matchCount == 0 {
		result.Warnings = append(result.Warnings, "version has no matches")
	}

	events, err := s.repos.Event.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return failStep(StepValidate, err)
	}

	// Step 5: waterfall grouping for WF events carrying avoid-edges.
	for _, event := range events {
		if !event.HasWaterfall() {
			continue
		}
		edges, err := s.repos.AvoidEdge.ListByEvent(ctx, tx, event.ID)
		if err != nil {
			return failStep(StepWaterfallGrouping, err)
		}
		if len(edges) == 0 {
			continue
		}
		if _, err := s.grouping.assignGroupsTx(ctx, tx, event.ID); err != nil {
			return failStep(StepWaterfallGrouping, err)
		}
		result.Summary.GroupedEvents++
	}

	// Step 6: team injection for events with registered teams.
	for _, event := range events {
		teams, err := s.repos.Team.ListByEvent(ctx, tx, event.ID)
		if err != nil {
			return failStep(StepTeamInjection, err)
		}
		if len(teams) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: event %s has no teams", WarnNoTeamsForEvent, event.Name))
			continue
		}
		if event.TeamCount > 8 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: event %s exceeds the 8-team injection bound", WarnInjectionSkipped, event.Name))
			continue
		}
		plan, err := s.injection.injectTx(ctx, tx, event.ID, versionID, nil)
		if err != nil {
			return failStep(StepTeamInjection, err)
		}
		result.Summary.InjectedEvents++
		for _, w := range plan.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: event %s", w, event.Name))
		}
	}

	// Step 7: rest-aware assignment.
	outcome, err := s.assignment.autoAssignTx(ctx, tx, versionID, false)
	if err != nil {
		return failStep(StepRestAwareAssignment, err)
	}
	result.Assignment = outcome
	result.Summary.AssignedCount = outcome.AssignedCount
	result.Summary.UnassignedCount = outcome.UnassignedCount

	// Step 8: composite response over the in-transaction state.
	input, err := s.loadReportInput(ctx, tx, tournamentID, version)
	if err != nil {
		return failStep(StepComposeResponse, err)
	}
	conflicts, err := BuildConflictReport(*input)
	if err != nil {
		return failStep(StepComposeResponse, err)
	}
	result.Conflicts = conflicts
	result.Grid = BuildGrid(*input)
	result.WFConflictLens = conflicts.WFConflictLens

	return nil
}

// loadReportInput mirrors ReportService loading but against the build
// transaction so the response reflects uncommitted state.
func (s *BuildService) loadReportInput(ctx context.Context, q repositories.Querier, tournamentID string, version *models.ScheduleVersion) (*ReportInput, error) {
	slots, err := s.repos.Slot.ListByVersion(ctx, q, version.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repos.Match.ListByVersion(ctx, q, version.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repos.Assignment.ListByVersion(ctx, q, version.ID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.Event.ListByTournament(ctx, q, tournamentID)
	if err != nil {
		return nil, err
	}

	input := &ReportInput{
		Version:      version,
		Slots:        slots,
		Matches:      matches,
		Assignments:  assignments,
		Events:       events,
		TeamsByEvent: make(map[string][]*models.Team, len(events)),
		EdgesByEvent: make(map[string][]*models.AvoidEdge, len(events)),
	}
	for _, event := range events {
		teams, err := s.repos.Team.ListByEvent(ctx, q, event.ID)
		if err != nil {
			return nil, err
		}
		edges, err := s.repos.AvoidEdge.ListByEvent(ctx, q, event.ID)
		if err != nil {
			return nil, err
		}
		input.TeamsByEvent[event.ID] = teams
		input.EdgesByEvent[event.ID] = edges
	}
	return input, nil
}
