// internal/services/assignment_service.go
// Rest-aware assignment: a deterministic first-fit pass matching matches to
// slots under duration, non-overlap and minimum-rest constraints.

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

// Rest gap constants in minutes.
const (
	RestAfterWaterfall = 60
	RestBetweenScoring = 90
)

// Unassigned reason codes, most specific first.
const (
	ReasonSlotsExhausted       = "SLOTS_EXHAUSTED"
	ReasonDurationTooLong      = "DURATION_TOO_LONG"
	ReasonNoRestCompatibleSlot = "NO_REST_COMPATIBLE_SLOT"
	ReasonNoCompatibleSlot     = "NO_COMPATIBLE_SLOT"
)

// teamRestState is the per-team (last end, last stage) tracker.
type teamRestState struct {
	lastEndAbs int64
	lastStage  models.MatchType
	seen       bool
}

// requiredRestGap returns the minimum gap in minutes before a team that last
// played prevStage may start a match of nextStage.
func requiredRestGap(prevStage, nextStage models.MatchType) int {
	if prevStage == models.MatchWF && nextStage != models.MatchWF {
		return RestAfterWaterfall
	}
	return RestBetweenScoring
}

// interval is a half-open occupation [start, end) in absolute minutes.
type interval struct {
	start int64
	end   int64
}

// UnassignedMatch names one match the pass could not place.
type UnassignedMatch struct {
	MatchID        string   `json:"match_id"`
	MatchCode      string   `json:"match_code"`
	Reason         string   `json:"reason"`
	RestViolations []string `json:"rest_violations,omitempty"`
}

// RestViolationsSummary aggregates rest-blocked matches by gap kind.
type RestViolationsSummary struct {
	WFToScoringViolations     int `json:"wf_to_scoring_violations"`
	ScoringToScoringViolations int `json:"scoring_to_scoring_violations"`
	TotalRestBlocked          int `json:"total_rest_blocked"`
}

// AssignmentOutcome is the result of one first-fit pass.
type AssignmentOutcome struct {
	Assignments     []*models.Assignment  `json:"-"`
	AssignedCount   int                   `json:"assigned_count"`
	UnassignedCount int                   `json:"unassigned_count"`
	Unassigned      []UnassignedMatch     `json:"unassigned"`
	RestSummary     RestViolationsSummary `json:"rest_violations_summary"`
}

// assignmentState carries the occupancy and rest trackers shared between the
// assignment pass and the reporter's reason recomputation.
type assignmentState struct {
	slotAbs     map[string]int64
	dayCourtEnd map[string]int64
	occupancy   map[string][]interval
	rest        map[string]*teamRestState
}

func dayCourtKey(dayDate string, courtNumber int) string {
	return fmt.Sprintf("%s|%d", dayDate, courtNumber)
}

// newAssignmentState indexes slots and seeds occupancy plus team rest state
// from the assignments already committed to the version.
func newAssignmentState(matches []*models.Match, slots []*models.Slot, existing []*models.Assignment) (*assignmentState, error) {
	st := &assignmentState{
		slotAbs:     make(map[string]int64, len(slots)),
		dayCourtEnd: make(map[string]int64, len(slots)),
		occupancy:   make(map[string][]interval),
		rest:        make(map[string]*teamRestState),
	}

	for _, slot := range slots {
		startMin, err := models.ParseClock(slot.StartTime)
		if err != nil {
			return nil, err
		}
		abs, err := models.AbsoluteMinutes(slot.DayDate, startMin)
		if err != nil {
			return nil, err
		}
		st.slotAbs[slot.ID] = abs

		endMin, err := models.ParseClock(slot.EndTime)
		if err != nil {
			return nil, err
		}
		endAbs, err := models.AbsoluteMinutes(slot.DayDate, endMin)
		if err != nil {
			return nil, err
		}
		key := dayCourtKey(slot.DayDate, slot.CourtNumber)
		if endAbs > st.dayCourtEnd[key] {
			st.dayCourtEnd[key] = endAbs
		}
	}

	slotByID := make(map[string]*models.Slot, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
	}
	matchByID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}

	for _, a := range existing {
		slot, okS := slotByID[a.SlotID]
		match, okM := matchByID[a.MatchID]
		if !okS || !okM {
			continue
		}
		start := st.slotAbs[slot.ID]
		end := start + int64(match.DurationMinutes)
		key := dayCourtKey(slot.DayDate, slot.CourtNumber)
		st.occupancy[key] = append(st.occupancy[key], interval{start: start, end: end})
		st.noteTeamPlayed(match, end)
	}

	return st, nil
}

func (st *assignmentState) noteTeamPlayed(match *models.Match, endAbs int64) {
	for _, teamID := range resolvedTeams(match) {
		state, ok := st.rest[teamID]
		if !ok {
			state = &teamRestState{}
			st.rest[teamID] = state
		}
		if !state.seen || endAbs > state.lastEndAbs {
			state.lastEndAbs = endAbs
			state.lastStage = match.MatchType
			state.seen = true
		}
	}
}

func resolvedTeams(match *models.Match) []string {
	teams := make([]string, 0, 2)
	if match.TeamAID != nil {
		teams = append(teams, *match.TeamAID)
	}
	if match.TeamBID != nil {
		teams = append(teams, *match.TeamBID)
	}
	return teams
}

// slotFailure classifies why one slot rejected one match.
type slotFailure int

const (
	slotOK slotFailure = iota
	slotOverlap
	slotDuration
	slotRest
)

// checkSlot applies the compatibility predicate in order: occupancy overlap,
// day-end duration fit, then per-team rest. Placeholder sides skip the rest
// check. restKinds receives the gap kinds that blocked, when slotRest.
func (st *assignmentState) checkSlot(match *models.Match, slot *models.Slot) (slotFailure, []string) {
	start := st.slotAbs[slot.ID]
	end := start + int64(match.DurationMinutes)
	key := dayCourtKey(slot.DayDate, slot.CourtNumber)

	for _, iv := range st.occupancy[key] {
		if iv.start < end && start < iv.end {
			return slotOverlap, nil
		}
	}

	if end > st.dayCourtEnd[key] {
		return slotDuration, nil
	}

	var kinds []string
	for _, teamID := range resolvedTeams(match) {
		state, ok := st.rest[teamID]
		if !ok || !state.seen {
			continue
		}
		gap := requiredRestGap(state.lastStage, match.MatchType)
		if start < state.lastEndAbs+int64(gap) {
			if gap == RestAfterWaterfall {
				kinds = append(kinds, "wf_to_scoring")
			} else {
				kinds = append(kinds, "scoring_to_scoring")
			}
		}
	}
	if len(kinds) > 0 {
		return slotRest, kinds
	}
	return slotOK, nil
}

// commit records an accepted (match, slot) pair in the trackers.
func (st *assignmentState) commit(match *models.Match, slot *models.Slot) {
	start := st.slotAbs[slot.ID]
	end := start + int64(match.DurationMinutes)
	key := dayCourtKey(slot.DayDate, slot.CourtNumber)
	st.occupancy[key] = append(st.occupancy[key], interval{start: start, end: end})
	st.noteTeamPlayed(match, end)
}

// classifyUnassigned derives the most specific reason from the per-slot
// failure tally of a full scan.
func classifyUnassigned(totalSlots, overlapFails, durationFails, restFails int) string {
	switch {
	case totalSlots == 0:
		return ReasonSlotsExhausted
	case restFails > 0:
		return ReasonNoRestCompatibleSlot
	case durationFails == totalSlots:
		return ReasonDurationTooLong
	case overlapFails+durationFails == totalSlots:
		return ReasonSlotsExhausted
	default:
		return ReasonNoCompatibleSlot
	}
}

// AssignMatches runs the deterministic first-fit pass. matches and slots may
// arrive in any order; the canonical orderings are applied here. existing
// assignments seed occupancy and rest state and their matches are skipped.
func AssignMatches(versionID string, matches []*models.Match, slots []*models.Slot, existing []*models.Assignment, now time.Time) (*AssignmentOutcome, error) {
	sortedMatches := make([]*models.Match, len(matches))
	copy(sortedMatches, matches)
	models.SortMatches(sortedMatches)

	sortedSlots := make([]*models.Slot, 0, len(slots))
	for _, s := range slots {
		if s.IsActive {
			sortedSlots = append(sortedSlots, s)
		}
	}
	models.SortSlots(sortedSlots)

	st, err := newAssignmentState(matches, sortedSlots, existing)
	if err != nil {
		return nil, err
	}

	alreadyAssigned := make(map[string]bool, len(existing))
	occupiedSlots := make(map[string]bool, len(existing))
	for _, a := range existing {
		alreadyAssigned[a.MatchID] = true
		occupiedSlots[a.SlotID] = true
	}

	outcome := &AssignmentOutcome{Unassigned: []UnassignedMatch{}}
	for _, match := range sortedMatches {
		if alreadyAssigned[match.ID] {
			continue
		}

		var assignedSlot *models.Slot
		overlapFails, durationFails, restFails := 0, 0, 0
		restKinds := make(map[string]bool)

		for _, slot := range sortedSlots {
			if occupiedSlots[slot.ID] {
				overlapFails++
				continue
			}
			failure, kinds := st.checkSlot(match, slot)
			switch failure {
			case slotOK:
				assignedSlot = slot
			case slotOverlap:
				overlapFails++
			case slotDuration:
				durationFails++
			case slotRest:
				restFails++
				for _, k := range kinds {
					restKinds[k] = true
				}
			}
			if assignedSlot != nil {
				break
			}
		}

		if assignedSlot != nil {
			st.commit(match, assignedSlot)
			occupiedSlots[assignedSlot.ID] = true
			outcome.Assignments = append(outcome.Assignments, &models.Assignment{
				ID:                utils.GenerateUUID(),
				ScheduleVersionID: versionID,
				MatchID:           match.ID,
				SlotID:            assignedSlot.ID,
				CreatedAt:         now,
			})
			outcome.AssignedCount++
			continue
		}

		reason := classifyUnassigned(len(sortedSlots), overlapFails, durationFails, restFails)
		entry := UnassignedMatch{MatchID: match.ID, MatchCode: match.MatchCode, Reason: reason}
		if reason == ReasonNoRestCompatibleSlot {
			outcome.RestSummary.TotalRestBlocked++
			if restKinds["wf_to_scoring"] {
				outcome.RestSummary.WFToScoringViolations++
				entry.RestViolations = append(entry.RestViolations, "wf_to_scoring")
			}
			if restKinds["scoring_to_scoring"] {
				outcome.RestSummary.ScoringToScoringViolations++
				entry.RestViolations = append(entry.RestViolations, "scoring_to_scoring")
			}
		}
		outcome.Unassigned = append(outcome.Unassigned, entry)
		outcome.UnassignedCount++
	}

	return outcome, nil
}

// AssignmentService persists first-fit passes over a draft version.
type AssignmentService struct {
	repos  *repositories.Container
	cache  *CacheService
	audit  *AuditService
	logger *logrus.Logger
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(repos *repositories.Container, cache *CacheService, audit *AuditService, logger *logrus.Logger) *AssignmentService {
	return &AssignmentService{repos: repos, cache: cache, audit: audit, logger: logger}
}

// AutoAssign runs the rest-aware first-fit pass inside one transaction.
func (s *AssignmentService) AutoAssign(ctx context.Context, tournamentID, versionID string, clearExisting bool) (*AssignmentOutcome, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := s.repos.Version.LockForUpdate(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock version: %w", err)
	}
	if version == nil || version.TournamentID != tournamentID {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}
	if !version.IsDraft() {
		return nil, apperr.Precondition(apperr.CodeVersionNotDraft,
			"schedule version %d is %s, writes require draft", version.VersionNumber, version.Status)
	}

	outcome, err := s.autoAssignTx(ctx, tx, versionID, clearExisting)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "assignments_built", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
		"assigned":            outcome.AssignedCount,
		"unassigned":          outcome.UnassignedCount,
	})
	return outcome, nil
}

// autoAssignTx is the transaction-scoped body shared with the orchestrator.
func (s *AssignmentService) autoAssignTx(ctx context.Context, q repositories.Querier, versionID string, clearExisting bool) (*AssignmentOutcome, error) {
	if clearExisting {
		if err := s.repos.Assignment.DeleteByVersion(ctx, q, versionID); err != nil {
			return nil, fmt.Errorf("failed to clear assignments: %w", err)
		}
		if err := s.repos.Match.ResetStatuses(ctx, q, versionID); err != nil {
			return nil, fmt.Errorf("failed to reset match statuses: %w", err)
		}
	}

	matches, err := s.repos.Match.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	slots, err := s.repos.Slot.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	existing, err := s.repos.Assignment.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	outcome, err := AssignMatches(versionID, matches, slots, existing, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repos.Assignment.BulkCreate(ctx, q, outcome.Assignments); err != nil {
		return nil, err
	}
	for _, a := range outcome.Assignments {
		if err := s.repos.Match.UpdateStatus(ctx, q, a.MatchID, models.MatchScheduled); err != nil {
			return nil, fmt.Errorf("failed to mark match scheduled: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"version_id": versionID,
		"assigned":   outcome.AssignedCount,
		"unassigned": outcome.UnassignedCount,
	}).Info("rest-aware assignment completed")
	return outcome, nil
}
