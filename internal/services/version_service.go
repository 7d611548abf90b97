// internal/services/version_service.go
// Schedule version lifecycle: draft creation, reset, sanity-checked
// finalization with a deterministic content checksum, and clone-to-draft.

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

// ComputeChecksum produces the deterministic SHA-256 hex over the canonical
// line serialization of a version's contents:
//
//	S|<day_date>|<start_time>|<court_number>|<id>   slots by (day, time, court, id)
//	M|<match_type>|<round_index>|<sequence_in_round>|<id>   matches by that key
//	A|<slot_id>|<match_id>   assignments by (slot_id, match_id)
//
// Two stores holding the same finalized contents share the same checksum.
func ComputeChecksum(slots []*models.Slot, matches []*models.Match, assignments []*models.Assignment) string {
	sortedSlots := make([]*models.Slot, len(slots))
	copy(sortedSlots, slots)
	models.SortSlotsForChecksum(sortedSlots)

	sortedMatches := make([]*models.Match, len(matches))
	copy(sortedMatches, matches)
	sort.Slice(sortedMatches, func(i, j int) bool {
		a, b := sortedMatches[i], sortedMatches[j]
		if a.MatchType != b.MatchType {
			return a.MatchType < b.MatchType
		}
		if a.RoundIndex != b.RoundIndex {
			return a.RoundIndex < b.RoundIndex
		}
		if a.SequenceInRound != b.SequenceInRound {
			return a.SequenceInRound < b.SequenceInRound
		}
		return a.ID < b.ID
	})

	sortedAssignments := make([]*models.Assignment, len(assignments))
	copy(sortedAssignments, assignments)
	sort.Slice(sortedAssignments, func(i, j int) bool {
		a, b := sortedAssignments[i], sortedAssignments[j]
		if a.SlotID != b.SlotID {
			return a.SlotID < b.SlotID
		}
		return a.MatchID < b.MatchID
	})

	var sb strings.Builder
	for _, s := range sortedSlots {
		fmt.Fprintf(&sb, "S|%s|%s|%d|%s\n", s.DayDate, s.StartTime, s.CourtNumber, s.ID)
	}
	for _, m := range sortedMatches {
		fmt.Fprintf(&sb, "M|%s|%d|%d|%s\n", m.MatchType, m.RoundIndex, m.SequenceInRound, m.ID)
	}
	for _, a := range sortedAssignments {
		fmt.Fprintf(&sb, "A|%s|%s\n", a.SlotID, a.MatchID)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// SanityCheckVersion runs the pre-finalize checks: no double-booked slots,
// assignment references confined to the version, match team references
// confined to the owning event. Returned strings describe each failure.
func SanityCheckVersion(version *models.ScheduleVersion, slots []*models.Slot, matches []*models.Match, assignments []*models.Assignment, teamsByEvent map[string][]*models.Team) []string {
	issues := make([]string, 0)

	slotByID := make(map[string]*models.Slot, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
	}
	matchByID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}

	slotUse := make(map[string]int, len(assignments))
	for _, a := range assignments {
		slotUse[a.SlotID]++
		if a.ScheduleVersionID != version.ID {
			issues = append(issues, fmt.Sprintf("assignment %s belongs to version %s", a.ID, a.ScheduleVersionID))
		}
		if slot, ok := slotByID[a.SlotID]; !ok {
			issues = append(issues, fmt.Sprintf("assignment %s references slot %s outside the version", a.ID, a.SlotID))
		} else if slot.ScheduleVersionID != version.ID {
			issues = append(issues, fmt.Sprintf("slot %s belongs to version %s", slot.ID, slot.ScheduleVersionID))
		}
		if match, ok := matchByID[a.MatchID]; !ok {
			issues = append(issues, fmt.Sprintf("assignment %s references match %s outside the version", a.ID, a.MatchID))
		} else if match.ScheduleVersionID != version.ID {
			issues = append(issues, fmt.Sprintf("match %s belongs to version %s", match.ID, match.ScheduleVersionID))
		}
	}
	for slotID, count := range slotUse {
		if count > 1 {
			issues = append(issues, fmt.Sprintf("slot %s is double-booked with %d assignments", slotID, count))
		}
	}

	eventTeams := make(map[string]map[string]bool, len(teamsByEvent))
	for eventID, teams := range teamsByEvent {
		ids := make(map[string]bool, len(teams))
		for _, t := range teams {
			ids[t.ID] = true
		}
		eventTeams[eventID] = ids
	}
	for _, m := range matches {
		for _, teamID := range resolvedTeams(m) {
			if !eventTeams[m.EventID][teamID] {
				issues = append(issues, fmt.Sprintf("match %s references team %s outside event %s", m.MatchCode, teamID, m.EventID))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// VersionService drives the version state machine.
type VersionService struct {
	repos  *repositories.Container
	cache  *CacheService
	audit  *AuditService
	logger *logrus.Logger
}

// NewVersionService creates a new version service
func NewVersionService(repos *repositories.Container, cache *CacheService, audit *AuditService, logger *logrus.Logger) *VersionService {
	return &VersionService{repos: repos, cache: cache, audit: audit, logger: logger}
}

// CreateDraft opens a new draft with the next monotonic version number.
func (s *VersionService) CreateDraft(ctx context.Context, tournamentID string, notes *string) (*models.ScheduleVersion, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.repos.Tournament.GetByID(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if tournament == nil {
		return nil, apperr.NotFound(apperr.CodeTournamentNotFound, "tournament %s not found", tournamentID)
	}

	number, err := s.repos.Version.NextVersionNumber(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version number: %w", err)
	}

	version := &models.ScheduleVersion{
		ID:            utils.GenerateUUID(),
		TournamentID:  tournamentID,
		VersionNumber: number,
		Status:        models.VersionDraft,
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repos.Version.Create(ctx, tx, version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, "version_created", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": version.ID,
		"version_number":      version.VersionNumber,
	})
	return version, nil
}

// Get loads a version, checking tournament ownership.
func (s *VersionService) Get(ctx context.Context, tournamentID, versionID string) (*models.ScheduleVersion, error) {
	version, err := s.repos.Version.GetByID(ctx, s.repos.DB(), versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load version: %w", err)
	}
	if version == nil || version.TournamentID != tournamentID {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}
	return version, nil
}

// List returns a tournament's versions, newest first.
func (s *VersionService) List(ctx context.Context, tournamentID string) ([]*models.ScheduleVersion, error) {
	return s.repos.Version.ListByTournament(ctx, s.repos.DB(), tournamentID)
}

// ResetResult reports what a reset removed.
type ResetResult struct {
	DeletedAssignments int `json:"deleted_assignments"`
	DeletedMatches     int `json:"deleted_matches"`
	DeletedSlots       int `json:"deleted_slots"`
}

// Reset empties a draft version: assignments, then matches, then slots, in
// child-to-parent order within one transaction.
func (s *VersionService) Reset(ctx context.Context, tournamentID, versionID string) (*ResetResult, error) {
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
			"schedule version %d is %s, reset requires draft", version.VersionNumber, version.Status)
	}

	result := &ResetResult{}
	if result.DeletedAssignments, err = s.repos.Assignment.CountByVersion(ctx, tx, versionID); err != nil {
		return nil, err
	}
	if result.DeletedMatches, err = s.repos.Match.CountByVersion(ctx, tx, versionID); err != nil {
		return nil, err
	}
	if result.DeletedSlots, err = s.repos.Slot.CountByVersion(ctx, tx, versionID); err != nil {
		return nil, err
	}

	if err := s.repos.Assignment.DeleteByVersion(ctx, tx, versionID); err != nil {
		return nil, fmt.Errorf("failed to delete assignments: %w", err)
	}
	if err := s.repos.Match.DeleteByVersion(ctx, tx, versionID); err != nil {
		return nil, fmt.Errorf("failed to delete matches: %w", err)
	}
	if err := s.repos.Slot.DeleteByVersion(ctx, tx, versionID); err != nil {
		return nil, fmt.Errorf("failed to delete slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "version_reset", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
	})
	return result, nil
}

// Finalize runs the sanity checks and, on success, marks the version final
// with its deterministic content checksum.
func (s *VersionService) Finalize(ctx context.Context, tournamentID, versionID string) (*models.ScheduleVersion, error) {
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
			"schedule version %d is %s, finalize requires draft", version.VersionNumber, version.Status)
	}

	slots, err := s.repos.Slot.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repos.Match.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repos.Assignment.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}

	teamsByEvent := make(map[string][]*models.Team)
	for _, m := range matches {
		if _, ok := teamsByEvent[m.EventID]; ok {
			continue
		}
		teams, err := s.repos.Team.ListByEvent(ctx, tx, m.EventID)
		if err != nil {
			return nil, err
		}
		teamsByEvent[m.EventID] = teams
	}

	if issues := SanityCheckVersion(version, slots, matches, assignments, teamsByEvent); len(issues) > 0 {
		return nil, apperr.Validation(apperr.CodeSanityCheckFailed,
			"version failed %d sanity checks", len(issues)).With("issues", issues)
	}

	checksum := ComputeChecksum(slots, matches, assignments)
	finalizedAt := time.Now().UTC()
	if err := s.repos.Version.Finalize(ctx, tx, versionID, finalizedAt, checksum); err != nil {
		return nil, fmt.Errorf("failed to finalize version: %w", err)
	}

	// Lock the draw plans of the events scheduled in this version.
	for eventID := range teamsByEvent {
		if err := s.repos.Event.UpdateDrawStatus(ctx, tx, eventID, models.DrawFinal); err != nil {
			return nil, fmt.Errorf("failed to lock event draw: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	version.Status = models.VersionFinal
	version.FinalizedAt = &finalizedAt
	version.FinalizedChecksum = &checksum

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "version_finalized", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
		"checksum":            checksum,
	})
	s.logger.WithFields(logrus.Fields{
		"version_id": versionID,
		"checksum":   checksum,
	}).Info("schedule version finalized")
	return version, nil
}

// CloneResult reports the copied entity counts of a clone.
type CloneResult struct {
	NewVersion            *models.ScheduleVersion `json:"version"`
	CopiedSlotsCount      int                     `json:"copied_slots_count"`
	CopiedMatchesCount    int                     `json:"copied_matches_count"`
	CopiedAssignmentsCount int                    `json:"copied_assignments_count"`
}

// CloneToDraft deep-copies a finalized version into a new draft with
// remapped ids.
func (s *VersionService) CloneToDraft(ctx context.Context, tournamentID, versionID string) (*CloneResult, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	source, err := s.repos.Version.LockForUpdate(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock version: %w", err)
	}
	if source == nil || source.TournamentID != tournamentID {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}
	if source.Status != models.VersionFinal {
		return nil, apperr.Precondition(apperr.CodeSourceVersionNotFinal,
			"schedule version %d is %s, clone requires final", source.VersionNumber, source.Status)
	}

	number, err := s.repos.Version.NextVersionNumber(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version number: %w", err)
	}

	now := time.Now().UTC()
	draft := &models.ScheduleVersion{
		ID:            utils.GenerateUUID(),
		TournamentID:  tournamentID,
		VersionNumber: number,
		Status:        models.VersionDraft,
		Notes:         source.Notes,
		CreatedAt:     now,
	}
	if err := s.repos.Version.Create(ctx, tx, draft); err != nil {
		return nil, err
	}

	slots, err := s.repos.Slot.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repos.Match.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repos.Assignment.ListByVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}

	slotIDMap := make(map[string]string, len(slots))
	for _, slot := range slots {
		clone := *slot
		clone.ID = utils.GenerateUUID()
		clone.ScheduleVersionID = draft.ID
		clone.CreatedAt = now
		slotIDMap[slot.ID] = clone.ID
		if err := s.repos.Slot.Create(ctx, tx, &clone); err != nil {
			return nil, err
		}
	}

	matchIDMap := make(map[string]string, len(matches))
	for _, match := range matches {
		clone := *match
		clone.ID = utils.GenerateUUID()
		clone.ScheduleVersionID = draft.ID
		clone.CreatedAt = now
		clone.UpdatedAt = now
		matchIDMap[match.ID] = clone.ID
		if err := s.repos.Match.Create(ctx, tx, &clone); err != nil {
			return nil, err
		}
	}

	copied := 0
	for _, a := range assignments {
		newSlot, okS := slotIDMap[a.SlotID]
		newMatch, okM := matchIDMap[a.MatchID]
		if !okS || !okM {
			continue
		}
		clone := &models.Assignment{
			ID:                utils.GenerateUUID(),
			ScheduleVersionID: draft.ID,
			MatchID:           newMatch,
			SlotID:            newSlot,
			CreatedAt:         now,
		}
		if err := s.repos.Assignment.Create(ctx, tx, clone); err != nil {
			return nil, err
		}
		copied++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, "version_cloned", map[string]interface{}{
		"tournament_id":       tournamentID,
		"source_version_id":   versionID,
		"schedule_version_id": draft.ID,
	})
	return &CloneResult{
		NewVersion:             draft,
		CopiedSlotsCount:       len(slots),
		CopiedMatchesCount:     len(matches),
		CopiedAssignmentsCount: copied,
	}, nil
}
