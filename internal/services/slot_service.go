// internal/services/slot_service.go
// Slot generation: 15-minute start opportunities across tournament days and
// courts within a draft version.

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

// SlotSource selects how the slot grid is derived.
type SlotSource string

const (
	SlotSourceAuto   SlotSource = "auto"
	SlotSourceManual SlotSource = "manual"
)

// ManualDaySpec is one explicit day x court window for manual generation.
type ManualDaySpec struct {
	DayDate      string   `json:"day_date"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	CourtNumbers []int    `json:"court_numbers"`
	CourtLabels  []string `json:"court_labels,omitempty"`
}

// slotTicks emits one slot per 15-minute tick from start (inclusive) to end
// (exclusive) for a single court.
func slotTicks(versionID, dayDate string, startMin, endMin, courtNumber int, courtLabel string, now time.Time) []*models.Slot {
	slots := make([]*models.Slot, 0, (endMin-startMin)/models.SlotBlockMinutes)
	for tick := startMin; tick < endMin; tick += models.SlotBlockMinutes {
		slots = append(slots, &models.Slot{
			ID:                utils.GenerateUUID(),
			ScheduleVersionID: versionID,
			DayDate:           dayDate,
			StartTime:         models.FormatClock(tick),
			EndTime:           models.FormatClock(tick + models.SlotBlockMinutes),
			CourtNumber:       courtNumber,
			CourtLabel:        courtLabel,
			BlockMinutes:      models.SlotBlockMinutes,
			IsActive:          true,
			CreatedAt:         now,
		})
	}
	return slots
}

// BuildSlotGrid expands active tournament days into the full slot grid.
func BuildSlotGrid(versionID string, days []models.TournamentDay, now time.Time) ([]*models.Slot, error) {
	slots := make([]*models.Slot, 0)
	for i := range days {
		day := &days[i]
		if !day.IsActive {
			continue
		}
		if err := day.Validate(); err != nil {
			return nil, apperr.Validation(apperr.CodeValidationFailed, "invalid tournament day: %v", err)
		}
		startMin, _ := models.ParseClock(day.StartTime)
		endMin, _ := models.ParseClock(day.EndTime)
		for court := 1; court <= day.CourtsAvailable; court++ {
			slots = append(slots, slotTicks(versionID, day.Date, startMin, endMin, court, day.LabelForCourt(court), now)...)
		}
	}
	return slots, nil
}

// BuildManualSlots expands explicit day x court specs into slots.
func BuildManualSlots(versionID string, specs []ManualDaySpec, now time.Time) ([]*models.Slot, error) {
	slots := make([]*models.Slot, 0)
	for _, spec := range specs {
		startMin, err := models.ParseClock(spec.StartTime)
		if err != nil {
			return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
		}
		endMin, err := models.ParseClock(spec.EndTime)
		if err != nil {
			return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
		}
		if endMin <= startMin {
			return nil, apperr.Validation(apperr.CodeValidationFailed,
				"day %s window %s-%s is empty", spec.DayDate, spec.StartTime, spec.EndTime)
		}
		for i, court := range spec.CourtNumbers {
			if court < 1 {
				return nil, apperr.Validation(apperr.CodeValidationFailed,
					"court numbers are 1-based, got %d", court)
			}
			label := fmt.Sprintf("Court %d", court)
			if i < len(spec.CourtLabels) && spec.CourtLabels[i] != "" {
				label = spec.CourtLabels[i]
			}
			slots = append(slots, slotTicks(versionID, spec.DayDate, startMin, endMin, court, label, now)...)
		}
	}
	return slots, nil
}

// SlotService persists generated slot grids.
type SlotService struct {
	repos  *repositories.Container
	cache  *CacheService
	audit  *AuditService
	logger *logrus.Logger
}

// NewSlotService creates a new slot service
func NewSlotService(repos *repositories.Container, cache *CacheService, audit *AuditService, logger *logrus.Logger) *SlotService {
	return &SlotService{repos: repos, cache: cache, audit: audit, logger: logger}
}

// SlotGenerationResult reports one generation run.
type SlotGenerationResult struct {
	SlotsCreated int `json:"slots_created"`
	SlotsWiped   int `json:"slots_wiped"`
}

// GenerateSlots (re)builds the slot grid of a draft version. wipeExisting
// deletes current version slots first, making the operation idempotent.
func (s *SlotService) GenerateSlots(ctx context.Context, tournamentID, versionID string, source SlotSource, manual []ManualDaySpec, wipeExisting bool) (*SlotGenerationResult, error) {
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

	now := time.Now().UTC()
	var slots []*models.Slot
	switch source {
	case SlotSourceAuto, "":
		days, err := s.repos.Tournament.ListDays(ctx, tx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tournament days: %w", err)
		}
		slots, err = BuildSlotGrid(versionID, days, now)
		if err != nil {
			return nil, err
		}
	case SlotSourceManual:
		slots, err = BuildManualSlots(versionID, manual, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation(apperr.CodeValidationFailed, "unknown slot source %q", source)
	}

	result := &SlotGenerationResult{}
	if wipeExisting {
		wiped, err := s.repos.Slot.CountByVersion(ctx, tx, versionID)
		if err != nil {
			return nil, err
		}
		// Assignments reference slots; a wiped grid cannot keep them.
		if err := s.repos.Assignment.DeleteByVersion(ctx, tx, versionID); err != nil {
			return nil, fmt.Errorf("failed to clear assignments: %w", err)
		}
		if err := s.repos.Match.ResetStatuses(ctx, tx, versionID); err != nil {
			return nil, fmt.Errorf("failed to reset match statuses: %w", err)
		}
		if err := s.repos.Slot.DeleteByVersion(ctx, tx, versionID); err != nil {
			return nil, fmt.Errorf("failed to wipe slots: %w", err)
		}
		result.SlotsWiped = wiped
	}

	if err := s.repos.Slot.BulkCreate(ctx, tx, slots); err != nil {
		return nil, err
	}
	result.SlotsCreated = len(slots)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "slots_generated", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
		"slots_created":       result.SlotsCreated,
		"source":              source,
	})
	s.logger.WithFields(logrus.Fields{
		"tournament_id": tournamentID,
		"version_id":    versionID,
		"slots":         result.SlotsCreated,
	}).Info("slot grid generated")

	return result, nil
}
