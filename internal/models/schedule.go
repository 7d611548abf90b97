// internal/models/schedule.go
// Schedule version, slot and assignment models

package models

import (
	"fmt"
	"sort"
	"time"
)

// VersionStatus is the schedule version state machine: draft -> final.
type VersionStatus string

const (
	VersionDraft VersionStatus = "draft"
	VersionFinal VersionStatus = "final"
)

// ScheduleVersion owns its slots, version-bound matches and assignments.
// Finalized versions are immutable; FinalizedChecksum is the 64-char hex
// SHA-256 over the canonical serialization of the version contents.
type ScheduleVersion struct {
	ID                string        `json:"id" db:"id"`
	TournamentID      string        `json:"tournament_id" db:"tournament_id"`
	VersionNumber     int           `json:"version_number" db:"version_number"`
	Status            VersionStatus `json:"status" db:"status"`
	Notes             *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	FinalizedAt       *time.Time    `json:"finalized_at,omitempty" db:"finalized_at"`
	FinalizedChecksum *string       `json:"finalized_checksum,omitempty" db:"finalized_checksum"`
}

// IsDraft reports whether the version still accepts writes.
func (v *ScheduleVersion) IsDraft() bool {
	return v.Status == VersionDraft
}

// Validate checks version invariants, including the draft/final field pairing.
func (v *ScheduleVersion) Validate() error {
	switch v.Status {
	case VersionDraft:
		if v.FinalizedAt != nil || v.FinalizedChecksum != nil {
			return &ValidationError{Entity: "schedule_version", Field: "finalized_at", Rule: "draft_unfinalized",
				Message: "draft versions must not carry finalization fields"}
		}
	case VersionFinal:
		if v.FinalizedAt == nil || v.FinalizedChecksum == nil {
			return &ValidationError{Entity: "schedule_version", Field: "finalized_checksum", Rule: "final_complete",
				Message: "final versions require finalized_at and finalized_checksum"}
		}
		if len(*v.FinalizedChecksum) != 64 {
			return &ValidationError{Entity: "schedule_version", Field: "finalized_checksum", Rule: "checksum_hex64",
				Message: fmt.Sprintf("checksum must be 64 hex chars, got %d", len(*v.FinalizedChecksum))}
		}
	default:
		return &ValidationError{Entity: "schedule_version", Field: "status", Rule: "enum",
			Message: fmt.Sprintf("unknown version status %q", v.Status)}
	}
	if v.VersionNumber < 1 {
		return &ValidationError{Entity: "schedule_version", Field: "version_number", Rule: "min",
			Message: fmt.Sprintf("version_number must be >= 1, got %d", v.VersionNumber)}
	}
	return nil
}

// SlotBlockMinutes is the tick width of a start opportunity.
const SlotBlockMinutes = 15

// Slot is a 15-minute start opportunity on a (day, court). It is not a
// reservation: occupation length comes from the assigned match's duration.
type Slot struct {
	ID                string    `json:"id" db:"id"`
	ScheduleVersionID string    `json:"schedule_version_id" db:"schedule_version_id"`
	DayDate           string    `json:"day_date" db:"day_date"`
	StartTime         string    `json:"start_time" db:"start_time"`
	EndTime           string    `json:"end_time" db:"end_time"`
	CourtNumber       int       `json:"court_number" db:"court_number"`
	CourtLabel        string    `json:"court_label" db:"court_label"`
	BlockMinutes      int       `json:"block_minutes" db:"block_minutes"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// StartMinutes returns the slot start as minutes from midnight.
func (s *Slot) StartMinutes() int {
	min, _ := ParseClock(s.StartTime)
	return min
}

// SortSlots sorts slots in place by the canonical slot key used by the
// assignment engine: (day_date, start time, court_label, id).
func SortSlots(slots []*Slot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.DayDate != b.DayDate {
			return a.DayDate < b.DayDate
		}
		if am, bm := a.StartMinutes(), b.StartMinutes(); am != bm {
			return am < bm
		}
		if a.CourtLabel != b.CourtLabel {
			return a.CourtLabel < b.CourtLabel
		}
		return a.ID < b.ID
	})
}

// SortSlotsForChecksum sorts slots by the checksum ordering:
// (day_date, start_time, court_number, id).
func SortSlotsForChecksum(slots []*Slot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.DayDate != b.DayDate {
			return a.DayDate < b.DayDate
		}
		if am, bm := a.StartMinutes(), b.StartMinutes(); am != bm {
			return am < bm
		}
		if a.CourtNumber != b.CourtNumber {
			return a.CourtNumber < b.CourtNumber
		}
		return a.ID < b.ID
	})
}

// Assignment binds one match to one slot within a version.
type Assignment struct {
	ID                string    `json:"id" db:"id"`
	ScheduleVersionID string    `json:"schedule_version_id" db:"schedule_version_id"`
	MatchID           string    `json:"match_id" db:"match_id"`
	SlotID            string    `json:"slot_id" db:"slot_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
