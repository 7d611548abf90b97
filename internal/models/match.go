// internal/models/match.go
// Match model, stage taxonomy and the canonical match ordering

package models

import (
	"fmt"
	"sort"
	"time"
)

// MatchType is the stage a match belongs to.
type MatchType string

const (
	MatchWF          MatchType = "WF"
	MatchMain        MatchType = "MAIN"
	MatchConsolation MatchType = "CONSOLATION"
	MatchPlacement   MatchType = "PLACEMENT"
)

// PlacementType distinguishes the placement matches of an 8-team bracket.
type PlacementType string

const (
	PlacementMainSFLosers  PlacementType = "MAIN_SF_LOSERS"
	PlacementConsR1Winners PlacementType = "CONS_R1_WINNERS"
	PlacementConsR1Losers  PlacementType = "CONS_R1_LOSERS"
)

// MatchScheduleStatus tracks whether a match holds an assignment.
type MatchScheduleStatus string

const (
	MatchUnscheduled MatchScheduleStatus = "unscheduled"
	MatchScheduled   MatchScheduleStatus = "scheduled"
)

// Match is generated per event within a schedule version. Placeholder sides
// are always present; team ids are filled in by injection where resolvable.
type Match struct {
	ID                string              `json:"id" db:"id"`
	EventID           string              `json:"event_id" db:"event_id"`
	ScheduleVersionID string              `json:"schedule_version_id" db:"schedule_version_id"`
	MatchCode         string              `json:"match_code" db:"match_code"`
	MatchType         MatchType           `json:"match_type" db:"match_type"`
	RoundIndex        int                 `json:"round_index" db:"round_index"`
	SequenceInRound   int                 `json:"sequence_in_round" db:"sequence_in_round"`
	DurationMinutes   int                 `json:"duration_minutes" db:"duration_minutes"`
	ConsolationTier   *int                `json:"consolation_tier,omitempty" db:"consolation_tier"`
	PlacementType     *PlacementType      `json:"placement_type,omitempty" db:"placement_type"`
	TeamAID           *string             `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID           *string             `json:"team_b_id,omitempty" db:"team_b_id"`
	PlaceholderSideA  string              `json:"placeholder_side_a" db:"placeholder_side_a"`
	PlaceholderSideB  string              `json:"placeholder_side_b" db:"placeholder_side_b"`
	PreferredDay      *string             `json:"preferred_day,omitempty" db:"preferred_day"`
	Status            MatchScheduleStatus `json:"status" db:"status"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// StagePriority returns the fixed stage ordering: WF=1, MAIN=2,
// CONSOLATION=3, PLACEMENT=4.
func (m *Match) StagePriority() int {
	return StagePriorityOf(m.MatchType)
}

// StagePriorityOf maps a match type to its stage priority.
func StagePriorityOf(t MatchType) int {
	switch t {
	case MatchWF:
		return 1
	case MatchMain:
		return 2
	case MatchConsolation:
		return 3
	case MatchPlacement:
		return 4
	}
	return 5
}

// PlacementOrder breaks ties among placement matches:
// MAIN_SF_LOSERS, then CONS_R1_WINNERS, then CONS_R1_LOSERS.
func (m *Match) PlacementOrder() int {
	if m.PlacementType == nil {
		return 0
	}
	switch *m.PlacementType {
	case PlacementMainSFLosers:
		return 1
	case PlacementConsR1Winners:
		return 2
	case PlacementConsR1Losers:
		return 3
	}
	return 4
}

// Less implements the canonical match sort key:
// (stage_priority, round_index, event_id, match_type, placement_order,
// sequence_in_round, match_code).
func (m *Match) Less(other *Match) bool {
	if a, b := m.StagePriority(), other.StagePriority(); a != b {
		return a < b
	}
	if m.RoundIndex != other.RoundIndex {
		return m.RoundIndex < other.RoundIndex
	}
	if m.EventID != other.EventID {
		return m.EventID < other.EventID
	}
	if m.MatchType != other.MatchType {
		return m.MatchType < other.MatchType
	}
	if a, b := m.PlacementOrder(), other.PlacementOrder(); a != b {
		return a < b
	}
	if m.SequenceInRound != other.SequenceInRound {
		return m.SequenceInRound < other.SequenceInRound
	}
	return m.MatchCode < other.MatchCode
}

// Validate checks match invariants.
func (m *Match) Validate() error {
	switch m.MatchType {
	case MatchWF, MatchMain, MatchConsolation, MatchPlacement:
	default:
		return &ValidationError{Entity: "match", Field: "match_type", Rule: "enum",
			Message: fmt.Sprintf("unknown match_type %q", m.MatchType)}
	}
	if m.RoundIndex < 1 {
		return &ValidationError{Entity: "match", Field: "round_index", Rule: "min",
			Message: fmt.Sprintf("round_index must be >= 1, got %d", m.RoundIndex)}
	}
	if m.SequenceInRound < 1 {
		return &ValidationError{Entity: "match", Field: "sequence_in_round", Rule: "min",
			Message: fmt.Sprintf("sequence_in_round must be >= 1, got %d", m.SequenceInRound)}
	}
	if !AllowedDuration(m.DurationMinutes) {
		return &ValidationError{Entity: "match", Field: "duration_minutes", Rule: "duration_choice",
			Message: fmt.Sprintf("duration %d not in %v", m.DurationMinutes, AllowedDurations)}
	}
	if m.PlaceholderSideA == "" || m.PlaceholderSideB == "" {
		return &ValidationError{Entity: "match", Field: "placeholder_side_a", Rule: "required",
			Message: "placeholder sides must always be set"}
	}
	if m.ConsolationTier != nil && (*m.ConsolationTier < 1 || *m.ConsolationTier > 2) {
		return &ValidationError{Entity: "match", Field: "consolation_tier", Rule: "enum",
			Message: fmt.Sprintf("consolation_tier must be 1 or 2, got %d", *m.ConsolationTier)}
	}
	return nil
}

// SortMatches sorts matches in place by the canonical match key.
func SortMatches(matches []*Match) {
	sort.Slice(matches, func(i, j int) bool { return matches[i].Less(matches[j]) })
}
