// internal/models/team.go
// Team and avoid-edge models

package models

import (
	"fmt"
	"time"
)

// Team belongs to an event. Seed, rating and registration time drive the
// canonical ordering used by grouping and injection. WFGroupIndex is assigned
// by the waterfall grouping engine.
type Team struct {
	ID           string     `json:"id" db:"id"`
	EventID      string     `json:"event_id" db:"event_id"`
	Name         string     `json:"name" db:"name"`
	Seed         *int       `json:"seed,omitempty" db:"seed"`
	Rating       *float64   `json:"rating,omitempty" db:"rating"`
	RegisteredAt *time.Time `json:"registered_at,omitempty" db:"registered_at"`
	WFGroupIndex *int       `json:"wf_group_index,omitempty" db:"wf_group_index"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks team invariants.
func (t *Team) Validate() error {
	if t.Name == "" {
		return &ValidationError{Entity: "team", Field: "name", Rule: "required", Message: "team name is required"}
	}
	if t.Seed != nil && *t.Seed < 1 {
		return &ValidationError{Entity: "team", Field: "seed", Rule: "seed_positive",
			Message: fmt.Sprintf("seed must be 1-based, got %d", *t.Seed)}
	}
	return nil
}

// AvoidEdge is an undirected same-event marker that two teams should not
// share a waterfall group. Stored in canonical (TeamIDA < TeamIDB) form.
type AvoidEdge struct {
	ID        string    `json:"id" db:"id"`
	EventID   string    `json:"event_id" db:"event_id"`
	TeamIDA   string    `json:"team_id_a" db:"team_id_a"`
	TeamIDB   string    `json:"team_id_b" db:"team_id_b"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CanonicalPair orders two team ids so the lesser id comes first.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// NewAvoidEdge builds a canonical edge, rejecting self-edges.
func NewAvoidEdge(id, eventID, teamA, teamB string, reason *string) (*AvoidEdge, error) {
	if teamA == teamB {
		return nil, &ValidationError{Entity: "avoid_edge", Field: "team_id_b", Rule: "self_edge",
			Message: fmt.Sprintf("team %s cannot avoid itself", teamA)}
	}
	lo, hi := CanonicalPair(teamA, teamB)
	return &AvoidEdge{
		ID:        id,
		EventID:   eventID,
		TeamIDA:   lo,
		TeamIDB:   hi,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks the canonical form invariants.
func (e *AvoidEdge) Validate() error {
	if e.TeamIDA == e.TeamIDB {
		return &ValidationError{Entity: "avoid_edge", Field: "team_id_b", Rule: "self_edge",
			Message: "self edges are forbidden"}
	}
	if e.TeamIDB < e.TeamIDA {
		return &ValidationError{Entity: "avoid_edge", Field: "team_id_a", Rule: "canonical_order",
			Message: "edge must be stored with team_id_a < team_id_b"}
	}
	return nil
}
