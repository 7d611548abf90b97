// internal/models/event.go
// Event and draw plan models

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Event is a competitive division within a tournament. Teams and avoid-edges
// hang off the event; matches are generated per schedule version.
type Event struct {
	ID                string     `json:"id" db:"id"`
	TournamentID      string     `json:"tournament_id" db:"tournament_id"`
	Name              string     `json:"name" db:"name"`
	Category          string     `json:"category" db:"category"`
	TeamCount         int        `json:"team_count" db:"team_count"`
	GuaranteeSelected int        `json:"guarantee_selected" db:"guarantee_selected"`
	DrawStatus        DrawStatus `json:"draw_status" db:"draw_status"`
	DrawPlan          *DrawPlan  `json:"draw_plan,omitempty" db:"draw_plan"`
	ScheduleProfile   string     `json:"schedule_profile" db:"schedule_profile"`
	StandardMinutes   int        `json:"standard_minutes" db:"standard_minutes"`
	WaterfallMinutes  int        `json:"waterfall_minutes" db:"waterfall_minutes"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// DrawStatus tracks the draw plan lifecycle of an event.
type DrawStatus string

const (
	DrawNotStarted DrawStatus = "not_started"
	DrawDraft      DrawStatus = "draft"
	DrawFinal      DrawStatus = "final"
)

// TemplateType is the closed set of draw plan templates.
type TemplateType string

const (
	TemplateRROnly           TemplateType = "RR_ONLY"
	TemplateWFToPoolsDynamic TemplateType = "WF_TO_POOLS_DYNAMIC"
	TemplateWFToBrackets8    TemplateType = "WF_TO_BRACKETS_8"
	// Legacy templates, still accepted on input.
	TemplateWFToPools4 TemplateType = "WF_TO_POOLS_4"
	TemplateCanonical32 TemplateType = "CANONICAL_32"
)

// KnownTemplate reports whether t is one of the accepted template types.
func KnownTemplate(t TemplateType) bool {
	switch t {
	case TemplateRROnly, TemplateWFToPoolsDynamic, TemplateWFToBrackets8, TemplateWFToPools4, TemplateCanonical32:
		return true
	}
	return false
}

// DrawPlan is the event-scoped plan document, stored as a JSON column.
type DrawPlan struct {
	TemplateType   TemplateType `json:"template_type"`
	WFRounds       int          `json:"wf_rounds"`
	PostWF         string       `json:"post_wf,omitempty"`
	PoolAssignment string       `json:"pool_assignment,omitempty"`
	Timing         PlanTiming   `json:"timing"`
	CadenceHint    string       `json:"cadence_hint,omitempty"`
}

// PlanTiming carries the per-stage match durations in minutes.
type PlanTiming struct {
	WFBlockMinutes       int `json:"wf_block_minutes"`
	StandardBlockMinutes int `json:"standard_block_minutes"`
}

func (p *DrawPlan) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into DrawPlan", value)
	}
	return json.Unmarshal(bytes, p)
}

func (p DrawPlan) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Allowed match durations in minutes.
var AllowedDurations = []int{60, 90, 105, 120}

// AllowedDuration reports whether minutes is one of the permitted durations.
func AllowedDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if minutes == d {
			return true
		}
	}
	return false
}

// WaterfallBlockMinutes resolves the WF match duration, preferring plan timing
// over the event column, falling back to 60.
func (e *Event) WaterfallBlockMinutes() int {
	if e.DrawPlan != nil && e.DrawPlan.Timing.WFBlockMinutes > 0 {
		return e.DrawPlan.Timing.WFBlockMinutes
	}
	if e.WaterfallMinutes > 0 {
		return e.WaterfallMinutes
	}
	return 60
}

// StandardBlockMinutes resolves the non-WF match duration, preferring plan
// timing over the event column, falling back to 90.
func (e *Event) StandardBlockMinutes() int {
	if e.DrawPlan != nil && e.DrawPlan.Timing.StandardBlockMinutes > 0 {
		return e.DrawPlan.Timing.StandardBlockMinutes
	}
	if e.StandardMinutes > 0 {
		return e.StandardMinutes
	}
	return 90
}

// HasWaterfall reports whether the event's plan emits WF matches.
func (e *Event) HasWaterfall() bool {
	if e.DrawPlan == nil {
		return false
	}
	switch e.DrawPlan.TemplateType {
	case TemplateWFToPoolsDynamic, TemplateWFToPools4, TemplateWFToBrackets8:
		return e.DrawPlan.WFRounds > 0
	}
	return false
}

// Validate checks structural event invariants. Template/team-count
// compatibility is the plan validator's job.
func (e *Event) Validate() error {
	if e.Name == "" {
		return &ValidationError{Entity: "event", Field: "name", Rule: "required", Message: "event name is required"}
	}
	if e.TeamCount < 1 {
		return &ValidationError{Entity: "event", Field: "team_count", Rule: "positive",
			Message: fmt.Sprintf("team_count must be positive, got %d", e.TeamCount)}
	}
	if e.GuaranteeSelected != 4 && e.GuaranteeSelected != 5 {
		return &ValidationError{Entity: "event", Field: "guarantee_selected", Rule: "guarantee_choice",
			Message: fmt.Sprintf("guarantee_selected must be 4 or 5, got %d", e.GuaranteeSelected)}
	}
	switch e.DrawStatus {
	case DrawNotStarted, DrawDraft, DrawFinal:
	default:
		return &ValidationError{Entity: "event", Field: "draw_status", Rule: "enum",
			Message: fmt.Sprintf("unknown draw_status %q", e.DrawStatus)}
	}
	if e.DrawPlan != nil && !KnownTemplate(e.DrawPlan.TemplateType) {
		return &ValidationError{Entity: "event", Field: "draw_plan.template_type", Rule: "enum",
			Message: fmt.Sprintf("unknown template_type %q", e.DrawPlan.TemplateType)}
	}
	return nil
}
