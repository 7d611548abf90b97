// internal/models/tournament.go
// Tournament and tournament day models

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Tournament is the top-level container for events and schedule versions.
type Tournament struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Days      []TournamentDay `json:"days,omitempty"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// TournamentDay is one playable day with a time window and court count.
// Date is stored as "2006-01-02"; StartTime/EndTime as "15:04".
type TournamentDay struct {
	ID              string      `json:"id" db:"id"`
	TournamentID    string      `json:"tournament_id" db:"tournament_id"`
	Date            string      `json:"date" db:"date"`
	StartTime       string      `json:"start_time" db:"start_time"`
	EndTime         string      `json:"end_time" db:"end_time"`
	CourtsAvailable int         `json:"courts_available" db:"courts_available"`
	CourtLabels     CourtLabels `json:"court_labels,omitempty" db:"court_labels"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// CourtLabels holds optional per-court display labels, stored as JSON.
type CourtLabels []string

func (l *CourtLabels) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into CourtLabels", value)
	}
	return json.Unmarshal(bytes, l)
}

func (l CourtLabels) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// LabelForCourt returns the display label for a 1-based court number.
func (d *TournamentDay) LabelForCourt(courtNumber int) string {
	if courtNumber >= 1 && courtNumber <= len(d.CourtLabels) {
		return d.CourtLabels[courtNumber-1]
	}
	return fmt.Sprintf("Court %d", courtNumber)
}

// Validate checks the day invariants: end after start, at least one court.
func (d *TournamentDay) Validate() error {
	startMin, err := ParseClock(d.StartTime)
	if err != nil {
		return &ValidationError{Entity: "tournament_day", Field: "start_time", Rule: "clock_format", Message: err.Error()}
	}
	endMin, err := ParseClock(d.EndTime)
	if err != nil {
		return &ValidationError{Entity: "tournament_day", Field: "end_time", Rule: "clock_format", Message: err.Error()}
	}
	if endMin <= startMin {
		return &ValidationError{Entity: "tournament_day", Field: "end_time", Rule: "end_after_start",
			Message: fmt.Sprintf("day %s ends at %s which is not after %s", d.Date, d.EndTime, d.StartTime)}
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return &ValidationError{Entity: "tournament_day", Field: "date", Rule: "date_format", Message: err.Error()}
	}
	if d.IsActive && d.CourtsAvailable < 1 {
		return &ValidationError{Entity: "tournament_day", Field: "courts_available", Rule: "min_courts",
			Message: fmt.Sprintf("active day %s has %d courts, need at least 1", d.Date, d.CourtsAvailable)}
	}
	return nil
}

// Validate checks the tournament invariants including all of its days.
func (t *Tournament) Validate() error {
	if t.Name == "" {
		return &ValidationError{Entity: "tournament", Field: "name", Rule: "required", Message: "tournament name is required"}
	}
	for i := range t.Days {
		if err := t.Days[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
