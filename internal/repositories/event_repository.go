// internal/repositories/event_repository.go
// Event data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// EventRepository handles event data access
type EventRepository struct{}

// NewEventRepository creates a new event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

const eventColumns = `
	id, tournament_id, name, category, team_count, guarantee_selected,
	draw_status, draw_plan, schedule_profile, standard_minutes,
	waterfall_minutes, created_at, updated_at
`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	var plan models.DrawPlan
	var planRaw sql.NullString
	err := row.Scan(
		&e.ID, &e.TournamentID, &e.Name, &e.Category, &e.TeamCount,
		&e.GuaranteeSelected, &e.DrawStatus, &planRaw, &e.ScheduleProfile,
		&e.StandardMinutes, &e.WaterfallMinutes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if planRaw.Valid {
		if err := plan.Scan([]byte(planRaw.String)); err != nil {
			return nil, fmt.Errorf("failed to decode draw plan: %w", err)
		}
		e.DrawPlan = &plan
	}
	return &e, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, q Querier, event *models.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var plan interface{}
	if event.DrawPlan != nil {
		v, err := event.DrawPlan.Value()
		if err != nil {
			return fmt.Errorf("failed to encode draw plan: %w", err)
		}
		plan = v
	}
	_, err := q.ExecContext(ctx, query,
		event.ID,
		event.TournamentID,
		event.Name,
		event.Category,
		event.TeamCount,
		event.GuaranteeSelected,
		event.DrawStatus,
		plan,
		event.ScheduleProfile,
		event.StandardMinutes,
		event.WaterfallMinutes,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID, nil when absent
func (r *EventRepository) GetByID(ctx context.Context, q Querier, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListByTournament retrieves all events of a tournament in a stable order
func (r *EventRepository) ListByTournament(ctx context.Context, q Querier, tournamentID string) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tournament_id = ? ORDER BY name, id`
	rows, err := q.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateDrawStatus moves the event draw lifecycle forward
func (r *EventRepository) UpdateDrawStatus(ctx context.Context, q Querier, id string, status models.DrawStatus) error {
	query := `UPDATE events SET draw_status = ?, updated_at = NOW() WHERE id = ?`
	_, err := q.ExecContext(ctx, query, status, id)
	return err
}

// UpdateDrawPlan replaces the event's draw plan document
func (r *EventRepository) UpdateDrawPlan(ctx context.Context, q Querier, id string, plan *models.DrawPlan) error {
	v, err := plan.Value()
	if err != nil {
		return fmt.Errorf("failed to encode draw plan: %w", err)
	}
	query := `UPDATE events SET draw_plan = ?, updated_at = NOW() WHERE id = ?`
	_, err = q.ExecContext(ctx, query, v, id)
	return err
}
