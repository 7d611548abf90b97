// internal/repositories/team_repository.go
// Team data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// TeamRepository handles team data access
type TeamRepository struct{}

// NewTeamRepository creates a new team repository
func NewTeamRepository() *TeamRepository {
	return &TeamRepository{}
}

const teamColumns = `
	id, event_id, name, seed, rating, registered_at, wf_group_index,
	created_at, updated_at
`

// Create inserts a new team
func (r *TeamRepository) Create(ctx context.Context, q Querier, team *models.Team) error {
	query := `
		INSERT INTO teams (` + teamColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		team.ID,
		team.EventID,
		team.Name,
		team.Seed,
		team.Rating,
		team.RegisteredAt,
		team.WFGroupIndex,
		team.CreatedAt,
		team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by ID, nil when absent
func (r *TeamRepository) GetByID(ctx context.Context, q Querier, id string) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ?`
	var t models.Team
	err := q.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.EventID, &t.Name, &t.Seed, &t.Rating,
		&t.RegisteredAt, &t.WFGroupIndex, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByEvent retrieves all teams of an event in a stable order
func (r *TeamRepository) ListByEvent(ctx context.Context, q Querier, eventID string) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE event_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.Seed, &t.Rating,
			&t.RegisteredAt, &t.WFGroupIndex, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// UpdateWFGroupIndex persists the waterfall group assignment of one team
func (r *TeamRepository) UpdateWFGroupIndex(ctx context.Context, q Querier, teamID string, groupIndex int) error {
	query := `UPDATE teams SET wf_group_index = ?, updated_at = NOW() WHERE id = ?`
	_, err := q.ExecContext(ctx, query, groupIndex, teamID)
	return err
}

// ClearWFGroups resets the group assignments of an event's teams
func (r *TeamRepository) ClearWFGroups(ctx context.Context, q Querier, eventID string) error {
	query := `UPDATE teams SET wf_group_index = NULL, updated_at = NOW() WHERE event_id = ?`
	_, err := q.ExecContext(ctx, query, eventID)
	return err
}
