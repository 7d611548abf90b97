// internal/repositories/avoid_edge_repository.go
// Avoid-edge data access layer

package repositories

import (
	"context"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// AvoidEdgeRepository handles avoid-edge data access
type AvoidEdgeRepository struct{}

// NewAvoidEdgeRepository creates a new avoid-edge repository
func NewAvoidEdgeRepository() *AvoidEdgeRepository {
	return &AvoidEdgeRepository{}
}

// Create inserts a canonical edge
func (r *AvoidEdgeRepository) Create(ctx context.Context, q Querier, edge *models.AvoidEdge) error {
	query := `
		INSERT INTO team_avoid_edges (id, event_id, team_id_a, team_id_b, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		edge.ID,
		edge.EventID,
		edge.TeamIDA,
		edge.TeamIDB,
		edge.Reason,
		edge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create avoid edge: %w", err)
	}
	return nil
}

// ListByEvent retrieves all edges of an event in canonical order
func (r *AvoidEdgeRepository) ListByEvent(ctx context.Context, q Querier, eventID string) ([]*models.AvoidEdge, error) {
	query := `
		SELECT id, event_id, team_id_a, team_id_b, reason, created_at
		FROM team_avoid_edges
		WHERE event_id = ?
		ORDER BY team_id_a, team_id_b
	`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := make([]*models.AvoidEdge, 0)
	for rows.Next() {
		var e models.AvoidEdge
		err := rows.Scan(&e.ID, &e.EventID, &e.TeamIDA, &e.TeamIDB, &e.Reason, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// DeleteByEvent removes all edges of an event
func (r *AvoidEdgeRepository) DeleteByEvent(ctx context.Context, q Querier, eventID string) error {
	query := `DELETE FROM team_avoid_edges WHERE event_id = ?`
	_, err := q.ExecContext(ctx, query, eventID)
	return err
}
