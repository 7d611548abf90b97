// internal/repositories/assignment_repository.go
// Match assignment data access layer

package repositories

import (
	"context"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// AssignmentRepository handles match assignment data access
type AssignmentRepository struct{}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{}
}

// Create inserts a single assignment
func (r *AssignmentRepository) Create(ctx context.Context, q Querier, a *models.Assignment) error {
	query := `
		INSERT INTO match_assignments (id, schedule_version_id, match_id, slot_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		a.ID,
		a.ScheduleVersionID,
		a.MatchID,
		a.SlotID,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// BulkCreate inserts a batch of assignments
func (r *AssignmentRepository) BulkCreate(ctx context.Context, q Querier, assignments []*models.Assignment) error {
	for _, a := range assignments {
		if err := r.Create(ctx, q, a); err != nil {
			return err
		}
	}
	return nil
}

// ListByVersion retrieves all assignments of a version in a stable order
func (r *AssignmentRepository) ListByVersion(ctx context.Context, q Querier, versionID string) ([]*models.Assignment, error) {
	query := `
		SELECT id, schedule_version_id, match_id, slot_id, created_at
		FROM match_assignments
		WHERE schedule_version_id = ?
		ORDER BY slot_id, match_id
	`
	rows, err := q.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		var a models.Assignment
		err := rows.Scan(&a.ID, &a.ScheduleVersionID, &a.MatchID, &a.SlotID, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

// CountByVersion returns the number of assignments in a version
func (r *AssignmentRepository) CountByVersion(ctx context.Context, q Querier, versionID string) (int, error) {
	query := `SELECT COUNT(*) FROM match_assignments WHERE schedule_version_id = ?`
	var count int
	err := q.QueryRowContext(ctx, query, versionID).Scan(&count)
	return count, err
}

// DeleteByVersion removes every assignment of a version
func (r *AssignmentRepository) DeleteByVersion(ctx context.Context, q Querier, versionID string) error {
	query := `DELETE FROM match_assignments WHERE schedule_version_id = ?`
	_, err := q.ExecContext(ctx, query, versionID)
	return err
}
