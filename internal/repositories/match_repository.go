// internal/repositories/match_repository.go
// Match data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// MatchRepository handles match data access
type MatchRepository struct{}

// NewMatchRepository creates a new match repository
func NewMatchRepository() *MatchRepository {
	return &MatchRepository{}
}

const matchColumns = `
	id, event_id, schedule_version_id, match_code, match_type, round_index,
	sequence_in_round, duration_minutes, consolation_tier, placement_type,
	team_a_id, team_b_id, placeholder_side_a, placeholder_side_b,
	preferred_day, status, created_at, updated_at
`

// Create inserts a single match
func (r *MatchRepository) Create(ctx context.Context, q Querier, m *models.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		m.ID,
		m.EventID,
		m.ScheduleVersionID,
		m.MatchCode,
		m.MatchType,
		m.RoundIndex,
		m.SequenceInRound,
		m.DurationMinutes,
		m.ConsolationTier,
		m.PlacementType,
		m.TeamAID,
		m.TeamBID,
		m.PlaceholderSideA,
		m.PlaceholderSideB,
		m.PreferredDay,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", m.MatchCode, err)
	}
	return nil
}

// BulkCreate inserts a batch of matches
func (r *MatchRepository) BulkCreate(ctx context.Context, q Querier, matches []*models.Match) error {
	for _, m := range matches {
		if err := r.Create(ctx, q, m); err != nil {
			return err
		}
	}
	return nil
}

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.EventID, &m.ScheduleVersionID, &m.MatchCode, &m.MatchType,
		&m.RoundIndex, &m.SequenceInRound, &m.DurationMinutes, &m.ConsolationTier,
		&m.PlacementType, &m.TeamAID, &m.TeamBID, &m.PlaceholderSideA,
		&m.PlaceholderSideB, &m.PreferredDay, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID retrieves a match by ID, nil when absent
func (r *MatchRepository) GetByID(ctx context.Context, q Querier, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *MatchRepository) list(ctx context.Context, q Querier, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListByVersion retrieves all matches bound to a version
func (r *MatchRepository) ListByVersion(ctx context.Context, q Querier, versionID string) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE schedule_version_id = ?
		ORDER BY event_id, match_type, round_index, sequence_in_round, match_code
	`
	return r.list(ctx, q, query, versionID)
}

// ListByEventAndVersion retrieves an event's matches within a version
func (r *MatchRepository) ListByEventAndVersion(ctx context.Context, q Querier, eventID, versionID string) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE event_id = ? AND schedule_version_id = ?
		ORDER BY match_type, round_index, sequence_in_round, match_code
	`
	return r.list(ctx, q, query, eventID, versionID)
}

// CountByVersion returns the number of matches bound to a version
func (r *MatchRepository) CountByVersion(ctx context.Context, q Querier, versionID string) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE schedule_version_id = ?`
	var count int
	err := q.QueryRowContext(ctx, query, versionID).Scan(&count)
	return count, err
}

// DeleteByEventAndVersion wipes an event's matches within a version
func (r *MatchRepository) DeleteByEventAndVersion(ctx context.Context, q Querier, eventID, versionID string) error {
	query := `DELETE FROM matches WHERE event_id = ? AND schedule_version_id = ?`
	_, err := q.ExecContext(ctx, query, eventID, versionID)
	return err
}

// DeleteByVersion wipes every match bound to a version
func (r *MatchRepository) DeleteByVersion(ctx context.Context, q Querier, versionID string) error {
	query := `DELETE FROM matches WHERE schedule_version_id = ?`
	_, err := q.ExecContext(ctx, query, versionID)
	return err
}

// SetTeams updates the injected team ids of a match
func (r *MatchRepository) SetTeams(ctx context.Context, q Querier, matchID string, teamA, teamB *string) error {
	query := `UPDATE matches SET team_a_id = ?, team_b_id = ?, updated_at = NOW() WHERE id = ?`
	_, err := q.ExecContext(ctx, query, teamA, teamB, matchID)
	return err
}

// ClearInjections nulls the team ids on an event's matches within a version
func (r *MatchRepository) ClearInjections(ctx context.Context, q Querier, eventID, versionID string) error {
	query := `
		UPDATE matches SET team_a_id = NULL, team_b_id = NULL, updated_at = NOW()
		WHERE event_id = ? AND schedule_version_id = ?
	`
	_, err := q.ExecContext(ctx, query, eventID, versionID)
	return err
}

// UpdateStatus sets the schedule status of a match
func (r *MatchRepository) UpdateStatus(ctx context.Context, q Querier, matchID string, status models.MatchScheduleStatus) error {
	query := `UPDATE matches SET status = ?, updated_at = NOW() WHERE id = ?`
	_, err := q.ExecContext(ctx, query, status, matchID)
	return err
}

// ResetStatuses marks every match of a version unscheduled
func (r *MatchRepository) ResetStatuses(ctx context.Context, q Querier, versionID string) error {
	query := `UPDATE matches SET status = ?, updated_at = NOW() WHERE schedule_version_id = ?`
	_, err := q.ExecContext(ctx, query, models.MatchUnscheduled, versionID)
	return err
}
