// internal/repositories/version_repository.go
// Schedule version data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// VersionRepository handles schedule version data access
type VersionRepository struct{}

// NewVersionRepository creates a new version repository
func NewVersionRepository() *VersionRepository {
	return &VersionRepository{}
}

const versionColumns = `
	id, tournament_id, version_number, status, notes, created_at,
	finalized_at, finalized_checksum
`

// Create inserts a new schedule version
func (r *VersionRepository) Create(ctx context.Context, q Querier, v *models.ScheduleVersion) error {
	query := `
		INSERT INTO schedule_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		v.ID,
		v.TournamentID,
		v.VersionNumber,
		v.Status,
		v.Notes,
		v.CreatedAt,
		v.FinalizedAt,
		v.FinalizedChecksum,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule version: %w", err)
	}
	return nil
}

func scanVersion(row interface{ Scan(...interface{}) error }) (*models.ScheduleVersion, error) {
	var v models.ScheduleVersion
	err := row.Scan(
		&v.ID, &v.TournamentID, &v.VersionNumber, &v.Status, &v.Notes,
		&v.CreatedAt, &v.FinalizedAt, &v.FinalizedChecksum,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID retrieves a version by ID, nil when absent
func (r *VersionRepository) GetByID(ctx context.Context, q Querier, id string) (*models.ScheduleVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM schedule_versions WHERE id = ?`
	v, err := scanVersion(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// LockForUpdate acquires the row-level exclusive lock serializing mutating
// operations on a version. Must run inside a transaction.
func (r *VersionRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (*models.ScheduleVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM schedule_versions WHERE id = ? FOR UPDATE`
	v, err := scanVersion(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// NextVersionNumber allocates the next monotonic version number for a
// tournament. Must run inside the transaction that inserts the version.
func (r *VersionRepository) NextVersionNumber(ctx context.Context, q Querier, tournamentID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(version_number), 0) + 1
		FROM schedule_versions
		WHERE tournament_id = ?
	`
	var next int
	if err := q.QueryRowContext(ctx, query, tournamentID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// ListByTournament retrieves versions ordered by version number descending
func (r *VersionRepository) ListByTournament(ctx context.Context, q Querier, tournamentID string) ([]*models.ScheduleVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM schedule_versions
		WHERE tournament_id = ?
		ORDER BY version_number DESC
	`
	rows, err := q.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]*models.ScheduleVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Finalize marks a draft version final with its checksum
func (r *VersionRepository) Finalize(ctx context.Context, q Querier, id string, finalizedAt time.Time, checksum string) error {
	query := `
		UPDATE schedule_versions
		SET status = ?, finalized_at = ?, finalized_checksum = ?
		WHERE id = ?
	`
	_, err := q.ExecContext(ctx, query, models.VersionFinal, finalizedAt, checksum, id)
	return err
}
