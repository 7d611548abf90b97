// internal/repositories/tournament_repository.go
// Tournament and tournament day data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// TournamentRepository handles tournament data access
type TournamentRepository struct{}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{}
}

// Create inserts a new tournament and its days
func (r *TournamentRepository) Create(ctx context.Context, q Querier, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query,
		tournament.ID,
		tournament.Name,
		tournament.CreatedAt,
		tournament.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}

	for i := range tournament.Days {
		if err := r.CreateDay(ctx, q, &tournament.Days[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateDay inserts a single tournament day
func (r *TournamentRepository) CreateDay(ctx context.Context, q Querier, day *models.TournamentDay) error {
	query := `
		INSERT INTO tournament_days (
			id, tournament_id, date, start_time, end_time,
			courts_available, court_labels, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		day.ID,
		day.TournamentID,
		day.Date,
		day.StartTime,
		day.EndTime,
		day.CourtsAvailable,
		day.CourtLabels,
		day.IsActive,
		day.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tournament day: %w", err)
	}
	return nil
}

// GetByID retrieves a tournament with its days, ordered by date
func (r *TournamentRepository) GetByID(ctx context.Context, q Querier, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM tournaments
		WHERE id = ?
	`
	var t models.Tournament
	err := q.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	days, err := r.ListDays(ctx, q, id)
	if err != nil {
		return nil, err
	}
	t.Days = days
	return &t, nil
}

// ListDays retrieves the days of a tournament ordered by date
func (r *TournamentRepository) ListDays(ctx context.Context, q Querier, tournamentID string) ([]models.TournamentDay, error) {
	query := `
		SELECT id, tournament_id, date, start_time, end_time,
			courts_available, court_labels, is_active, created_at
		FROM tournament_days
		WHERE tournament_id = ?
		ORDER BY date
	`
	rows, err := q.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]models.TournamentDay, 0)
	for rows.Next() {
		var d models.TournamentDay
		err := rows.Scan(
			&d.ID, &d.TournamentID, &d.Date, &d.StartTime, &d.EndTime,
			&d.CourtsAvailable, &d.CourtLabels, &d.IsActive, &d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// List retrieves all tournaments ordered by creation time
func (r *TournamentRepository) List(ctx context.Context, q Querier) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM tournaments
		ORDER BY created_at DESC
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}
