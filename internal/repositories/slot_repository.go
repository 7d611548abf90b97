// internal/repositories/slot_repository.go
// Schedule slot data access layer

package repositories

import (
	"context"
	"fmt"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// SlotRepository handles schedule slot data access
type SlotRepository struct{}

// NewSlotRepository creates a new slot repository
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

const slotColumns = `
	id, schedule_version_id, day_date, start_time, end_time,
	court_number, court_label, block_minutes, is_active, created_at
`

// Create inserts a single slot
func (r *SlotRepository) Create(ctx context.Context, q Querier, slot *models.Slot) error {
	query := `
		INSERT INTO schedule_slots (` + slotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		slot.ID,
		slot.ScheduleVersionID,
		slot.DayDate,
		slot.StartTime,
		slot.EndTime,
		slot.CourtNumber,
		slot.CourtLabel,
		slot.BlockMinutes,
		slot.IsActive,
		slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

// BulkCreate inserts a batch of slots
func (r *SlotRepository) BulkCreate(ctx context.Context, q Querier, slots []*models.Slot) error {
	for _, slot := range slots {
		if err := r.Create(ctx, q, slot); err != nil {
			return err
		}
	}
	return nil
}

// ListByVersion retrieves all slots of a version in the deterministic read
// order (day_date, start_time, court_number, id)
func (r *SlotRepository) ListByVersion(ctx context.Context, q Querier, versionID string) ([]*models.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE schedule_version_id = ?
		ORDER BY day_date, start_time, court_number, id
	`
	rows, err := q.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]*models.Slot, 0)
	for rows.Next() {
		var s models.Slot
		err := rows.Scan(
			&s.ID, &s.ScheduleVersionID, &s.DayDate, &s.StartTime, &s.EndTime,
			&s.CourtNumber, &s.CourtLabel, &s.BlockMinutes, &s.IsActive, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, &s)
	}
	return slots, rows.Err()
}

// CountByVersion returns the number of slots in a version
func (r *SlotRepository) CountByVersion(ctx context.Context, q Querier, versionID string) (int, error) {
	query := `SELECT COUNT(*) FROM schedule_slots WHERE schedule_version_id = ?`
	var count int
	err := q.QueryRowContext(ctx, query, versionID).Scan(&count)
	return count, err
}

// DeleteByVersion removes every slot of a version
func (r *SlotRepository) DeleteByVersion(ctx context.Context, q Querier, versionID string) error {
	query := `DELETE FROM schedule_slots WHERE schedule_version_id = ?`
	_, err := q.ExecContext(ctx, query, versionID)
	return err
}
