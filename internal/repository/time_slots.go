package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (r *Repository) CreateTimeSlot(ts *domain.TimeSlot) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO time_slots (label, position)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, ts.Label, ts.Position).Scan(&ts.ID, &ts.CreatedAt, &ts.Version); err != nil {
		return err
	}

	return nil
}

// GetAllTimeSlots 按 position 升序返回
func (r *Repository) GetAllTimeSlots() ([]*domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, label, position, created_at, version FROM time_slots ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	timeSlots := make([]*domain.TimeSlot, 0)
	for rows.Next() {
		ts := &domain.TimeSlot{}
		if err := rows.Scan(&ts.ID, &ts.Label, &ts.Position, &ts.CreatedAt, &ts.Version); err != nil {
			return nil, err
		}
		timeSlots = append(timeSlots, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return timeSlots, nil
}

func (r *Repository) DeleteTimeSlot(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM time_slots WHERE id = $1
	`

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return checkRowsAffected(res)
}
