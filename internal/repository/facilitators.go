package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (r *Repository) CreateFacilitator(f *domain.Facilitator) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO facilitators (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, f.Name, f.Email).Scan(&f.ID, &f.CreatedAt, &f.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllFacilitators() ([]*domain.Facilitator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, email, created_at, version FROM facilitators ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facilitators := make([]*domain.Facilitator, 0)
	for rows.Next() {
		f := &domain.Facilitator{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.CreatedAt, &f.Version); err != nil {
			return nil, err
		}
		facilitators = append(facilitators, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return facilitators, nil
}

func (r *Repository) DeleteFacilitator(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM facilitators WHERE id = $1
	`

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return checkRowsAffected(res)
}
