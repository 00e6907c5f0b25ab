package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (r *Repository) CreateActivity(activity *domain.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO activities (name, enrollment)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, activity.Name, activity.Enrollment).Scan(&activity.ID, &activity.CreatedAt, &activity.Version); err != nil {
		return err
	}

	insertAffinity := func(facilitatorID int64, affinity domain.Affinity) error {
		query := `
			INSERT INTO activity_facilitators (activity_id, facilitator_id, affinity)
			VALUES ($1, $2, $3)
		`
		_, err := tx.ExecContext(ctx, query, activity.ID, facilitatorID, string(affinity))
		return err
	}

	for _, id := range activity.PreferredFacilitatorIDs {
		if err := insertAffinity(id, domain.AffinityPreferred); err != nil {
			return err
		}
	}
	for _, id := range activity.OtherFacilitatorIDs {
		if err := insertAffinity(id, domain.AffinityOther); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetAllActivities 按 id 升序返回，同时组装每个活动的首选与备选负责人
func (r *Repository) GetAllActivities() ([]*domain.Activity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			a.id,
			a.name,
			a.enrollment,
			a.created_at,
			a.version,
			af.facilitator_id,
			af.affinity
		FROM activities a
		LEFT JOIN activity_facilitators af ON a.id = af.activity_id
		ORDER BY a.id, af.facilitator_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*domain.Activity, 0)
	activitiesMap := make(map[int64]*domain.Activity)

	for rows.Next() {
		var row struct {
			ID         int64
			Name       string
			Enrollment int32
			CreatedAt  time.Time
			Version    int32

			FacilitatorID sql.NullInt64
			Affinity      sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Enrollment,
			&row.CreatedAt,
			&row.Version,
			&row.FacilitatorID,
			&row.Affinity,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		activity, exists := activitiesMap[row.ID]
		if !exists {
			// 第一次查到这个活动
			activity = &domain.Activity{
				ID:                      row.ID,
				Name:                    row.Name,
				Enrollment:              row.Enrollment,
				PreferredFacilitatorIDs: make([]int64, 0),
				OtherFacilitatorIDs:     make([]int64, 0),
				CreatedAt:               row.CreatedAt,
				Version:                 row.Version,
			}
			activitiesMap[row.ID] = activity
			activities = append(activities, activity)
		}

		// 没有任何负责人的活动
		if !row.FacilitatorID.Valid {
			continue
		}

		switch domain.Affinity(row.Affinity.String) {
		case domain.AffinityPreferred:
			activity.PreferredFacilitatorIDs = append(activity.PreferredFacilitatorIDs, row.FacilitatorID.Int64)
		case domain.AffinityOther:
			activity.OtherFacilitatorIDs = append(activity.OtherFacilitatorIDs, row.FacilitatorID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *Repository) DeleteActivity(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM activities WHERE id = $1
	`

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return checkRowsAffected(res)
}
