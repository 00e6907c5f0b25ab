package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (r *Repository) InsertSchedulingResult(result *domain.SchedulingResult) error {
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
		INSERT INTO scheduling_results (population_size, max_generations, mutation_rate, seed, generations, converged, fitness)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`
	args := []any{
		result.PopulationSize,
		result.MaxGenerations,
		result.MutationRate,
		result.Seed,
		result.Generations,
		result.Converged,
		result.Fitness,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&result.ID, &result.CreatedAt, &result.Version); err != nil {
		return err
	}

	for i, assignment := range result.Assignments {
		query := `
			INSERT INTO scheduling_result_assignments (scheduling_result_id, activity_id, room_id, time_slot_id, facilitator_id, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		args := []any{result.ID, assignment.ActivityID, assignment.RoomID, assignment.TimeSlotID, assignment.FacilitatorID, i}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	for generation, mean := range result.FitnessHistory {
		query := `
			INSERT INTO scheduling_result_fitness_history (scheduling_result_id, generation, mean_fitness)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, result.ID, generation, mean); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSchedulingResultByID(id int64) (*domain.SchedulingResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result := &domain.SchedulingResult{
		ID:             id,
		Assignments:    make([]domain.Assignment, 0),
		FitnessHistory: make([]float64, 0),
	}

	query := `
		SELECT population_size, max_generations, mutation_rate, seed, generations, converged, fitness, created_at, version
		FROM scheduling_results WHERE id = $1
	`
	dst := []any{
		&result.PopulationSize,
		&result.MaxGenerations,
		&result.MutationRate,
		&result.Seed,
		&result.Generations,
		&result.Converged,
		&result.Fitness,
		&result.CreatedAt,
		&result.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	// 分配结果
	query = `
		SELECT activity_id, room_id, time_slot_id, facilitator_id
		FROM scheduling_result_assignments
		WHERE scheduling_result_id = $1
		ORDER BY position
	`
	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ActivityID, &a.RoomID, &a.TimeSlotID, &a.FacilitatorID); err != nil {
			return nil, err
		}
		result.Assignments = append(result.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 适应度历史
	query = `
		SELECT mean_fitness
		FROM scheduling_result_fitness_history
		WHERE scheduling_result_id = $1
		ORDER BY generation
	`
	historyRows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer historyRows.Close()

	for historyRows.Next() {
		var mean float64
		if err := historyRows.Scan(&mean); err != nil {
			return nil, err
		}
		result.FitnessHistory = append(result.FitnessHistory, mean)
	}
	if err := historyRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetLatestSchedulingResultID 没有任何排课结果时返回 sql.ErrNoRows
func (r *Repository) GetLatestSchedulingResultID() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id FROM scheduling_results ORDER BY created_at DESC, id DESC LIMIT 1
	`

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// GetAllSchedulingResults 只返回元数据，不包含分配结果和适应度历史
func (r *Repository) GetAllSchedulingResults() ([]*domain.SchedulingResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, population_size, max_generations, mutation_rate, seed, generations, converged, fitness, created_at, version
		FROM scheduling_results
		ORDER BY id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.SchedulingResult, 0)
	for rows.Next() {
		result := &domain.SchedulingResult{}
		dst := []any{
			&result.ID,
			&result.PopulationSize,
			&result.MaxGenerations,
			&result.MutationRate,
			&result.Seed,
			&result.Generations,
			&result.Converged,
			&result.Fitness,
			&result.CreatedAt,
			&result.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

