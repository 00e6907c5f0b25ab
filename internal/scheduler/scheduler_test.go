package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

// 一个小型但包含所有约束类型的排课数据
func newTestCatalog() *domain.Catalog {
	return &domain.Catalog{
		Activities: []domain.Activity{
			{ID: 1, Name: "SLA100", Enrollment: 50, PreferredFacilitatorIDs: []int64{1, 2}, OtherFacilitatorIDs: []int64{3}},
			{ID: 2, Name: "SLA191", Enrollment: 30, PreferredFacilitatorIDs: []int64{2}, OtherFacilitatorIDs: []int64{1, 4}},
			{ID: 3, Name: "SLA303", Enrollment: 60, PreferredFacilitatorIDs: []int64{3}, OtherFacilitatorIDs: []int64{4}},
			{ID: 4, Name: "SLA451", Enrollment: 100, PreferredFacilitatorIDs: []int64{4}, OtherFacilitatorIDs: nil},
		},
		Rooms: []domain.Room{
			{ID: 1, Name: "Slater 003", Capacity: 45},
			{ID: 2, Name: "Loft 206", Capacity: 75},
			{ID: 3, Name: "Logos 325", Capacity: 450},
		},
		TimeSlots: []domain.TimeSlot{
			{ID: 1, Label: "10 AM", Position: 1},
			{ID: 2, Label: "11 AM", Position: 2},
			{ID: 3, Label: "12 PM", Position: 3},
		},
		Facilitators: []domain.Facilitator{
			{ID: 1, Name: "Lock"},
			{ID: 2, Name: "Glen"},
			{ID: 3, Name: "Banks"},
			{ID: 4, Name: "Tyler"},
		},
	}
}

func newTestScheduler(t *testing.T, catalog *domain.Catalog, params Parameters, seed int64) *Scheduler {
	t.Helper()
	s, err := New(&params, catalog, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return s
}

func TestNewRejectsInvalidInput(t *testing.T) {
	valid := Parameters{PopulationSize: 10, MaxGenerations: 10, MutationRate: 0.01}
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name    string
		params  Parameters
		catalog *domain.Catalog
		rng     *rand.Rand
		wantErr error
	}{
		{"zero population", Parameters{PopulationSize: 0, MaxGenerations: 10, MutationRate: 0.01}, newTestCatalog(), rng, ErrInvalidPopulationSize},
		{"negative generations", Parameters{PopulationSize: 10, MaxGenerations: -1, MutationRate: 0.01}, newTestCatalog(), rng, ErrInvalidMaxGenerations},
		{"mutation rate above one", Parameters{PopulationSize: 10, MaxGenerations: 10, MutationRate: 1.5}, newTestCatalog(), rng, ErrInvalidMutationRate},
		{"negative mutation rate", Parameters{PopulationSize: 10, MaxGenerations: 10, MutationRate: -0.1}, newTestCatalog(), rng, ErrInvalidMutationRate},
		{"nil rng", valid, newTestCatalog(), nil, ErrNilRandomSource},
		{"nil catalog", valid, nil, rng, ErrEmptyCatalog},
		{"no activities", valid, &domain.Catalog{Rooms: newTestCatalog().Rooms, TimeSlots: newTestCatalog().TimeSlots, Facilitators: newTestCatalog().Facilitators}, rng, ErrEmptyCatalog},
		{"no rooms", valid, &domain.Catalog{Activities: newTestCatalog().Activities, TimeSlots: newTestCatalog().TimeSlots, Facilitators: newTestCatalog().Facilitators}, rng, ErrEmptyCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.params
			_, err := New(&params, tt.catalog, tt.rng)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRejectsUnknownFacilitator(t *testing.T) {
	catalog := newTestCatalog()
	catalog.Activities[0].PreferredFacilitatorIDs = []int64{99}

	_, err := New(&Parameters{PopulationSize: 10, MaxGenerations: 10}, catalog, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrUnknownFacilitator)
}

func TestScheduleIsDeterministicForSameSeed(t *testing.T) {
	params := Parameters{PopulationSize: 30, MaxGenerations: 20, MutationRate: 0.05}

	r1, err := newTestScheduler(t, newTestCatalog(), params, 42).Schedule(context.Background())
	require.NoError(t, err)
	r2, err := newTestScheduler(t, newTestCatalog(), params, 42).Schedule(context.Background())
	require.NoError(t, err)

	assert.Equal(t, r1.Best, r2.Best)
	assert.Equal(t, r1.FitnessHistory, r2.FitnessHistory)
	assert.Equal(t, r1.Fitness, r2.Fitness)
	assert.Equal(t, r1.Generations, r2.Generations)
	assert.Equal(t, r1.Converged, r2.Converged)
}

func TestScheduleResultCoversEveryActivity(t *testing.T) {
	catalog := newTestCatalog()
	s := newTestScheduler(t, catalog, Parameters{PopulationSize: 20, MaxGenerations: 10, MutationRate: 0.1}, 7)

	res, err := s.Schedule(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(catalog.Activities), res.Best.Len())

	assignments := s.Assignments(res.Best)
	seen := make(map[int64]int)
	for _, a := range assignments {
		seen[a.ActivityID]++
	}
	for _, activity := range catalog.Activities {
		assert.Equal(t, 1, seen[activity.ID], "activity %s", activity.Name)
	}

	assert.GreaterOrEqual(t, res.Fitness, 0.0)
	assert.LessOrEqual(t, res.Fitness, s.MaxFitness())
	assert.NotEmpty(t, res.FitnessHistory)
	assert.LessOrEqual(t, res.Generations, 10)
}

func TestScheduleStopsWhenPopulationStagnates(t *testing.T) {
	// 只有一种可能的排课，每一代的平均适应度都相同
	catalog := &domain.Catalog{
		Activities:   []domain.Activity{{ID: 1, Name: "SLA100", Enrollment: 10, PreferredFacilitatorIDs: []int64{1}}},
		Rooms:        []domain.Room{{ID: 1, Name: "Roman 216", Capacity: 30}},
		TimeSlots:    []domain.TimeSlot{{ID: 1, Label: "10 AM", Position: 1}},
		Facilitators: []domain.Facilitator{{ID: 1, Name: "Glen"}},
	}
	s := newTestScheduler(t, catalog, Parameters{PopulationSize: 10, MaxGenerations: 50, MutationRate: 0.5}, 1)

	res, err := s.Schedule(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Generations)
	assert.Equal(t, []float64{110, 110, 110}, res.FitnessHistory)
	assert.Equal(t, 110.0, res.Fitness)
	assert.Equal(t, 4*10, res.Evaluations)
}

func TestScheduleRunsToGenerationCap(t *testing.T) {
	catalog := &domain.Catalog{
		Activities:   []domain.Activity{{ID: 1, Name: "SLA100", Enrollment: 10, PreferredFacilitatorIDs: []int64{1}}},
		Rooms:        []domain.Room{{ID: 1, Name: "Roman 216", Capacity: 30}},
		TimeSlots:    []domain.TimeSlot{{ID: 1, Label: "10 AM", Position: 1}},
		Facilitators: []domain.Facilitator{{ID: 1, Name: "Glen"}},
	}
	// 最大迭代次数不足 3 代时永远不会触发停滞检测
	s := newTestScheduler(t, catalog, Parameters{PopulationSize: 5, MaxGenerations: 2, MutationRate: 0}, 1)

	res, err := s.Schedule(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Generations)
	assert.Len(t, res.FitnessHistory, 2)
}

func TestScheduleFindsOptimumForToyCatalog(t *testing.T) {
	catalog := &domain.Catalog{
		Activities: []domain.Activity{
			{ID: 1, Name: "A", Enrollment: 20, PreferredFacilitatorIDs: []int64{1}},
			{ID: 2, Name: "B", Enrollment: 20, PreferredFacilitatorIDs: []int64{2}},
		},
		Rooms: []domain.Room{
			{ID: 1, Name: "R1", Capacity: 30},
			{ID: 2, Name: "R2", Capacity: 40},
		},
		TimeSlots: []domain.TimeSlot{
			{ID: 1, Label: "10 AM", Position: 1},
			{ID: 2, Label: "11 AM", Position: 2},
		},
		Facilitators: []domain.Facilitator{
			{ID: 1, Name: "F1"},
			{ID: 2, Name: "F2"},
		},
	}
	s := newTestScheduler(t, catalog, Parameters{PopulationSize: 50, MaxGenerations: 50, MutationRate: 0.01}, 2024)

	res, err := s.Schedule(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120.0, s.MaxFitness())
	assert.InDelta(t, 120.0, res.Fitness, 5.0)
	assert.LessOrEqual(t, res.Generations, 50)
}

func TestScheduleHonorsCancelledContext(t *testing.T) {
	s := newTestScheduler(t, newTestCatalog(), Parameters{PopulationSize: 10, MaxGenerations: 10}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Schedule(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
