package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

const (
	// 平均适应度的相对提升低于该阈值时认为种群已经停滞
	stagnationThreshold = 0.01
	// 防止上一代平均适应度为 0 时除零
	improvementEpsilon = 1e-6
	// 从第 minGenerationsBeforeCheck 代（下标）开始才检查是否停滞
	minGenerationsBeforeCheck = 2
)

type Scheduler struct {
	parameters Parameters
	rng        *rand.Rand
	logger     *slog.Logger

	// 以下切片均按 catalog 中的顺序存放，下标即为基因中的取值
	activityIDs    []int64
	roomIDs        []int64
	timeSlotIDs    []int64
	facilitatorIDs []int64
	enrollments    []int32
	capacities     []int32
	affinities     [][]domain.Affinity // [活动下标][负责人下标]
}

func New(parameters *Parameters, catalog *domain.Catalog, rng *rand.Rand) (*Scheduler, error) {
	if parameters == nil {
		return nil, fmt.Errorf("遗传算法参数不能为空")
	}
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrNilRandomSource
	}
	if catalog == nil || len(catalog.Activities) == 0 || len(catalog.Rooms) == 0 || len(catalog.TimeSlots) == 0 || len(catalog.Facilitators) == 0 {
		return nil, ErrEmptyCatalog
	}

	s := &Scheduler{
		parameters:     *parameters,
		rng:            rng,
		logger:         slog.Default(),
		activityIDs:    make([]int64, len(catalog.Activities)),
		roomIDs:        make([]int64, len(catalog.Rooms)),
		timeSlotIDs:    make([]int64, len(catalog.TimeSlots)),
		facilitatorIDs: make([]int64, len(catalog.Facilitators)),
		enrollments:    make([]int32, len(catalog.Activities)),
		capacities:     make([]int32, len(catalog.Rooms)),
		affinities:     make([][]domain.Affinity, len(catalog.Activities)),
	}

	for i, room := range catalog.Rooms {
		s.roomIDs[i] = room.ID
		s.capacities[i] = room.Capacity
	}
	for i, slot := range catalog.TimeSlots {
		s.timeSlotIDs[i] = slot.ID
	}

	facilitatorIndex := make(map[int64]int, len(catalog.Facilitators))
	for i, facilitator := range catalog.Facilitators {
		s.facilitatorIDs[i] = facilitator.ID
		facilitatorIndex[facilitator.ID] = i
	}

	for i, activity := range catalog.Activities {
		s.activityIDs[i] = activity.ID
		s.enrollments[i] = activity.Enrollment

		affinity := make([]domain.Affinity, len(catalog.Facilitators))
		for j := range affinity {
			affinity[j] = domain.AffinityUnqualified
		}

		// 先处理 other 再处理 preferred，这样同时出现在两个集合中的负责人按 preferred 计分
		for _, id := range activity.OtherFacilitatorIDs {
			idx, exists := facilitatorIndex[id]
			if !exists {
				return nil, fmt.Errorf("%w：活动 %s 引用了负责人 %d", ErrUnknownFacilitator, activity.Name, id)
			}
			affinity[idx] = domain.AffinityOther
		}
		for _, id := range activity.PreferredFacilitatorIDs {
			idx, exists := facilitatorIndex[id]
			if !exists {
				return nil, fmt.Errorf("%w：活动 %s 引用了负责人 %d", ErrUnknownFacilitator, activity.Name, id)
			}
			affinity[idx] = domain.AffinityPreferred
		}

		s.affinities[i] = affinity
	}

	return s, nil
}

// WithLogger 替换默认的 logger
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Scheduler) Schedule(ctx context.Context) (*Result, error) {
	start := time.Now()
	popSize := int(s.parameters.PopulationSize)
	maxGenerations := int(s.parameters.MaxGenerations)

	// 生成初始种群
	pop := make([]Schedule, popSize)
	for i := range pop {
		pop[i] = s.randomSchedule()
	}

	scores := make([]float64, popSize)
	history := make([]float64, 0, maxGenerations)
	evaluations := 0
	converged := false

	generation := 0
	for generation < maxGenerations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 评估
		sum := 0.0
		for i := range pop {
			scores[i] = s.calcFitness(pop[i])
			sum += scores[i]
		}
		evaluations += popSize

		mean := sum / float64(popSize)
		history = append(history, mean)
		s.logger.Debug("完成一代评估", "generation", generation, "mean", mean, "best", slices.Max(scores))

		// 停滞检测
		if generation >= minGenerationsBeforeCheck {
			prev := history[len(history)-2]
			improvement := (mean - prev) / (prev + improvementEpsilon)
			if improvement < stagnationThreshold {
				converged = true
				break
			}
		}

		// 繁殖，整代替换，不保留精英
		weights, total := softmaxWeights(scores)
		newPop := make([]Schedule, popSize)
		for i := range newPop {
			p1 := s.selectBySoftmax(weights, total)
			p2 := s.selectBySoftmax(weights, total)

			child := s.uniformCrossover(pop[p1], pop[p2])
			s.mutate(child)

			newPop[i] = child
		}

		pop = newPop
		generation++
	}

	// 找到最终种群中的最佳排课，相同适应度时取第一个
	bestIndex := 0
	bestFitness := s.calcFitness(pop[0])
	for i := 1; i < popSize; i++ {
		fitness := s.calcFitness(pop[i])
		if fitness > bestFitness {
			bestFitness = fitness
			bestIndex = i
		}
	}
	evaluations += popSize

	result := &Result{
		Best:           pop[bestIndex],
		Fitness:        bestFitness,
		FitnessHistory: history,
		Generations:    generation,
		Converged:      converged,
		Evaluations:    evaluations,
		Duration:       time.Since(start),
	}

	s.logger.Info("排课完成",
		slog.Int("generations", result.Generations),
		slog.Bool("converged", result.Converged),
		slog.Float64("fitness", result.Fitness),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// Assignments 将排课表翻译成以 ID 表示的分配结果，顺序与 catalog 中的活动一致
func (s *Scheduler) Assignments(schedule Schedule) []domain.Assignment {
	assignments := make([]domain.Assignment, len(schedule.genes))
	for i, g := range schedule.genes {
		assignments[i] = domain.Assignment{
			ActivityID:    s.activityIDs[i],
			RoomID:        s.roomIDs[g.room],
			TimeSlotID:    s.timeSlotIDs[g.timeSlot],
			FacilitatorID: s.facilitatorIDs[g.facilitator],
		}
	}
	return assignments
}

// MaxFitness 是不考虑任何惩罚时的理论上界
func (s *Scheduler) MaxFitness() float64 {
	return baseFitness + preferredBonus*float64(len(s.activityIDs))
}
