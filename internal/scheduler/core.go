package scheduler

import (
	"math"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

const (
	baseFitness                = 100.0
	capacityPenalty            = 5.0
	facilitatorConflictPenalty = 10.0
	roomConflictPenalty        = 5.0
	preferredBonus             = 10.0
	otherBonus                 = 3.0
	unqualifiedPenalty         = 1.0

	crossoverBias = 0.5
)

// randomGene 依次随机选出教室、时间段和负责人，三者之间相互独立
func (s *Scheduler) randomGene() gene {
	return gene{
		room:        s.rng.Intn(len(s.roomIDs)),
		timeSlot:    s.rng.Intn(len(s.timeSlotIDs)),
		facilitator: s.rng.Intn(len(s.facilitatorIDs)),
	}
}

// randomSchedule 随机初始化一个染色体
func (s *Scheduler) randomSchedule() Schedule {
	genes := make([]gene, len(s.activityIDs))
	for i := range genes {
		genes[i] = s.randomGene()
	}
	return Schedule{genes: genes}
}

/**
 * 计算排课表的适应度
 * fitness = 100 - 容量惩罚 - 负责人冲突惩罚 - 教室冲突惩罚 + 负责人匹配度
 * 其中冲突按活动顺序扫描：同一时间段内某个负责人（教室）第一次出现不扣分，之后每重复出现一次扣一次分
 * 结果不小于 0
 */
func (s *Scheduler) calcFitness(sch Schedule) float64 {
	numRooms := len(s.roomIDs)
	numFacilitators := len(s.facilitatorIDs)

	// [时间段][负责人] 和 [时间段][教室] 是否已经被占用
	facilitatorUsed := make([]bool, len(s.timeSlotIDs)*numFacilitators)
	roomUsed := make([]bool, len(s.timeSlotIDs)*numRooms)

	score := baseFitness
	for i, g := range sch.genes {
		if s.enrollments[i] > s.capacities[g.room] {
			score -= capacityPenalty
		}

		if fk := g.timeSlot*numFacilitators + g.facilitator; facilitatorUsed[fk] {
			score -= facilitatorConflictPenalty
		} else {
			facilitatorUsed[fk] = true
		}

		if rk := g.timeSlot*numRooms + g.room; roomUsed[rk] {
			score -= roomConflictPenalty
		} else {
			roomUsed[rk] = true
		}

		switch s.affinities[i][g.facilitator] {
		case domain.AffinityPreferred:
			score += preferredBonus
		case domain.AffinityOther:
			score += otherBonus
		default:
			score -= unqualifiedPenalty
		}
	}

	return math.Max(score, 0)
}

// softmaxWeights 计算 exp(score) 归一化前的权重
// 先减去最大值再取指数，概率分布与直接取 exp(score) 相同，但不会溢出
func softmaxWeights(scores []float64) ([]float64, float64) {
	maxScore := math.Inf(-1)
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}

	weights := make([]float64, len(scores))
	total := 0.0
	for i, score := range scores {
		weights[i] = math.Exp(score - maxScore)
		total += weights[i]
	}

	return weights, total
}

// selectBySoftmax 按权重随机选出一个个体的下标（有放回）
func (s *Scheduler) selectBySoftmax(weights []float64, total float64) int {
	pick := s.rng.Float64() * total
	partial := 0.0

	for i, w := range weights {
		partial += w
		if pick < partial {
			return i
		}
	}

	// 浮点误差兜底
	return len(weights) - 1
}

// uniformCrossover 均匀交叉：每个活动独立地以 1/2 的概率继承 p1 或 p2 的基因
// 子代拥有独立的基因切片，不与任何父代共享
func (s *Scheduler) uniformCrossover(p1, p2 Schedule) Schedule {
	genes := make([]gene, len(p1.genes))
	for i := range genes {
		if s.rng.Float64() < crossoverBias {
			genes[i] = p1.genes[i]
		} else {
			genes[i] = p2.genes[i]
		}
	}
	return Schedule{genes: genes}
}

// mutate 原地变异：每个活动以 MutationRate 的概率整体重新随机
func (s *Scheduler) mutate(sch Schedule) {
	for i := range sch.genes {
		if s.rng.Float64() < s.parameters.MutationRate {
			sch.genes[i] = s.randomGene()
		}
	}
}
