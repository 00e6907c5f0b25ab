package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// gene: 表示某个活动的排课决策，三个字段都是 catalog 中对应切片的下标
type gene struct {
	room        int
	timeSlot    int
	facilitator int
}

// Schedule: 整个排课表（染色体），genes[i] 对应 catalog 中第 i 个活动
// Schedule 是值语义的，需要独立修改时必须使用 Clone
type Schedule struct {
	genes []gene
}

func (s Schedule) Clone() Schedule {
	genes := make([]gene, len(s.genes))
	copy(genes, s.genes)
	return Schedule{genes: genes}
}

func (s Schedule) Len() int {
	return len(s.genes)
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int32   // 种群大小
	MaxGenerations int32   // 最大迭代次数
	MutationRate   float64 // 变异概率
}

var (
	ErrEmptyCatalog          = errors.New("排课数据不完整：活动、教室、时间段和负责人都不能为空")
	ErrInvalidPopulationSize = errors.New("种群大小必须大于 0")
	ErrInvalidMaxGenerations = errors.New("最大迭代次数必须大于 0")
	ErrInvalidMutationRate   = errors.New("变异概率必须在 [0, 1] 范围内")
	ErrNilRandomSource       = errors.New("随机数生成器不能为空")
	ErrUnknownFacilitator    = errors.New("活动引用了不存在的负责人")
)

func (p *Parameters) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("%w（得到 %d）", ErrInvalidPopulationSize, p.PopulationSize)
	}
	if p.MaxGenerations <= 0 {
		return fmt.Errorf("%w（得到 %d）", ErrInvalidMaxGenerations, p.MaxGenerations)
	}
	// 用取反的写法顺便排除 NaN
	if !(p.MutationRate >= 0 && p.MutationRate <= 1) {
		return fmt.Errorf("%w（得到 %f）", ErrInvalidMutationRate, p.MutationRate)
	}
	return nil
}

// Result 是一次完整排课的输出
type Result struct {
	Best           Schedule
	Fitness        float64
	FitnessHistory []float64 // 每一代种群的平均适应度
	Generations    int       // 终止时的代数下标
	Converged      bool      // true 表示因停滞提前终止，false 表示达到最大迭代次数
	Evaluations    int
	Duration       time.Duration
}
