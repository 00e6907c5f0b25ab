package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/export"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/seed"
)

const (
	textFileName  = "final_schedule.txt"
	tableFileName = "final_schedule_table.csv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// 环境变量提供默认值，命令行参数优先
	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		logger.Error("无法读取配置", "error", err)
		os.Exit(1)
	}

	var out string
	population := int(cfg.PopulationSize)
	generations := int(cfg.MaxGenerations)

	flag.IntVar(&population, "population", population, "种群大小")
	flag.IntVar(&generations, "generations", generations, "最大迭代次数")
	flag.Float64Var(&cfg.MutationRate, "mutation-rate", cfg.MutationRate, "变异率 [0, 1]")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "随机数种子，为 0 时使用当前时间")
	flag.StringVar(&out, "out", ".", "结果文件的输出目录")
	flag.Parse()

	seedValue := cfg.Seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}

	params, err := newParameters(population, generations, cfg.MutationRate)
	if err != nil {
		logger.Error("参数无效", "error", err)
		os.Exit(1)
	}

	catalog := seed.DefaultCatalog()

	s, err := scheduler.New(params, catalog, rand.New(rand.NewSource(seedValue)))
	if err != nil {
		logger.Error("无法创建排课器", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	logger.Info("开始排课",
		"population", params.PopulationSize,
		"generations", params.MaxGenerations,
		"mutationRate", params.MutationRate,
		"seed", seedValue,
	)

	result, err := s.Schedule(ctx)
	if err != nil {
		logger.Error("排课失败", "error", err)
		os.Exit(1)
	}

	rows, err := export.Rows(catalog, s.Assignments(result.Best))
	if err != nil {
		logger.Error("无法生成排课结果", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		logger.Error("无法创建输出目录", "dir", out, "error", err)
		os.Exit(1)
	}
	if err := writeFile(filepath.Join(out, textFileName), func(f *os.File) error { return export.WriteText(f, rows) }); err != nil {
		logger.Error("无法写入排课结果", "file", textFileName, "error", err)
		os.Exit(1)
	}
	if err := writeFile(filepath.Join(out, tableFileName), func(f *os.File) error { return export.WriteTable(f, rows) }); err != nil {
		logger.Error("无法写入排课表格", "file", tableFileName, "error", err)
		os.Exit(1)
	}

	if err := export.WriteByTimeSlot(os.Stdout, export.GroupByTimeSlot(catalog, rows)); err != nil {
		logger.Error("无法输出排课结果", "error", err)
		os.Exit(1)
	}

	logger.Info("排课结果已保存",
		"fitness", result.Fitness,
		"generations", result.Generations,
		"converged", result.Converged,
		"dir", out,
	)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// newParameters 拒绝超出 int32 范围的命令行参数，其余检查交给 Parameters.Validate
func newParameters(population, generations int, mutationRate float64) (*scheduler.Parameters, error) {
	if population > math.MaxInt32 || population < math.MinInt32 {
		return nil, fmt.Errorf("种群大小 %d 超出 int32 范围", population)
	}
	if generations > math.MaxInt32 || generations < math.MinInt32 {
		return nil, fmt.Errorf("最大迭代次数 %d 超出 int32 范围", generations)
	}

	params := &scheduler.Parameters{
		PopulationSize: int32(population),
		MaxGenerations: int32(generations),
		MutationRate:   mutationRate,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}
