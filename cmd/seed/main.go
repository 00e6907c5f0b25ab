package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入默认排课数据, 2: 插入随机负责人, 3: 插入随机教室)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if err := seed.SeedDefaultCatalog(repo, cfg.Email.UserDomain); err != nil {
			slog.Error("无法插入默认排课数据", "error", err)
			return
		}
		slog.Info("插入默认排课数据成功")
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的负责人数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			f := utils.GenerateRandomFacilitator(cfg.Email.UserDomain)
			if err := repo.CreateFacilitator(f); err != nil {
				// 随机姓名可能重复，跳过即可
				slog.Error("无法插入负责人", "name", f.Name, "error", err)
				continue
			}
			cnt++
		}

		slog.Info("插入负责人成功", "count", cnt)
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的教室数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			room := utils.GenerateRandomRoom()
			if err := repo.CreateRoom(room); err != nil {
				slog.Error("无法插入教室", "name", room.Name, "error", err)
				continue
			}
			cnt++
		}

		slog.Info("插入教室成功", "count", cnt)
	default:
		slog.Error("指定的操作非法")
	}
}
