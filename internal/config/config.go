package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type SchedulerConfig struct {
	PopulationSize int32   `env:"POPULATION_SIZE" envDefault:"500"`
	MaxGenerations int32   `env:"MAX_GENERATIONS" envDefault:"100"`
	MutationRate   float64 `env:"MUTATION_RATE" envDefault:"0.01"`
	Seed           int64   `env:"SEED" envDefault:"0"`    // 为 0 时使用当前时间作为种子
	Timeout        int     `env:"TIMEOUT" envDefault:"60"` // 单次排课的最长时间（秒）
}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"90"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 14 天（小时）
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Email     struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"notification_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                  string `env:"HOST" envDefault:"localhost"`
		Port                  int    `env:"PORT" envDefault:"6379"`
		Password              string `env:"PASSWORD,required"`
		ConnectTimeout        int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration   int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		LockExpiration        int    `env:"LOCK_EXPIRATION" envDefault:"120"`          // 排课锁的过期时间（秒）
		ResultCacheExpiration int    `env:"RESULT_CACHE_EXPIRATION" envDefault:"3600"` // 最新排课结果缓存的过期时间（秒）
	} `envPrefix:"REDIS_"`
}

// loadDotEnv 读取工作目录下的 .env 文件，已存在的环境变量不会被覆盖
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func LoadConfig() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, firstError(err)
	}

	// 排课锁必须比单次排课活得久，否则排课尚未结束锁就已被其他请求拿走
	if cfg.Redis.LockExpiration <= cfg.Scheduler.Timeout {
		return nil, fmt.Errorf("REDIS_LOCK_EXPIRATION (%d) 必须大于 SCHEDULER_TIMEOUT (%d)", cfg.Redis.LockExpiration, cfg.Scheduler.Timeout)
	}

	return cfg, nil
}

// LoadSchedulerConfig 只读取 SCHEDULER_ 开头的配置，供不需要数据库的命令行工具使用
func LoadSchedulerConfig() (*SchedulerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &SchedulerConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SCHEDULER_"}); err != nil {
		return nil, firstError(err)
	}

	return cfg, nil
}

func firstError(err error) error {
	aggErr := env.AggregateError{}
	if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
		// 只返回第一个错误使得日志更清晰
		return aggErr.Errors[0]
	}
	return err
}
