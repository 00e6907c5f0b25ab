package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

const (
	schedulingLockKey         = "scheduling_lock"
	latestSchedulingResultKey = "latest_scheduling_result"
)

func (h *Handler) redisContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
}

// 只有持有者才能删除锁，锁过期后被其他请求拿到时不会被误删
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// acquireSchedulingLock 保证同一时间只有一个排课任务在运行，返回的 token 用于释放锁，
// ok 为 false 表示锁已被占用
func (h *Handler) acquireSchedulingLock() (token string, ok bool, err error) {
	ctx, cancel := h.redisContext()
	defer cancel()

	token = uuid.NewString()
	ok, err = h.redisClient.SetNX(ctx, schedulingLockKey, token, time.Duration(h.config.Redis.LockExpiration)*time.Second).Result()
	return token, ok, err
}

func (h *Handler) releaseSchedulingLock(token string) {
	ctx, cancel := h.redisContext()
	defer cancel()

	released, err := releaseLockScript.Run(ctx, h.redisClient, []string{schedulingLockKey}, token).Int()
	if err != nil {
		slog.Error("释放排课锁失败", "error", err)
		return
	}
	if released == 0 {
		slog.Warn("排课锁已过期并被其他任务持有", "token", token)
	}
}

func (h *Handler) cacheLatestResult(result *domain.SchedulingResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	ctx, cancel := h.redisContext()
	defer cancel()

	return h.redisClient.Set(ctx, latestSchedulingResultKey, data, time.Duration(h.config.Redis.ResultCacheExpiration)*time.Second).Err()
}

// getCachedLatestResult 在缓存未命中时返回 redis.Nil
func (h *Handler) getCachedLatestResult() (*domain.SchedulingResult, error) {
	ctx, cancel := h.redisContext()
	defer cancel()

	data, err := h.redisClient.Get(ctx, latestSchedulingResultKey).Bytes()
	if err != nil {
		return nil, err
	}

	result := &domain.SchedulingResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}

	return result, nil
}
