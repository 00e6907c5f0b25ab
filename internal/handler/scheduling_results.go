package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/export"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/utils"
)

type generateSchedulingResultRequest struct {
	PopulationSize *int32   `json:"populationSize" validate:"omitempty,min=1"`
	MaxGenerations *int32   `json:"maxGenerations" validate:"omitempty,min=1"`
	MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	Seed           *int64   `json:"seed"`
}

// parameters 用请求中的字段覆盖配置中的默认值，种子为 0 时使用当前时间
func (req *generateSchedulingResultRequest) parameters(defaults *config.SchedulerConfig) (*scheduler.Parameters, int64) {
	params := &scheduler.Parameters{
		PopulationSize: defaults.PopulationSize,
		MaxGenerations: defaults.MaxGenerations,
		MutationRate:   defaults.MutationRate,
	}
	seed := defaults.Seed

	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.MaxGenerations != nil {
		params.MaxGenerations = *req.MaxGenerations
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return params, seed
}

func (h *Handler) GenerateSchedulingResult(w http.ResponseWriter, r *http.Request) {
	var req generateSchedulingResultRequest

	if err := h.readOptionalJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params, seed := req.parameters(&h.config.Scheduler)

	// 同一时间只允许一个排课任务
	lockToken, acquired, err := h.acquireSchedulingLock()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !acquired {
		h.errorResponse(w, r, "已有排课任务正在进行，请稍后再试")
		return
	}
	defer h.releaseSchedulingLock(lockToken)

	catalog, err := h.repository.GetCatalog()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	s, err := scheduler.New(params, catalog, rand.New(rand.NewSource(seed)))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Scheduler.Timeout)*time.Second)
	defer cancel()

	out, err := s.Schedule(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			h.errorResponse(w, r, "排课超时")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	result := &domain.SchedulingResult{
		PopulationSize: params.PopulationSize,
		MaxGenerations: params.MaxGenerations,
		MutationRate:   params.MutationRate,
		Seed:           seed,
		Generations:    int32(out.Generations),
		Converged:      out.Converged,
		Fitness:        out.Fitness,
		FitnessHistory: out.FitnessHistory,
		Assignments:    s.Assignments(out.Best),
	}

	if err := utils.ValidateSchedulingResultWithCatalog(result, catalog); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.InsertSchedulingResult(result); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 缓存与通知失败都不影响排课结果本身
	if err := h.cacheLatestResult(result); err != nil {
		slog.Error("缓存最新排课结果失败", "id", result.ID, "error", err)
	}
	if err := h.publishScheduleNotifications(result, catalog); err != nil {
		slog.Error("发送排课通知失败", "id", result.ID, "error", err)
	}

	h.successResponse(w, r, "排课成功", result)
}

func (h *Handler) GetAllSchedulingResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.repository.GetAllSchedulingResults()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课结果列表成功", results)
}

func (h *Handler) GetLatestSchedulingResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.getCachedLatestResult()
	if err == nil {
		h.successResponse(w, r, "获取最新排课结果成功", result)
		return
	}
	if !errors.Is(err, redis.Nil) {
		slog.Error("读取最新排课结果缓存失败", "error", err)
	}

	id, err := h.repository.GetLatestSchedulingResultID()
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "尚未生成任何排课结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	result, err = h.repository.GetSchedulingResultByID(id)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.cacheLatestResult(result); err != nil {
		slog.Error("缓存最新排课结果失败", "id", result.ID, "error", err)
	}

	h.successResponse(w, r, "获取最新排课结果成功", result)
}

func (h *Handler) GetSchedulingResult(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(SchedulingResultCtx).(*domain.SchedulingResult)
	h.successResponse(w, r, "获取排课结果成功", result)
}

func (h *Handler) ExportSchedulingResultTable(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(SchedulingResultCtx).(*domain.SchedulingResult)

	rows, err := h.resultRows(result)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 先写到缓冲区，避免写到一半出错时响应头已经发送
	var buf bytes.Buffer
	if err := export.WriteTable(&buf, rows); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scheduling_result_%d.csv", result.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) GetSchedulingResultByTimeSlot(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(SchedulingResultCtx).(*domain.SchedulingResult)

	catalog, err := h.repository.GetCatalog()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	rows, err := export.Rows(catalog, result.Assignments)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课结果成功", export.GroupByTimeSlot(catalog, rows))
}

func (h *Handler) resultRows(result *domain.SchedulingResult) ([]export.Row, error) {
	catalog, err := h.repository.GetCatalog()
	if err != nil {
		return nil, err
	}

	return export.Rows(catalog, result.Assignments)
}
