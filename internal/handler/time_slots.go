package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (h *Handler) CreateTimeSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label    string `json:"label" validate:"required"`
		Position *int32 `json:"position" validate:"required,min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ts := &domain.TimeSlot{
		Label:    req.Label,
		Position: *req.Position,
	}

	if err := h.repository.CreateTimeSlot(ts); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "time_slots_label_key":
				h.errorResponse(w, r, "时间段名称已存在")
			case "time_slots_position_key":
				h.errorResponse(w, r, "该位置已有时间段")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建时间段成功", ts)
}

func (h *Handler) GetAllTimeSlots(w http.ResponseWriter, r *http.Request) {
	timeSlots, err := h.repository.GetAllTimeSlots()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时间段列表成功", timeSlots)
}

func (h *Handler) DeleteTimeSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.DeleteTimeSlot(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "时间段不存在")
		case referencedByResult(err):
			h.errorResponse(w, r, "该时间段"+referencedByResultMessage)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除时间段成功", nil)
}
