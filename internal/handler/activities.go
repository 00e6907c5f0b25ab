package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/utils"
)

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                    string  `json:"name" validate:"required"`
		Enrollment              int32   `json:"enrollment" validate:"required,min=1"`
		PreferredFacilitatorIDs []int64 `json:"preferredFacilitatorIDs" validate:"unique,dive,min=1"`
		OtherFacilitatorIDs     []int64 `json:"otherFacilitatorIDs" validate:"unique,dive,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	activity := &domain.Activity{
		Name:                    req.Name,
		Enrollment:              req.Enrollment,
		PreferredFacilitatorIDs: req.PreferredFacilitatorIDs,
		OtherFacilitatorIDs:     req.OtherFacilitatorIDs,
	}

	if err := utils.ValidateActivity(activity); err != nil {
		h.badRequest(w, r, err)
		return
	}

	facilitators, err := h.repository.GetAllFacilitators()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateActivityWithFacilitators(activity, facilitators); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateActivity(activity); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "activities_name_key":
				h.errorResponse(w, r, "活动名称已存在")
			case "activity_facilitators_facilitator_id_fkey":
				h.errorResponse(w, r, "负责人不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建活动成功", activity)
}

func (h *Handler) GetAllActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.repository.GetAllActivities()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取活动列表成功", activities)
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.DeleteActivity(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "活动不存在")
		case referencedByResult(err):
			h.errorResponse(w, r, "该活动"+referencedByResultMessage)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除活动成功", nil)
}
