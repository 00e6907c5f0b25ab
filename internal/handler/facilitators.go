package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func (h *Handler) CreateFacilitator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	f := &domain.Facilitator{
		Name:  req.Name,
		Email: req.Email,
	}

	if err := h.repository.CreateFacilitator(f); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "facilitators_name_key":
				h.errorResponse(w, r, "负责人姓名已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建负责人成功", f)
}

func (h *Handler) GetAllFacilitators(w http.ResponseWriter, r *http.Request) {
	facilitators, err := h.repository.GetAllFacilitators()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取负责人列表成功", facilitators)
}

func (h *Handler) DeleteFacilitator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.DeleteFacilitator(id); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "负责人不存在")
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "activity_facilitators_facilitator_id_fkey":
			h.errorResponse(w, r, "该负责人仍被活动引用，无法删除")
		case referencedByResult(err):
			h.errorResponse(w, r, "该负责人"+referencedByResultMessage)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除负责人成功", nil)
}
