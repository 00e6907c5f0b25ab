package handler

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const referencedByResultMessage = "仍被排课结果引用，无法删除"

// 已保存的排课结果通过这些外键引用排课数据
var schedulingResultReferenceConstraints = []string{
	"scheduling_result_assignments_activity_id_fkey",
	"scheduling_result_assignments_room_id_fkey",
	"scheduling_result_assignments_time_slot_id_fkey",
	"scheduling_result_assignments_facilitator_id_fkey",
}

// referencedByResult 判断删除失败是否因为仍有排课结果引用该数据
func referencedByResult(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, name := range schedulingResultReferenceConstraints {
		if pgErr.ConstraintName == name {
			return true
		}
	}
	return false
}
