package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func ValidateActivity(activity *domain.Activity) error {
	if activity.Enrollment <= 0 {
		return fmt.Errorf("活动 %s 的选课人数必须大于 0", activity.Name)
	}

	for _, id := range activity.PreferredFacilitatorIDs {
		if slices.Contains(activity.OtherFacilitatorIDs, id) {
			return fmt.Errorf("负责人 %d 不能同时是活动 %s 的首选和备选负责人", id, activity.Name)
		}
	}

	return nil
}

func ValidateActivityWithFacilitators(activity *domain.Activity, facilitators []*domain.Facilitator) error {
	exists := func(id int64) bool {
		return slices.ContainsFunc(facilitators, func(f *domain.Facilitator) bool {
			return f.ID == id
		})
	}

	for _, id := range activity.PreferredFacilitatorIDs {
		if !exists(id) {
			return fmt.Errorf("首选负责人 %d 不存在", id)
		}
	}
	for _, id := range activity.OtherFacilitatorIDs {
		if !exists(id) {
			return fmt.Errorf("备选负责人 %d 不存在", id)
		}
	}

	return nil
}

// ValidateSchedulingResultWithCatalog 检查排课结果是否覆盖了所有活动，且每个活动恰好出现一次
func ValidateSchedulingResultWithCatalog(result *domain.SchedulingResult, catalog *domain.Catalog) error {
	if len(result.Assignments) != len(catalog.Activities) {
		return errors.New("排课结果中的活动数量和排课数据中的活动数量不匹配")
	}

	activityCnt := make(map[int64]int)
	for _, activity := range catalog.Activities {
		activityCnt[activity.ID] = 0
	}

	for _, assignment := range result.Assignments {
		cnt, exists := activityCnt[assignment.ActivityID]
		if !exists {
			return fmt.Errorf("排课结果中的活动 %d 不存在于排课数据中", assignment.ActivityID)
		}
		if cnt > 0 {
			return fmt.Errorf("活动 %d 在排课结果中重复出现", assignment.ActivityID)
		}
		activityCnt[assignment.ActivityID] = cnt + 1

		if !slices.ContainsFunc(catalog.Rooms, func(r domain.Room) bool { return r.ID == assignment.RoomID }) {
			return fmt.Errorf("活动 %d 被分配到了不存在的教室 %d", assignment.ActivityID, assignment.RoomID)
		}
		if !slices.ContainsFunc(catalog.TimeSlots, func(ts domain.TimeSlot) bool { return ts.ID == assignment.TimeSlotID }) {
			return fmt.Errorf("活动 %d 被分配到了不存在的时间段 %d", assignment.ActivityID, assignment.TimeSlotID)
		}
		if !slices.ContainsFunc(catalog.Facilitators, func(f domain.Facilitator) bool { return f.ID == assignment.FacilitatorID }) {
			return fmt.Errorf("活动 %d 被分配给了不存在的负责人 %d", assignment.ActivityID, assignment.FacilitatorID)
		}
	}

	return nil
}
