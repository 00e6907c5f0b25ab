// Package export 将排课结果渲染为文本、CSV 表格以及按时间段分组的视图
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

type Row struct {
	Activity    string `json:"activity"`
	Room        string `json:"room"`
	TimeSlot    string `json:"timeSlot"`
	Facilitator string `json:"facilitator"`

	timeSlotID int64
}

type TimeSlotGroupItem struct {
	Activity    string `json:"activity"`
	Room        string `json:"room"`
	Facilitator string `json:"facilitator"`
}

type TimeSlotGroup struct {
	TimeSlot string              `json:"timeSlot"`
	Items    []TimeSlotGroupItem `json:"items"`
}

// Rows 把以 ID 表示的分配结果翻译成名称，顺序与 assignments 保持一致
func Rows(catalog *domain.Catalog, assignments []domain.Assignment) ([]Row, error) {
	activities := make(map[int64]string, len(catalog.Activities))
	for _, a := range catalog.Activities {
		activities[a.ID] = a.Name
	}
	rooms := make(map[int64]string, len(catalog.Rooms))
	for _, r := range catalog.Rooms {
		rooms[r.ID] = r.Name
	}
	timeSlots := make(map[int64]string, len(catalog.TimeSlots))
	for _, ts := range catalog.TimeSlots {
		timeSlots[ts.ID] = ts.Label
	}
	facilitators := make(map[int64]string, len(catalog.Facilitators))
	for _, f := range catalog.Facilitators {
		facilitators[f.ID] = f.Name
	}

	rows := make([]Row, len(assignments))
	for i, a := range assignments {
		activity, ok := activities[a.ActivityID]
		if !ok {
			return nil, fmt.Errorf("活动 %d 不存在", a.ActivityID)
		}
		room, ok := rooms[a.RoomID]
		if !ok {
			return nil, fmt.Errorf("教室 %d 不存在", a.RoomID)
		}
		timeSlot, ok := timeSlots[a.TimeSlotID]
		if !ok {
			return nil, fmt.Errorf("时间段 %d 不存在", a.TimeSlotID)
		}
		facilitator, ok := facilitators[a.FacilitatorID]
		if !ok {
			return nil, fmt.Errorf("负责人 %d 不存在", a.FacilitatorID)
		}

		rows[i] = Row{
			Activity:    activity,
			Room:        room,
			TimeSlot:    timeSlot,
			Facilitator: facilitator,
			timeSlotID:  a.TimeSlotID,
		}
	}

	return rows, nil
}

// WriteText 每个活动一行
func WriteText(w io.Writer, rows []Row) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s: Room=%s, Time=%s, Facilitator=%s\n", row.Activity, row.Room, row.TimeSlot, row.Facilitator); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable 按活动名称排序后输出 CSV 表格
func WriteTable(w io.Writer, rows []Row) error {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		return strings.Compare(a.Activity, b.Activity)
	})

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Activity", "Room", "Time", "Facilitator"}); err != nil {
		return err
	}
	for _, row := range sorted {
		if err := writer.Write([]string{row.Activity, row.Room, row.TimeSlot, row.Facilitator}); err != nil {
			return err
		}
	}
	writer.Flush()

	return writer.Error()
}

// GroupByTimeSlot 按时间段的先后顺序分组，没有活动的时间段也会出现在结果中
func GroupByTimeSlot(catalog *domain.Catalog, rows []Row) []TimeSlotGroup {
	timeSlots := slices.Clone(catalog.TimeSlots)
	slices.SortStableFunc(timeSlots, func(a, b domain.TimeSlot) int {
		return int(a.Position) - int(b.Position)
	})

	groups := make([]TimeSlotGroup, len(timeSlots))
	for i, ts := range timeSlots {
		groups[i] = TimeSlotGroup{
			TimeSlot: ts.Label,
			Items:    make([]TimeSlotGroupItem, 0),
		}
		for _, row := range rows {
			if row.timeSlotID != ts.ID {
				continue
			}
			groups[i].Items = append(groups[i].Items, TimeSlotGroupItem{
				Activity:    row.Activity,
				Room:        row.Room,
				Facilitator: row.Facilitator,
			})
		}
	}

	return groups
}

func WriteByTimeSlot(w io.Writer, groups []TimeSlotGroup) error {
	for _, group := range groups {
		if _, err := fmt.Fprintf(w, "\nTime Slot: %s\n", group.TimeSlot); err != nil {
			return err
		}
		for _, item := range group.Items {
			if _, err := fmt.Fprintf(w, "  %s: Room=%s, Facilitator=%s\n", item.Activity, item.Room, item.Facilitator); err != nil {
				return err
			}
		}
	}
	return nil
}
