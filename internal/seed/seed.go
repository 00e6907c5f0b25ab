package seed

import (
	"log/slog"
	"strings"

	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/repository"
)

var defaultTimeSlots = []string{"10 AM", "11 AM", "12 PM", "1 PM", "2 PM", "3 PM"}

var defaultRooms = []domain.Room{
	{Name: "Slater 003", Capacity: 45},
	{Name: "Roman 216", Capacity: 30},
	{Name: "Loft 206", Capacity: 75},
	{Name: "Roman 201", Capacity: 50},
	{Name: "Loft 310", Capacity: 108},
	{Name: "Beach 201", Capacity: 60},
	{Name: "Beach 301", Capacity: 75},
	{Name: "Logos 325", Capacity: 450},
	{Name: "Frank 119", Capacity: 60},
}

var defaultFacilitators = []string{"Lock", "Glen", "Banks", "Richards", "Shaw", "Singer", "Uther", "Tyler", "Numen", "Zeldin"}

type activityDef struct {
	name       string
	enrollment int32
	preferred  []string
	others     []string
}

var defaultActivities = []activityDef{
	{"SLA100A", 50, []string{"Glen", "Lock", "Banks", "Zeldin"}, []string{"Numen", "Richards"}},
	{"SLA100B", 50, []string{"Glen", "Lock", "Banks", "Zeldin"}, []string{"Numen", "Richards"}},
	{"SLA191A", 50, []string{"Glen", "Lock", "Banks", "Zeldin"}, []string{"Numen", "Richards"}},
	{"SLA191B", 50, []string{"Glen", "Lock", "Banks", "Zeldin"}, []string{"Numen", "Richards"}},
	{"SLA201", 50, []string{"Glen", "Banks", "Zeldin", "Shaw"}, []string{"Numen", "Richards", "Singer"}},
	{"SLA291", 50, []string{"Lock", "Banks", "Zeldin", "Singer"}, []string{"Numen", "Richards", "Shaw", "Tyler"}},
	{"SLA303", 60, []string{"Glen", "Zeldin", "Banks"}, []string{"Numen", "Singer", "Shaw"}},
	{"SLA304", 25, []string{"Glen", "Banks", "Tyler"}, []string{"Numen", "Singer", "Shaw", "Richards", "Uther", "Zeldin"}},
	{"SLA394", 20, []string{"Tyler", "Singer"}, []string{"Richards", "Zeldin"}},
	{"SLA449", 60, []string{"Tyler", "Singer", "Shaw"}, []string{"Zeldin", "Uther"}},
	{"SLA451", 100, []string{"Tyler", "Singer", "Shaw"}, []string{"Zeldin", "Uther", "Richards", "Banks"}},
}

// DefaultCatalog 返回内置的示例排课数据，ID 从 1 开始按顺序编号
func DefaultCatalog() *domain.Catalog {
	catalog := &domain.Catalog{
		Activities:   make([]domain.Activity, len(defaultActivities)),
		Rooms:        make([]domain.Room, len(defaultRooms)),
		TimeSlots:    make([]domain.TimeSlot, len(defaultTimeSlots)),
		Facilitators: make([]domain.Facilitator, len(defaultFacilitators)),
	}

	for i, room := range defaultRooms {
		catalog.Rooms[i] = domain.Room{ID: int64(i + 1), Name: room.Name, Capacity: room.Capacity}
	}
	for i, label := range defaultTimeSlots {
		catalog.TimeSlots[i] = domain.TimeSlot{ID: int64(i + 1), Label: label, Position: int32(i + 1)}
	}

	facilitatorIDs := make(map[string]int64, len(defaultFacilitators))
	for i, name := range defaultFacilitators {
		catalog.Facilitators[i] = domain.Facilitator{ID: int64(i + 1), Name: name}
		facilitatorIDs[name] = int64(i + 1)
	}

	lookup := func(names []string) []int64 {
		ids := make([]int64, len(names))
		for i, name := range names {
			ids[i] = facilitatorIDs[name]
		}
		return ids
	}

	for i, def := range defaultActivities {
		catalog.Activities[i] = domain.Activity{
			ID:                      int64(i + 1),
			Name:                    def.name,
			Enrollment:              def.enrollment,
			PreferredFacilitatorIDs: lookup(def.preferred),
			OtherFacilitatorIDs:     lookup(def.others),
		}
	}

	return catalog
}

// SeedDefaultCatalog 将示例排课数据写入数据库，负责人的邮箱为 小写名字@emailDomain
func SeedDefaultCatalog(r *repository.Repository, emailDomain string) error {
	catalog := DefaultCatalog()

	// 旧 ID -> 数据库中的 ID
	facilitatorIDs := make(map[int64]int64, len(catalog.Facilitators))
	for _, f := range catalog.Facilitators {
		oldID := f.ID
		f.Email = strings.ToLower(f.Name) + "@" + emailDomain
		if err := r.CreateFacilitator(&f); err != nil {
			return err
		}
		facilitatorIDs[oldID] = f.ID
	}
	slog.Info("插入负责人成功", slog.Int("count", len(catalog.Facilitators)))

	for _, room := range catalog.Rooms {
		if err := r.CreateRoom(&room); err != nil {
			return err
		}
	}
	slog.Info("插入教室成功", slog.Int("count", len(catalog.Rooms)))

	for _, ts := range catalog.TimeSlots {
		if err := r.CreateTimeSlot(&ts); err != nil {
			return err
		}
	}
	slog.Info("插入时间段成功", slog.Int("count", len(catalog.TimeSlots)))

	remap := func(ids []int64) []int64 {
		mapped := make([]int64, len(ids))
		for i, id := range ids {
			mapped[i] = facilitatorIDs[id]
		}
		return mapped
	}

	for _, activity := range catalog.Activities {
		activity.PreferredFacilitatorIDs = remap(activity.PreferredFacilitatorIDs)
		activity.OtherFacilitatorIDs = remap(activity.OtherFacilitatorIDs)
		if err := r.CreateActivity(&activity); err != nil {
			return err
		}
	}
	slog.Info("插入活动成功", slog.Int("count", len(catalog.Activities)))

	return nil
}
