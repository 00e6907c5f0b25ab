package domain

import "time"

type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Capacity  int32     `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// TimeSlot 按 Position 升序排列
type TimeSlot struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Position  int32     `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Facilitator struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Affinity string

const (
	AffinityPreferred   Affinity = "preferred"
	AffinityOther       Affinity = "other"
	AffinityUnqualified Affinity = "unqualified"
)

// Activity 中既不在 PreferredFacilitatorIDs 也不在 OtherFacilitatorIDs 中的负责人视为不合格
type Activity struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	Enrollment              int32     `json:"enrollment"`
	PreferredFacilitatorIDs []int64   `json:"preferredFacilitatorIDs"`
	OtherFacilitatorIDs     []int64   `json:"otherFacilitatorIDs"`
	CreatedAt               time.Time `json:"createdAt"`
	Version                 int32     `json:"-"`
}

// Catalog 是一次排课所需的全部静态数据，排课过程中只读
type Catalog struct {
	Activities   []Activity    `json:"activities"`
	Rooms        []Room        `json:"rooms"`
	TimeSlots    []TimeSlot    `json:"timeSlots"`
	Facilitators []Facilitator `json:"facilitators"`
}
