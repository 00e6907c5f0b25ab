package repository

import "github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"

// GetCatalog 读取排课所需的全部数据
func (r *Repository) GetCatalog() (*domain.Catalog, error) {
	activities, err := r.GetAllActivities()
	if err != nil {
		return nil, err
	}
	rooms, err := r.GetAllRooms()
	if err != nil {
		return nil, err
	}
	timeSlots, err := r.GetAllTimeSlots()
	if err != nil {
		return nil, err
	}
	facilitators, err := r.GetAllFacilitators()
	if err != nil {
		return nil, err
	}

	catalog := &domain.Catalog{
		Activities:   make([]domain.Activity, len(activities)),
		Rooms:        make([]domain.Room, len(rooms)),
		TimeSlots:    make([]domain.TimeSlot, len(timeSlots)),
		Facilitators: make([]domain.Facilitator, len(facilitators)),
	}
	for i, a := range activities {
		catalog.Activities[i] = *a
	}
	for i, room := range rooms {
		catalog.Rooms[i] = *room
	}
	for i, ts := range timeSlots {
		catalog.TimeSlots[i] = *ts
	}
	for i, f := range facilitators {
		catalog.Facilitators[i] = *f
	}

	return catalog, nil
}
