package domain

import "time"

type Assignment struct {
	ActivityID    int64 `json:"activityID"`
	RoomID        int64 `json:"roomID"`
	TimeSlotID    int64 `json:"timeSlotID"`
	FacilitatorID int64 `json:"facilitatorID"`
}

type SchedulingResult struct {
	ID             int64        `json:"id"`
	PopulationSize int32        `json:"populationSize"`
	MaxGenerations int32        `json:"maxGenerations"`
	MutationRate   float64      `json:"mutationRate"`
	Seed           int64        `json:"seed"`
	Generations    int32        `json:"generations"`
	Converged      bool         `json:"converged"`
	Fitness        float64      `json:"fitness"`
	FitnessHistory []float64    `json:"fitnessHistory"`
	Assignments    []Assignment `json:"assignments"`
	CreatedAt      time.Time    `json:"createdAt"`
	Version        int32        `json:"-"`
}
