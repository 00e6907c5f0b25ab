package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type SchedulePublishedMailItem struct {
	Activity string `json:"activity"`
	Room     string `json:"room"`
	TimeSlot string `json:"timeSlot"`
}

type SchedulePublishedMailData struct {
	FullName           string                      `json:"fullName"`
	SchedulingResultID int64                       `json:"schedulingResultID"`
	Items              []SchedulePublishedMailItem `json:"items"`
}
