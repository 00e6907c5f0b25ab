package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/export"
)

const schedulePublishedMailType = "schedule_published"

// buildScheduleNotifications 为每个被分配了活动的负责人生成一封邮件，顺序与负责人首次出现的顺序一致
func buildScheduleNotifications(result *domain.SchedulingResult, catalog *domain.Catalog) ([]domain.MailMessage, error) {
	rows, err := export.Rows(catalog, result.Assignments)
	if err != nil {
		return nil, err
	}

	facilitators := make(map[int64]domain.Facilitator, len(catalog.Facilitators))
	for _, f := range catalog.Facilitators {
		facilitators[f.ID] = f
	}

	order := make([]int64, 0)
	items := make(map[int64][]domain.SchedulePublishedMailItem)
	for i, assignment := range result.Assignments {
		id := assignment.FacilitatorID
		if _, exists := items[id]; !exists {
			order = append(order, id)
		}
		items[id] = append(items[id], domain.SchedulePublishedMailItem{
			Activity: rows[i].Activity,
			Room:     rows[i].Room,
			TimeSlot: rows[i].TimeSlot,
		})
	}

	messages := make([]domain.MailMessage, 0, len(order))
	for _, id := range order {
		f := facilitators[id]
		if f.Email == "" {
			continue
		}
		messages = append(messages, domain.MailMessage{
			Type: schedulePublishedMailType,
			To:   f.Email,
			Data: domain.SchedulePublishedMailData{
				FullName:           f.Name,
				SchedulingResultID: result.ID,
				Items:              items[id],
			},
		})
	}

	return messages, nil
}

func (h *Handler) publishScheduleNotifications(result *domain.SchedulingResult, catalog *domain.Catalog) error {
	if h.notifyChannel == nil {
		return errors.New("消息队列未连接")
	}

	messages, err := buildScheduleNotifications(result, catalog)
	if err != nil {
		return err
	}

	for _, message := range messages {
		body, err := json.Marshal(message)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
		err = h.notifyChannel.PublishWithContext(
			ctx,
			"",
			h.config.RabbitMQ.Queue,
			true,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("发送通知给 %s 失败: %w", message.To, err)
		}
	}

	return nil
}
