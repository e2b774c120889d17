package resp

import (
	"time"

	"remindflow/internal/model"
)

type WebhookRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ReminderItem struct {
	ID           uint64       `json:"id"`
	Title        string       `json:"title"`
	Content      *string      `json:"content"`
	RemindAt     time.Time    `json:"remindAt"`
	Status       model.Status `json:"status"`
	ErrorMessage *string      `json:"errorMessage"`
	WebhookID    uint64       `json:"webhookId"`
	Webhook      *WebhookRef  `json:"webhook"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListRemindersResponse struct {
	Data       []ReminderItem `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type StatsResponse struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Total   int64 `json:"total"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func NewReminderItem(r *model.Reminder) ReminderItem {
	item := ReminderItem{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		RemindAt:     r.RemindAt,
		Status:       r.Status,
		ErrorMessage: r.ErrorMessage,
		WebhookID:    r.WebhookID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Webhook != nil {
		item.Webhook = &WebhookRef{ID: r.Webhook.ID, Name: r.Webhook.Name}
	}
	return item
}
