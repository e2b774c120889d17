package req

import "time"

type CreateReminderRequest struct {
	Title     string    `json:"title" binding:"required"`
	Content   *string   `json:"content"`
	RemindAt  time.Time `json:"remindAt" binding:"required"`
	WebhookID *uint64   `json:"webhookId"`
}

// UpdateReminderRequest is a partial edit. Nil fields are left unchanged.
type UpdateReminderRequest struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	RemindAt  *time.Time `json:"remindAt"`
	WebhookID *uint64    `json:"webhookId"`
}

type ListRemindersRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type IDRequest struct {
	ID uint64 `uri:"id" binding:"required"`
}
