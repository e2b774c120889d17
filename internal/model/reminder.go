package model

import "time"

type Reminder struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Content      *string   `json:"content" gorm:"type:text"`
	RemindAt     time.Time `json:"remindAt" gorm:"not null;index:idx_reminders_due,priority:2"`
	Status       Status    `json:"status" gorm:"size:16;not null;default:pending;index:idx_reminders_due,priority:1"`
	ErrorMessage *string   `json:"errorMessage" gorm:"type:text"`
	WebhookID    uint64    `json:"webhookId" gorm:"not null;index"`
	Webhook      *Webhook  `json:"webhook,omitempty" gorm:"foreignKey:WebhookID"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
