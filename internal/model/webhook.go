package model

import "time"

// Webhook is a named delivery target. At most one row has IsDefault set.
type Webhook struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	URL       string    `json:"url" gorm:"size:1024;not null"`
	IsDefault bool      `json:"isDefault" gorm:"default:false;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
