package repository

import (
	"errors"
	"fmt"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrWebhookNotFound  = errors.New("webhook not found")
	// ErrInvalidState is returned when a conditional status write matched the
	// row but its current status does not allow the transition.
	ErrInvalidState = errors.New("invalid reminder state")
	ErrWebhookInUse = errors.New("webhook is referenced by reminders")
)

// WebhookInUseError carries how many reminders block a webhook deletion.
type WebhookInUseError struct {
	Count int64
}

func (e *WebhookInUseError) Error() string {
	return fmt.Sprintf("cannot delete: %d reminders are using this webhook", e.Count)
}

func (e *WebhookInUseError) Is(target error) bool {
	return target == ErrWebhookInUse
}
