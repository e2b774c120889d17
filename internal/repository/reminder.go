package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remindflow/internal/model"

	"gorm.io/gorm"
)

// ReminderFilter narrows List. A zero Status matches every status.
type ReminderFilter struct {
	Status model.Status
	Offset int
	Limit  int
}

// ReminderInterface is the persistence gateway for reminders.
type ReminderInterface interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	GetByID(ctx context.Context, id uint64) (*model.Reminder, error)
	List(ctx context.Context, filter ReminderFilter) ([]model.Reminder, int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error)
	UpdateStatus(ctx context.Context, id uint64, status model.Status, errorMessage *string) (*model.Reminder, error)
	ResetToPending(ctx context.Context, id uint64) (*model.Reminder, error)
	UpdatePending(ctx context.Context, id uint64, fields map[string]any) (*model.Reminder, error)
	Delete(ctx context.Context, id uint64) error
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
	CountByWebhook(ctx context.Context, webhookID uint64) (int64, error)
	WithTx(tx *gorm.DB) ReminderInterface
}

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	reminder.RemindAt = reminder.RemindAt.UTC()
	if reminder.Status == "" {
		reminder.Status = model.StatusPending
	}
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *ReminderRepository) GetByID(ctx context.Context, id uint64) (*model.Reminder, error) {
	var reminder model.Reminder
	if err := r.db.WithContext(ctx).Preload("Webhook").First(&reminder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) List(ctx context.Context, filter ReminderFilter) ([]model.Reminder, int64, error) {
	var reminders []model.Reminder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Reminder{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Webhook").
		Order("remind_at DESC").Order("id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&reminders).Error
	if err != nil {
		return nil, 0, err
	}
	return reminders, total, nil
}

// ListDue returns at most limit pending reminders whose due time is at or
// before now, with their webhook preloaded. A reminder whose webhook row is
// gone comes back with a nil Webhook.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Preload("Webhook").
		Where("status = ? AND remind_at <= ?", model.StatusPending, now.UTC()).
		Order("remind_at ASC").Order("id ASC").
		Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

// UpdateStatus moves a reminder to status in a single conditional write.
// errorMessage is stored only for failed; every other status clears it.
func (r *ReminderRepository) UpdateStatus(ctx context.Context, id uint64, status model.Status, errorMessage *string) (*model.Reminder, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}

	var msg any
	if status == model.StatusFailed {
		text := "Unknown error"
		if errorMessage != nil && *errorMessage != "" {
			text = *errorMessage
		}
		msg = text
	}

	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND status IN ?", id, model.SourcesOf(status)).
		Updates(map[string]any{
			"status":        status,
			"error_message": msg,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, r.explainMiss(ctx, id, status)
	}
	return r.GetByID(ctx, id)
}

// ResetToPending re-queues a failed reminder.
func (r *ReminderRepository) ResetToPending(ctx context.Context, id uint64) (*model.Reminder, error) {
	return r.UpdateStatus(ctx, id, model.StatusPending, nil)
}

// UpdatePending applies fields only while the reminder is still pending.
func (r *ReminderRepository) UpdatePending(ctx context.Context, id uint64, fields map[string]any) (*model.Reminder, error) {
	if len(fields) == 0 {
		reminder, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !reminder.Status.Editable() {
			return nil, fmt.Errorf("%w: reminder %d is %s", ErrInvalidState, id, reminder.Status)
		}
		return reminder, nil
	}

	updates := make(map[string]any, len(fields))
	for k, v := range fields {
		updates[k] = v
	}
	if at, ok := updates["remind_at"].(time.Time); ok {
		updates["remind_at"] = at.UTC()
	}

	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, r.explainMiss(ctx, id, "")
	}
	return r.GetByID(ctx, id)
}

func (r *ReminderRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&model.Reminder{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (r *ReminderRepository) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[model.Status]int64{
		model.StatusPending: 0,
		model.StatusSent:    0,
		model.StatusFailed:  0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *ReminderRepository) CountByWebhook(ctx context.Context, webhookID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("webhook_id = ?", webhookID).
		Count(&count).Error
	return count, err
}

func (r *ReminderRepository) WithTx(tx *gorm.DB) ReminderInterface {
	return &ReminderRepository{db: tx}
}

// explainMiss turns a zero-row conditional update into NotFound or
// InvalidState. next is the status the write tried to reach, empty for
// field edits.
func (r *ReminderRepository) explainMiss(ctx context.Context, id uint64, next model.Status) error {
	var current model.Reminder
	err := r.db.WithContext(ctx).Select("id", "status").First(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReminderNotFound
	}
	if err != nil {
		return err
	}
	if next != "" && current.Status.CanTransitionTo(next) {
		// another writer moved it away and back between the update and this read
		return fmt.Errorf("%w: reminder %d changed concurrently", ErrInvalidState, id)
	}
	if next != "" {
		return fmt.Errorf("%w: reminder %d is %s, cannot move to %s", ErrInvalidState, id, current.Status, next)
	}
	return fmt.Errorf("%w: reminder %d is %s", ErrInvalidState, id, current.Status)
}
