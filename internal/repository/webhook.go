package repository

import (
	"context"
	"errors"

	"remindflow/internal/model"

	"gorm.io/gorm"
)

// WebhookInterface is the persistence gateway for delivery targets.
type WebhookInterface interface {
	List(ctx context.Context) ([]model.Webhook, error)
	GetByID(ctx context.Context, id uint64) (*model.Webhook, error)
	GetDefault(ctx context.Context) (*model.Webhook, error)
	Create(ctx context.Context, webhook *model.Webhook) error
	Update(ctx context.Context, webhook *model.Webhook) error
	Delete(ctx context.Context, id uint64) error
	PingContext(ctx context.Context) error
}

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) List(ctx context.Context) ([]model.Webhook, error) {
	var webhooks []model.Webhook
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&webhooks).Error
	return webhooks, err
}

func (r *WebhookRepository) GetByID(ctx context.Context, id uint64) (*model.Webhook, error) {
	var webhook model.Webhook
	if err := r.db.WithContext(ctx).First(&webhook, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return &webhook, nil
}

// GetDefault returns ErrWebhookNotFound when no webhook is marked default.
func (r *WebhookRepository) GetDefault(ctx context.Context) (*model.Webhook, error) {
	var webhook model.Webhook
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&webhook).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return &webhook, nil
}

// Create inserts the webhook, clearing any previous default in the same
// transaction when the new one is default.
func (r *WebhookRepository) Create(ctx context.Context, webhook *model.Webhook) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if webhook.IsDefault {
			if err := clearDefault(tx, 0); err != nil {
				return err
			}
		}
		return tx.Create(webhook).Error
	})
}

func (r *WebhookRepository) Update(ctx context.Context, webhook *model.Webhook) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if webhook.IsDefault {
			if err := clearDefault(tx, webhook.ID); err != nil {
				return err
			}
		}
		res := tx.Model(&model.Webhook{}).Where("id = ?", webhook.ID).Updates(map[string]any{
			"name":       webhook.Name,
			"url":        webhook.URL,
			"is_default": webhook.IsDefault,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWebhookNotFound
		}
		return nil
	})
}

// Delete refuses to remove a webhook that reminders still point at. The
// reference check and the delete share one transaction.
func (r *WebhookRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := NewReminderRepository(r.db).WithTx(tx).CountByWebhook(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &WebhookInUseError{Count: count}
		}

		res := tx.Delete(&model.Webhook{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWebhookNotFound
		}
		return nil
	})
}

func (r *WebhookRepository) PingContext(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func clearDefault(tx *gorm.DB, except uint64) error {
	return tx.Model(&model.Webhook{}).
		Where("is_default = ? AND id <> ?", true, except).
		Update("is_default", false).Error
}
