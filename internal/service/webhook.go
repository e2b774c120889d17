package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"remindflow/internal/dto/req"
	"remindflow/internal/model"
	"remindflow/internal/repository"
	"remindflow/pkg/logger"

	"go.uber.org/zap"
)

type WebhookService struct {
	webhookRepo repository.WebhookInterface
}

func NewWebhookService(webhookRepo repository.WebhookInterface) *WebhookService {
	return &WebhookService{webhookRepo: webhookRepo}
}

func (s *WebhookService) List(ctx context.Context) ([]model.Webhook, error) {
	return s.webhookRepo.List(ctx)
}

func (s *WebhookService) Create(ctx context.Context, r req.CreateWebhookRequest) (*model.Webhook, error) {
	w := &model.Webhook{
		Name:      strings.TrimSpace(r.Name),
		URL:       strings.TrimSpace(r.URL),
		IsDefault: r.IsDefault,
	}
	if err := validateWebhook(w); err != nil {
		return nil, err
	}
	if err := s.webhookRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	logger.Info("webhook created", zap.Uint64("id", w.ID), zap.Bool("default", w.IsDefault), zap.String("operator", GetOperator(ctx)))
	return w, nil
}

func (s *WebhookService) Update(ctx context.Context, id uint64, r req.UpdateWebhookRequest) (*model.Webhook, error) {
	w, err := s.webhookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Name != nil {
		w.Name = strings.TrimSpace(*r.Name)
	}
	if r.URL != nil {
		w.URL = strings.TrimSpace(*r.URL)
	}
	if r.IsDefault != nil {
		w.IsDefault = *r.IsDefault
	}
	if err := validateWebhook(w); err != nil {
		return nil, err
	}

	if err := s.webhookRepo.Update(ctx, w); err != nil {
		return nil, err
	}
	logger.Info("webhook updated", zap.Uint64("id", id), zap.String("operator", GetOperator(ctx)))
	return s.webhookRepo.GetByID(ctx, id)
}

// Delete fails with a *repository.WebhookInUseError while reminders reference the webhook.
func (s *WebhookService) Delete(ctx context.Context, id uint64) error {
	if err := s.webhookRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("webhook deleted", zap.Uint64("id", id), zap.String("operator", GetOperator(ctx)))
	return nil
}

func (s *WebhookService) Health(ctx context.Context) error {
	return s.webhookRepo.PingContext(ctx)
}

func validateWebhook(w *model.Webhook) error {
	if w.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL", ErrValidation)
	}
	return nil
}
