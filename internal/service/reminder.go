package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remindflow/internal/dto/req"
	"remindflow/internal/dto/resp"
	"remindflow/internal/model"
	"remindflow/internal/repository"
	"remindflow/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ReminderService struct {
	reminderRepo repository.ReminderInterface
	webhookRepo  repository.WebhookInterface
}

func NewReminderService(reminderRepo repository.ReminderInterface, webhookRepo repository.WebhookInterface) *ReminderService {
	return &ReminderService{
		reminderRepo: reminderRepo,
		webhookRepo:  webhookRepo,
	}
}

// Create stores a new pending reminder. Without a webhook id the default
// webhook is used.
func (s *ReminderService) Create(ctx context.Context, r req.CreateReminderRequest) (*model.Reminder, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if r.RemindAt.IsZero() {
		return nil, fmt.Errorf("%w: remindAt is required", ErrValidation)
	}

	webhookID, err := s.resolveWebhook(ctx, r.WebhookID)
	if err != nil {
		return nil, err
	}

	reminder := &model.Reminder{
		Title:     title,
		Content:   normalizeContent(r.Content),
		RemindAt:  r.RemindAt,
		Status:    model.StatusPending,
		WebhookID: webhookID,
	}
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}

	logger.Info("reminder created",
		zap.Uint64("id", reminder.ID),
		zap.Uint64("webhook_id", webhookID),
		zap.Time("remind_at", reminder.RemindAt),
		zap.String("operator", GetOperator(ctx)),
	)
	return s.reminderRepo.GetByID(ctx, reminder.ID)
}

func (s *ReminderService) Get(ctx context.Context, id uint64) (*model.Reminder, error) {
	return s.reminderRepo.GetByID(ctx, id)
}

func (s *ReminderService) List(ctx context.Context, r req.ListRemindersRequest) (*resp.ListRemindersResponse, error) {
	status := model.Status(r.Status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, r.Status)
	}

	page := r.Page
	if page < 1 {
		page = 1
	}
	pageSize := r.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	reminders, total, err := s.reminderRepo.List(ctx, repository.ReminderFilter{
		Status: status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]resp.ReminderItem, 0, len(reminders))
	for i := range reminders {
		items = append(items, resp.NewReminderItem(&reminders[i]))
	}

	return &resp.ListRemindersResponse{
		Data: items,
		Pagination: resp.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}, nil
}

// Update edits a reminder that has not been dispatched yet.
func (s *ReminderService) Update(ctx context.Context, id uint64, r req.UpdateReminderRequest) (*model.Reminder, error) {
	fields := make(map[string]any)

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		fields["title"] = title
	}
	if r.Content != nil {
		fields["content"] = normalizeContent(r.Content)
	}
	if r.RemindAt != nil {
		if r.RemindAt.IsZero() {
			return nil, fmt.Errorf("%w: remindAt cannot be empty", ErrValidation)
		}
		fields["remind_at"] = *r.RemindAt
	}
	if r.WebhookID != nil {
		if _, err := s.webhookRepo.GetByID(ctx, *r.WebhookID); err != nil {
			if errors.Is(err, repository.ErrWebhookNotFound) {
				return nil, fmt.Errorf("%w: webhook %d does not exist", ErrValidation, *r.WebhookID)
			}
			return nil, err
		}
		fields["webhook_id"] = *r.WebhookID
	}

	reminder, err := s.reminderRepo.UpdatePending(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	logger.Info("reminder updated", zap.Uint64("id", id), zap.String("operator", GetOperator(ctx)))
	return reminder, nil
}

func (s *ReminderService) Delete(ctx context.Context, id uint64) error {
	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("reminder deleted", zap.Uint64("id", id), zap.String("operator", GetOperator(ctx)))
	return nil
}

// Retry puts a failed reminder back in the queue for the next cycle.
func (s *ReminderService) Retry(ctx context.Context, id uint64) (*model.Reminder, error) {
	reminder, err := s.reminderRepo.ResetToPending(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Info("reminder re-queued", zap.Uint64("id", id), zap.String("operator", GetOperator(ctx)))
	return reminder, nil
}

func (s *ReminderService) Stats(ctx context.Context) (*resp.StatsResponse, error) {
	counts, err := s.reminderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &resp.StatsResponse{
		Pending: counts[model.StatusPending],
		Sent:    counts[model.StatusSent],
		Failed:  counts[model.StatusFailed],
	}
	stats.Total = stats.Pending + stats.Sent + stats.Failed
	return stats, nil
}

func (s *ReminderService) resolveWebhook(ctx context.Context, id *uint64) (uint64, error) {
	if id == nil {
		def, err := s.webhookRepo.GetDefault(ctx)
		if errors.Is(err, repository.ErrWebhookNotFound) {
			return 0, ErrNoDefaultWebhook
		}
		if err != nil {
			return 0, err
		}
		return def.ID, nil
	}

	if _, err := s.webhookRepo.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrWebhookNotFound) {
			return 0, fmt.Errorf("%w: webhook %d does not exist", ErrValidation, *id)
		}
		return 0, err
	}
	return *id, nil
}

// normalizeContent stores blank content as NULL.
func normalizeContent(content *string) *string {
	if content == nil || strings.TrimSpace(*content) == "" {
		return nil
	}
	return content
}
