package repository

import (
	"context"
	"errors"
	"testing"

	"remindflow/internal/model"
)

func TestWebhook_SingleDefault(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookRepository(db)
	ctx := context.Background()

	first := &model.Webhook{Name: "a", URL: "http://a", IsDefault: true}
	second := &model.Webhook{Name: "b", URL: "http://b", IsDefault: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	def, err := repo.GetDefault(ctx)
	if err != nil {
		t.Fatalf("GetDefault: %v", err)
	}
	if def.ID != second.ID {
		t.Fatalf("expected newest default %d, got %d", second.ID, def.ID)
	}

	first.IsDefault = true
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	defaults := 0
	for _, w := range all {
		if w.IsDefault {
			defaults++
			if w.ID != first.ID {
				t.Errorf("unexpected default %d", w.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}
}

func TestWebhook_GetDefaultMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookRepository(db)

	if _, err := repo.GetDefault(context.Background()); !errors.Is(err, ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

func TestWebhook_DeleteBlockedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	webhooks := NewWebhookRepository(db)
	reminders := NewReminderRepository(db)
	ctx := context.Background()

	w := seedWebhook(t, db)
	r := seedReminder(t, reminders, w.ID, "uses it", base)

	err := webhooks.Delete(ctx, w.ID)
	var inUse *WebhookInUseError
	if !errors.As(err, &inUse) || inUse.Count != 1 {
		t.Fatalf("expected WebhookInUseError{1}, got %v", err)
	}
	if !errors.Is(err, ErrWebhookInUse) {
		t.Fatal("WebhookInUseError should match ErrWebhookInUse")
	}

	if err := reminders.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}
	if err := webhooks.Delete(ctx, w.ID); err != nil {
		t.Fatalf("delete unreferenced webhook: %v", err)
	}
	if _, err := webhooks.GetByID(ctx, w.ID); !errors.Is(err, ErrWebhookNotFound) {
		t.Fatalf("expected webhook gone, got %v", err)
	}
}

func TestWebhook_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookRepository(db)

	err := repo.Update(context.Background(), &model.Webhook{ID: 77, Name: "x", URL: "http://x"})
	if !errors.Is(err, ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}
