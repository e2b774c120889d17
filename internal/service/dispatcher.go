package service

import (
	"context"
	"fmt"
	"time"

	"remindflow/internal/metrics"
	"remindflow/internal/model"
	"remindflow/internal/repository"
	"remindflow/pkg/logger"

	"go.uber.org/zap"
)

const DefaultBatchSize = 100

// Deliverer posts one reminder notification to a webhook URL.
type Deliverer interface {
	Deliver(ctx context.Context, url, title string, content *string) error
}

// CycleReport summarises one dispatch cycle.
type CycleReport struct {
	Claimed     int
	Sent        int
	Failed      int
	WriteErrors int
}

type Dispatcher struct {
	reminderRepo repository.ReminderInterface
	deliverer    Deliverer
	observer     metrics.DispatchObserver
	batchSize    int
}

func NewDispatcher(reminderRepo repository.ReminderInterface, deliverer Deliverer, observer metrics.DispatchObserver, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if observer == nil {
		observer = metrics.NewNopObserver()
	}
	return &Dispatcher{
		reminderRepo: reminderRepo,
		deliverer:    deliverer,
		observer:     observer,
		batchSize:    batchSize,
	}
}

// RunCycle delivers every pending reminder due at or before now, up to the
// batch size. Failures are contained per reminder and never returned.
func (d *Dispatcher) RunCycle(ctx context.Context, now time.Time) CycleReport {
	var report CycleReport
	start := time.Now()

	due, err := d.reminderRepo.ListDue(ctx, now, d.batchSize)
	if err != nil {
		logger.Error("failed to fetch due reminders", zap.Error(err))
		d.observer.ObserveCycle(0, time.Since(start), err)
		return report
	}
	report.Claimed = len(due)

	for i := range due {
		if ctx.Err() != nil {
			logger.Warn("dispatch cycle interrupted", zap.Int("remaining", len(due)-i))
			break
		}
		d.dispatchOne(ctx, &due[i], &report)
	}

	d.observer.ObserveCycle(report.Claimed, time.Since(start), nil)
	if report.Claimed > 0 {
		logger.Info("dispatch cycle finished",
			zap.Int("claimed", report.Claimed),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
			zap.Int("write_errors", report.WriteErrors),
			zap.Duration("took", time.Since(start)),
		)
	}
	return report
}

func (d *Dispatcher) dispatchOne(ctx context.Context, reminder *model.Reminder, report *CycleReport) {
	event := metrics.DispatchEvent{ReminderID: reminder.ID, WebhookID: reminder.WebhookID}

	var deliveryErr error
	if reminder.Webhook == nil {
		deliveryErr = fmt.Errorf("webhook target %d not found", reminder.WebhookID)
	} else {
		started := time.Now()
		deliveryErr = d.deliverer.Deliver(ctx, reminder.Webhook.URL, reminder.Title, reminder.Content)
		event.Latency = time.Since(started)
	}

	if deliveryErr == nil {
		if _, err := d.reminderRepo.UpdateStatus(ctx, reminder.ID, model.StatusSent, nil); err != nil {
			d.writeFailed(reminder, event, report, err)
			return
		}
		report.Sent++
		event.Outcome = metrics.OutcomeSent
		d.observer.ObserveDispatch(event)
		logger.Info("reminder sent", zap.Uint64("id", reminder.ID), zap.Uint64("webhook_id", reminder.WebhookID))
		return
	}

	reason := deliveryErr.Error()
	if _, err := d.reminderRepo.UpdateStatus(ctx, reminder.ID, model.StatusFailed, &reason); err != nil {
		d.writeFailed(reminder, event, report, err)
		return
	}
	report.Failed++
	event.Outcome = metrics.OutcomeFailed
	event.Err = deliveryErr
	d.observer.ObserveDispatch(event)
	logger.Warn("reminder delivery failed",
		zap.Uint64("id", reminder.ID),
		zap.Uint64("webhook_id", reminder.WebhookID),
		zap.String("reason", reason),
	)
}

// writeFailed leaves the reminder pending so the next cycle selects it again.
func (d *Dispatcher) writeFailed(reminder *model.Reminder, event metrics.DispatchEvent, report *CycleReport, err error) {
	report.WriteErrors++
	event.Outcome = metrics.OutcomeWriteError
	event.Err = err
	d.observer.ObserveDispatch(event)
	logger.Error("failed to record reminder status", zap.Uint64("id", reminder.ID), zap.Error(err))
}
