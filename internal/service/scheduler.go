package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"remindflow/internal/metrics"
	"remindflow/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultInterval = time.Minute

// Trigger fires fn periodically until stopped.
type Trigger interface {
	Start(interval time.Duration, fn func()) error
	Stop()
}

// CronTrigger drives the scheduler from a robfig/cron "@every" entry.
type CronTrigger struct {
	cron *cron.Cron
}

func NewCronTrigger() *CronTrigger {
	log := cronLogger{}
	return &CronTrigger{
		cron: cron.New(cron.WithChain(
			cron.Recover(log),
			cron.SkipIfStillRunning(log),
		), cron.WithLogger(log)),
	}
}

func (t *CronTrigger) Start(interval time.Duration, fn func()) error {
	if _, err := t.cron.AddFunc(fmt.Sprintf("@every %s", interval), fn); err != nil {
		return fmt.Errorf("schedule dispatch: %w", err)
	}
	t.cron.Start()
	return nil
}

// Stop waits for a running job to return.
func (t *CronTrigger) Stop() {
	<-t.cron.Stop().Done()
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

type Scheduler struct {
	dispatcher *Dispatcher
	trigger    Trigger
	interval   time.Duration
	observer   metrics.DispatchObserver
	now        func() time.Time

	running atomic.Bool
	ctx     context.Context
}

func NewScheduler(dispatcher *Dispatcher, trigger Trigger, interval time.Duration, observer metrics.DispatchObserver) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if observer == nil {
		observer = metrics.NewNopObserver()
	}
	return &Scheduler{
		dispatcher: dispatcher,
		trigger:    trigger,
		interval:   interval,
		observer:   observer,
		now:        time.Now,
		ctx:        context.Background(),
	}
}

// WithClock replaces the time source used to decide which reminders are due.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start arms the trigger and then runs one cycle immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if err := s.trigger.Start(s.interval, s.tick); err != nil {
		return err
	}
	logger.Info("scheduler started", zap.Duration("interval", s.interval))
	s.tick()
	return nil
}

func (s *Scheduler) Stop() {
	s.trigger.Stop()
	logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// tick runs one cycle unless another is still in flight.
func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("dispatch cycle still running, skipping tick")
		s.observer.CycleSkipped()
		return
	}
	defer s.running.Store(false)

	if s.ctx.Err() != nil {
		return
	}
	s.dispatcher.RunCycle(s.ctx, s.now())
}
