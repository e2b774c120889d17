package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"remindflow/internal/model"
)

// manualTrigger fires only when the test calls Fire.
type manualTrigger struct {
	mu       sync.Mutex
	fn       func()
	interval time.Duration
	stopped  bool
}

func (m *manualTrigger) Start(interval time.Duration, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = interval
	m.fn = fn
	return nil
}

func (m *manualTrigger) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTrigger) Fire() {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	fn()
}

// blockingDeliverer holds every delivery until release is closed.
type blockingDeliverer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingDeliverer) Deliver(ctx context.Context, url, title string, content *string) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestScheduler_StartRunsEagerCycle(t *testing.T) {
	f := newFixture(t)
	r := f.add(t, "startup", now.Add(-time.Minute), f.good.ID)

	trigger := &manualTrigger{}
	s := NewScheduler(NewDispatcher(f.reminders, f.deliverer, nil, 0), trigger, 0, nil).
		WithClock(func() time.Time { return now })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if trigger.interval != DefaultInterval {
		t.Errorf("expected default interval, got %v", trigger.interval)
	}
	if got := f.get(t, r.ID); got.Status != model.StatusSent {
		t.Fatalf("expected eager cycle to send, got %s", got.Status)
	}
}

func TestScheduler_TicksUseClock(t *testing.T) {
	f := newFixture(t)
	r := f.add(t, "later", now.Add(30*time.Second), f.good.ID)

	current := now
	trigger := &manualTrigger{}
	s := NewScheduler(NewDispatcher(f.reminders, f.deliverer, nil, 0), trigger, time.Minute, nil).
		WithClock(func() time.Time { return current })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if got := f.get(t, r.ID); got.Status != model.StatusPending {
		t.Fatalf("not yet due, got %s", got.Status)
	}

	current = now.Add(time.Minute)
	trigger.Fire()
	if got := f.get(t, r.ID); got.Status != model.StatusSent {
		t.Fatalf("expected sent after tick, got %s", got.Status)
	}
}

func TestScheduler_NoOverlap(t *testing.T) {
	f := newFixture(t)
	f.add(t, "slow", now.Add(-time.Minute), f.good.ID)

	deliverer := &blockingDeliverer{started: make(chan struct{}), release: make(chan struct{})}
	obs := &recordingObserver{}
	trigger := &manualTrigger{}
	s := NewScheduler(NewDispatcher(f.reminders, deliverer, obs, 0), trigger, time.Minute, obs).
		WithClock(func() time.Time { return now })

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case <-deliverer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("eager cycle never started")
	}

	// the eager cycle is still blocked in delivery
	trigger.Fire()
	trigger.Fire()

	close(deliverer.release)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.skipped != 2 {
		t.Fatalf("expected 2 skipped ticks, got %d", obs.skipped)
	}
	if obs.cycles != 1 {
		t.Fatalf("expected a single cycle, got %d", obs.cycles)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	trigger := &manualTrigger{}
	s := NewScheduler(NewDispatcher(f.reminders, f.deliverer, nil, 0), trigger, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	trigger.mu.Lock()
	defer trigger.mu.Unlock()
	if !trigger.stopped {
		t.Fatal("trigger was not stopped")
	}
}

func TestCronTrigger_FiresAndStops(t *testing.T) {
	trigger := NewCronTrigger()
	fired := make(chan struct{}, 10)

	if err := trigger.Start(time.Second, func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("cron trigger never fired")
	}
	trigger.Stop()
}
