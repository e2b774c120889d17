package metrics

import "time"

type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeFailed     Outcome = "failed"
	OutcomeWriteError Outcome = "write_error"
)

// DispatchEvent describes what happened to one reminder in a cycle.
type DispatchEvent struct {
	ReminderID uint64
	WebhookID  uint64
	Outcome    Outcome
	Latency    time.Duration
	Err        error
}

type DispatchObserver interface {
	ObserveDispatch(event DispatchEvent)
	// ObserveCycle is called once per cycle. err is set when the batch fetch failed.
	ObserveCycle(claimed int, duration time.Duration, err error)
	CycleSkipped()
}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(DispatchEvent)          {}
func (nopObserver) ObserveCycle(int, time.Duration, error) {}
func (nopObserver) CycleSkipped()                          {}

func NewNopObserver() DispatchObserver {
	return nopObserver{}
}
