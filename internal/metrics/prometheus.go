package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	dispatchTotal    *prometheus.CounterVec
	deliveryDuration prometheus.Histogram
	cycleDuration    prometheus.Histogram
	cycleAborts      prometheus.Counter
	cycleSkipped     prometheus.Counter
	lastClaimed      prometheus.Gauge
}

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remindflow_dispatch_total",
		Help: "Reminders processed by the dispatcher, by outcome",
	}, []string{"outcome"})
	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "remindflow_delivery_duration_seconds",
		Help:    "Webhook delivery latency",
		Buckets: prometheus.DefBuckets,
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "remindflow_cycle_duration_seconds",
		Help:    "Duration of a full dispatch cycle",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
	})
	cycleAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remindflow_cycle_aborts_total",
		Help: "Cycles aborted because the due batch could not be fetched",
	})
	cycleSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remindflow_cycle_skipped_total",
		Help: "Ticks skipped because a cycle was still running",
	})
	lastClaimed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "remindflow_cycle_claimed",
		Help: "Reminders claimed by the most recent cycle",
	})
)

func NewPrometheusObserver() DispatchObserver {
	return &prometheusObserver{
		dispatchTotal:    dispatchTotal,
		deliveryDuration: deliveryDuration,
		cycleDuration:    cycleDuration,
		cycleAborts:      cycleAborts,
		cycleSkipped:     cycleSkipped,
		lastClaimed:      lastClaimed,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) ObserveDispatch(event DispatchEvent) {
	p.dispatchTotal.WithLabelValues(string(event.Outcome)).Inc()
	if event.Latency > 0 {
		p.deliveryDuration.Observe(event.Latency.Seconds())
	}
}

func (p *prometheusObserver) ObserveCycle(claimed int, duration time.Duration, err error) {
	if err != nil {
		p.cycleAborts.Inc()
		return
	}
	p.lastClaimed.Set(float64(claimed))
	p.cycleDuration.Observe(duration.Seconds())
}

func (p *prometheusObserver) CycleSkipped() {
	p.cycleSkipped.Inc()
}
