package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tick outcomes and call results used as label values.
const (
	OutcomeFound = "found"
	OutcomeEmpty = "empty"
	OutcomeError = "error"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the watcher's collectors.
type Metrics struct {
	ticks         *prometheus.CounterVec
	heartbeats    *prometheus.CounterVec
	registrations *prometheus.CounterVec
	tickLatency   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aw_watcher_network_ticks_total",
			Help: "Polling ticks by sampling outcome.",
		}, []string{"outcome"}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aw_watcher_network_heartbeats_total",
			Help: "Heartbeats submitted to the event-store by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aw_watcher_network_registrations_total",
			Help: "Bucket registration attempts, including retries, by result.",
		}, []string{"result"}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aw_watcher_network_tick_duration_seconds",
			Help:    "Time spent sampling and reporting in one tick.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	reg.MustRegister(m.ticks, m.heartbeats, m.registrations, m.tickLatency)
	return m
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Tick(outcome string, took time.Duration) {
	m.ticks.WithLabelValues(outcome).Inc()
	m.tickLatency.Observe(took.Seconds())
}

func (m *Metrics) Heartbeat(err error) {
	m.heartbeats.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Registration(err error) {
	m.registrations.WithLabelValues(result(err)).Inc()
}

// Ticks returns the tick counter for the given outcome.
func (m *Metrics) Ticks(outcome string) prometheus.Counter {
	return m.ticks.WithLabelValues(outcome)
}

// Registrations returns the registration attempt counter for the given result.
func (m *Metrics) Registrations(res string) prometheus.Counter {
	return m.registrations.WithLabelValues(res)
}

// Heartbeats returns the heartbeat counter for the given result.
func (m *Metrics) Heartbeats(res string) prometheus.Counter {
	return m.heartbeats.WithLabelValues(res)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
