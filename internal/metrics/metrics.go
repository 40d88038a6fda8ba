package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for a single sync run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	MachinesFetched *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	APIRequests     *prometheus.CounterVec
	SyncDuration    prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MachinesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "htb_notion_machines_fetched_total",
				Help: "Machines fetched from HTB by retirement status",
			},
			[]string{"status"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "htb_notion_actions_total",
				Help: "Reconciliation actions by kind (create, update, unchanged)",
			},
			[]string{"kind"},
		),
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "htb_notion_api_requests_total",
				Help: "HTTP requests issued by service and status code",
			},
			[]string{"service", "code"},
		),
		SyncDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "htb_notion_sync_duration_seconds",
				Help: "Wall-clock duration of the last sync run",
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "htb_notion_last_success_timestamp_seconds",
				Help: "Unix time of the last successful sync run",
			},
		),
	}

	m.registry.MustRegister(
		m.MachinesFetched,
		m.Actions,
		m.APIRequests,
		m.SyncDuration,
		m.LastSuccess,
	)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest counts one HTTP request. code is 0 for transport failures.
func (m *Metrics) ObserveRequest(service string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.APIRequests.WithLabelValues(service, label).Inc()
}

// ObserveFetched counts machines fetched for the given status
func (m *Metrics) ObserveFetched(retired bool, n int) {
	if m == nil {
		return
	}
	status := "active"
	if retired {
		status = "retired"
	}
	m.MachinesFetched.WithLabelValues(status).Add(float64(n))
}

// ObserveAction counts one reconciliation outcome
func (m *Metrics) ObserveAction(kind string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(kind).Inc()
}

// ObserveRun records the run duration and, on success, the completion time
func (m *Metrics) ObserveRun(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.SyncDuration.Set(d.Seconds())
	if success {
		m.LastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes all collectors to path in the Prometheus text format,
// for pickup by the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
