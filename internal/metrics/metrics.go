// Package metrics exposes gesture, action and discovery counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifxswitch"

// Metrics owns a private registry so tests can create as many as they like.
// It implements discovery.Observer and actions.Observer.
type Metrics struct {
	registry *prometheus.Registry

	gestures       *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	discoveryRuns  *prometheus.CounterVec
	visible        prometheus.Gauge
	groupMembers   *prometheus.GaugeVec
	lastDiscovery  prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_total",
			Help:      "Gestures recognised per button and kind",
		}, []string{"pin", "kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Action invocations by outcome",
		}, []string{"action", "result"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time spent executing actions",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5},
		}, []string{"action"}),
		discoveryRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_runs_total",
			Help:      "Discovery passes (ok=1 success, error=failed scan)",
		}, []string{"result"}),
		visible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_devices",
			Help:      "Devices seen in the last discovery pass",
		}),
		groupMembers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_members",
			Help:      "Devices currently assigned to each group",
		}, []string{"group"}),
		lastDiscovery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_discovery_timestamp_seconds",
			Help:      "Last successful discovery pass (epoch seconds)",
		}),
	}

	m.registry.MustRegister(
		m.gestures,
		m.actions,
		m.actionDuration,
		m.discoveryRuns,
		m.visible,
		m.groupMembers,
		m.lastDiscovery,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gesture counts a recognised gesture
func (m *Metrics) Gesture(pin int, kind string) {
	m.gestures.WithLabelValues(strconv.Itoa(pin), kind).Inc()
}

// ActionDone records an action outcome
func (m *Metrics) ActionDone(action, result string, elapsed time.Duration) {
	m.actions.WithLabelValues(action, result).Inc()
	m.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// DiscoveryPass records one discovery scan
func (m *Metrics) DiscoveryPass(visible int, err error) {
	if err != nil {
		m.discoveryRuns.WithLabelValues("error").Inc()
		return
	}
	m.discoveryRuns.WithLabelValues("ok").Inc()
	m.visible.Set(float64(visible))
	m.lastDiscovery.SetToCurrentTime()
}

// GroupSize records a group's membership count
func (m *Metrics) GroupSize(group string, size int) {
	m.groupMembers.WithLabelValues(group).Set(float64(size))
}
