package socket

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kleeedolinux/liveview/event"
)

const metricNamespace = "liveview"

// Metrics counts connections and classified events.
type Metrics struct {
	connections  prometheus.Gauge
	events       *prometheus.CounterVec
	discarded    prometheus.Counter
	decodeErrors prometheus.Counter
	unmounted    prometheus.Counter
	mounts       prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg, if non-nil.
// Servers built with Metrics from the same registry share its collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Name:      "connections",
			Help:      "Currently open liveview sockets.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "events_total",
			Help:      "Client events classified, by kind.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "events_without_data_total",
			Help:      "Client events that carried no event data (clicks, window focus and blur).",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "frame_decode_errors_total",
			Help:      "Client frames that failed to decode.",
		}),
		unmounted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "unmounted_events_total",
			Help:      "Client events dropped because their liveview was not mounted on the socket.",
		}),
		mounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "mounts_total",
			Help:      "Liveview mounts received.",
		}),
	}
	if reg == nil {
		return m
	}

	m.connections = register(reg, m.connections)
	m.events = register(reg, m.events)
	m.discarded = register(reg, m.discarded)
	m.decodeErrors = register(reg, m.decodeErrors)
	m.unmounted = register(reg, m.unmounted)
	m.mounts = register(reg, m.mounts)
	return m
}

// register adds c to reg. A collector registered earlier under the same
// description is reused instead; any other registration error panics.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func (m *Metrics) observeEvent(data event.Data, ok bool) {
	if !ok {
		m.discarded.Inc()
		return
	}
	m.events.WithLabelValues(string(event.KindOf(data))).Inc()
}
