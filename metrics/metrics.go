// Package metrics exports enumeration and delivery counters for Prometheus.
// A Metrics value is an assemble.Observer and wraps a transport.Deliverer.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cep-go/assemble"
	"cep-go/transport"
	"cep-go/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cep"

// Metrics owns a private registry so tests and embedders do not collide
// with the global one.
type Metrics struct {
	Registry *prometheus.Registry

	buses       *prometheus.CounterVec
	found       *prometheus.GaugeVec
	probes      *prometheus.CounterVec
	resolved    *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	lastSuccess prometheus.Gauge
	duration    prometheus.Histogram
	now         func() time.Time
}

var _ assemble.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		buses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bus_scans_total",
			Help: "Bus scans by bus id and outcome.",
		}, []string{"bus", "outcome"}),
		found: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "bus_devices_found",
			Help: "Addresses that answered on the last scan of each bus.",
		}, []string{"bus"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "probes_total",
			Help: "Feature probe runs by probe and outcome.",
		}, []string{"probe", "outcome"}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "chipsets_resolved_total",
			Help: "Addresses resolved to a chipset.",
		}, []string{"chipset"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "deliveries_total",
			Help: "Document deliveries by outcome.",
		}, []string{"outcome"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_delivery_success_timestamp_seconds",
			Help: "Unix time of the last accepted delivery.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "delivery_duration_seconds",
			Help:    "Delivery round-trip time.",
			Buckets: prometheus.DefBuckets,
		}),
		now: time.Now,
	}
	m.Registry.MustRegister(m.buses, m.found, m.probes, m.resolved, m.deliveries, m.lastSuccess, m.duration)
	return m
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

func (m *Metrics) BusScanned(busID, found int, ok bool) {
	id := strconv.Itoa(busID)
	m.buses.WithLabelValues(id, outcome(ok)).Inc()
	if ok {
		m.found.WithLabelValues(id).Set(float64(found))
	}
}

func (m *Metrics) ProbeDone(name string, ok bool) {
	m.probes.WithLabelValues(name, outcome(ok)).Inc()
}

func (m *Metrics) Resolved(chipset string) {
	m.resolved.WithLabelValues(chipset).Inc()
}

// Deliverer counts every delivery made through d.
func (m *Metrics) Deliverer(d transport.Deliverer) transport.Deliverer {
	return transport.DelivererFunc(func(ctx context.Context, doc types.Document, endpoint string) bool {
		start := m.now()
		ok := d.Deliver(ctx, doc, endpoint)
		m.duration.Observe(m.now().Sub(start).Seconds())
		m.deliveries.WithLabelValues(outcome(ok)).Inc()
		if ok {
			m.lastSuccess.Set(float64(m.now().Unix()))
		}
		return ok
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
