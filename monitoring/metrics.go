package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trafficlab/signalsim/ctrl"
)

// Metrics exposes the controller's activity as Prometheus metrics. It is a
// Sink.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal  prometheus.Counter
	Demand       *prometheus.GaugeVec // lane
	GreenSeconds *prometheus.GaugeVec // lane
	Elapsed      prometheus.Gauge
}

// NewMetrics creates and registers the controller metrics on a private
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalsim_cycles_total",
			Help: "Total completed control cycles",
		}),
		Demand: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalsim_lane_demand",
				Help: "Latest demand reading per lane (0-100)",
			},
			[]string{"lane"},
		),
		GreenSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalsim_lane_green_seconds",
				Help: "Latest allocated green seconds per lane",
			},
			[]string{"lane"},
		),
		Elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalsim_elapsed_seconds",
			Help: "Elapsed simulated seconds of the current run",
		}),
	}

	m.registry.MustRegister(
		m.CyclesTotal, m.Demand, m.GreenSeconds, m.Elapsed)

	return m
}

// CycleCompleted updates the metrics from one completed cycle.
func (m *Metrics) CycleCompleted(r ctrl.CycleResult) {
	m.CyclesTotal.Inc()
	m.Elapsed.Set(r.ElapsedSeconds)

	for _, l := range ctrl.Lanes() {
		m.Demand.WithLabelValues(l.String()).Set(r.Readings[l])
		m.GreenSeconds.WithLabelValues(l.String()).
			Set(float64(r.Allocation[l]))
	}
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
