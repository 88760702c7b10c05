package render

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/spray.report/internal/spray"
)

// MetricsRenderer counts runs and visits as they are played.
type MetricsRenderer struct {
	gatherer prometheus.Gatherer

	RunsTotal      prometheus.Counter
	VisitsTotal    prometheus.Counter
	SprayedArea    prometheus.Counter
	PestSize       prometheus.Histogram
	RequiredPasses prometheus.Gauge
	Actuation      prometheus.Gauge
}

// NewMetricsRenderer registers spray metrics against reg, or the default
// registerer when reg is nil. Registering twice reuses the existing metrics.
func NewMetricsRenderer(reg prometheus.Registerer) (*MetricsRenderer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &MetricsRenderer{gatherer: gatherer}
	var err error
	if m.RunsTotal, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spray_runs_total",
		Help: "Spray runs played.",
	})); err != nil {
		return nil, err
	}
	if m.VisitsTotal, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spray_visits_total",
		Help: "Pests sprayed across all runs.",
	})); err != nil {
		return nil, err
	}
	if m.SprayedArea, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spray_sprayed_area_total",
		Help: "Cumulative pest area sprayed.",
	})); err != nil {
		return nil, err
	}
	if m.PestSize, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spray_pest_size",
		Help:    "Size of each sprayed pest.",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})); err != nil {
		return nil, err
	}
	if m.RequiredPasses, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spray_required_passes",
		Help: "Spray passes required by the most recent run.",
	})); err != nil {
		return nil, err
	}
	if m.Actuation, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spray_required_actuation",
		Help: "Actuator movement required by the most recent run.",
	})); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format.
func (m *MetricsRenderer) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Begin records the run summary.
func (m *MetricsRenderer) Begin(s Scene) error {
	m.RunsTotal.Inc()
	m.RequiredPasses.Set(s.Summary.RequiredPasses)
	m.Actuation.Set(s.Summary.RequiredActuation)
	return nil
}

// Frame counts one visit.
func (m *MetricsRenderer) Frame(f spray.Frame) error {
	m.VisitsTotal.Inc()
	m.SprayedArea.Add(f.Target.Size)
	m.PestSize.Observe(f.Target.Size)
	return nil
}

// End is a no-op.
func (m *MetricsRenderer) End() error { return nil }

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
