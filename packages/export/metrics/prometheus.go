package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const namespace = "specreport"

// PrometheusExporter exposes run metrics through a Prometheus registry. Every
// Export replaces the previous values; the registry can be written as a node
// exporter textfile, to a writer, or served over HTTP.
type PrometheusExporter struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	writer   io.Writer
	textfile string

	specs         *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	specDuration  *prometheus.GaugeVec
	suiteSpecs    *prometheus.GaugeVec
	suiteFailures *prometheus.GaugeVec
	suiteDuration *prometheus.GaugeVec
}

// PrometheusOption is a functional option for PrometheusExporter
type PrometheusOption func(*PrometheusExporter)

// WithPrometheusWriter writes the text exposition format to w on every Export
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

// WithPrometheusTextfile writes the registry to path on every Export
func WithPrometheusTextfile(path string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.textfile = path
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter
func NewPrometheusExporter(opts ...PrometheusOption) *PrometheusExporter {
	p := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		specs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "specs",
			Help:      "Specs of the last run by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		specDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spec_duration_seconds",
			Help:      "Duration of executed specs of the last run.",
		}, []string{"quantile"}),
		suiteSpecs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_specs",
			Help:      "Specs per suite, nested suites included.",
		}, []string{"suite"}),
		suiteFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_failures",
			Help:      "Failed specs per suite, nested suites included.",
		}, []string{"suite"}),
		suiteDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_duration_seconds",
			Help:      "Wall time per suite.",
		}, []string{"suite"}),
	}
	p.registry.MustRegister(p.specs, p.runDuration, p.specDuration, p.suiteSpecs, p.suiteFailures, p.suiteDuration)

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry holding the exported metrics
func (p *PrometheusExporter) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Export replaces the exported values with m
func (p *PrometheusExporter) Export(m *AggregateMetrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.specs.Reset()
	p.specs.WithLabelValues("passed").Set(float64(m.PassedCount))
	p.specs.WithLabelValues("failed").Set(float64(m.FailedCount))
	p.specs.WithLabelValues("pending").Set(float64(m.PendingCount))
	p.specs.WithLabelValues("disabled").Set(float64(m.DisabledCount))
	p.specs.WithLabelValues("total").Set(float64(m.TotalSpecs))

	p.runDuration.Set(m.RunDurationMs / 1000)

	p.specDuration.Reset()
	p.specDuration.WithLabelValues("min").Set(m.MinDurationMs / 1000)
	p.specDuration.WithLabelValues("max").Set(m.MaxDurationMs / 1000)
	p.specDuration.WithLabelValues("avg").Set(m.AvgDurationMs / 1000)
	p.specDuration.WithLabelValues("0.5").Set(m.P50DurationMs / 1000)
	p.specDuration.WithLabelValues("0.95").Set(m.P95DurationMs / 1000)
	p.specDuration.WithLabelValues("0.99").Set(m.P99DurationMs / 1000)

	p.suiteSpecs.Reset()
	p.suiteFailures.Reset()
	p.suiteDuration.Reset()
	for _, name := range m.SuiteNames() {
		sa := m.BySuite[name]
		p.suiteSpecs.WithLabelValues(name).Set(float64(sa.Specs))
		p.suiteFailures.WithLabelValues(name).Set(float64(sa.Failures))
		p.suiteDuration.WithLabelValues(name).Set(sa.DurationMs / 1000)
	}

	if p.textfile != "" {
		if err := prometheus.WriteToTextfile(p.textfile, p.registry); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}
	if p.writer != nil {
		if err := p.writeText(p.writer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func (p *PrometheusExporter) writeText(w io.Writer) error {
	families, err := p.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the registry holds no resources
func (p *PrometheusExporter) Close() error {
	return nil
}
