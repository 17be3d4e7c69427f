package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/sirupsen/logrus"
)

// histogram range in microseconds: 1us to 1h, 3 significant digits
const (
	minLatencyUs = 1
	maxLatencyUs = int64(time.Hour / time.Microsecond)
)

// SpecMetrics represents one finished spec
type SpecMetrics struct {
	Suite      string  `json:"suite"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	DurationMs float64 `json:"duration_ms"`
	Failures   int     `json:"failures,omitempty"`
}

// AggregateMetrics represents the metrics of a whole run
type AggregateMetrics struct {
	RunID         string                     `json:"run_id"`
	Start         time.Time                  `json:"start"`
	TotalSpecs    int64                      `json:"total_specs"`
	ExecutedCount int64                      `json:"executed_count"`
	PassedCount   int64                      `json:"passed_count"`
	FailedCount   int64                      `json:"failed_count"`
	PendingCount  int64                      `json:"pending_count"`
	DisabledCount int64                      `json:"disabled_count"`
	RunDurationMs float64                    `json:"run_duration_ms"`
	MinDurationMs float64                    `json:"min_duration_ms"`
	MaxDurationMs float64                    `json:"max_duration_ms"`
	AvgDurationMs float64                    `json:"avg_duration_ms"`
	P50DurationMs float64                    `json:"p50_duration_ms"`
	P95DurationMs float64                    `json:"p95_duration_ms"`
	P99DurationMs float64                    `json:"p99_duration_ms"`
	ByStatus      map[string]int64           `json:"by_status"`
	BySuite       map[string]*SuiteAggregate `json:"by_suite"`
	Specs         []*SpecMetrics             `json:"specs"`
}

// SuiteAggregate represents the metrics of a suite and everything below it.
// Name is the BySuite key: the suite path, with the id added when two suites
// share a path.
type SuiteAggregate struct {
	Name          string  `json:"name"`
	ID            string  `json:"id"`
	Depth         int     `json:"depth"`
	Specs         int64   `json:"specs"`
	Failures      int64   `json:"failures"`
	Skipped       int64   `json:"skipped"`
	DurationMs    float64 `json:"duration_ms"`
	AvgSpecMs     float64 `json:"avg_spec_ms"`
	MinSpecMs     float64 `json:"min_spec_ms"`
	MaxSpecMs     float64 `json:"max_spec_ms"`
	executedSpecs int64
}

// Exporter is the interface for metrics exporters
type Exporter interface {
	// Export exports metrics to the target destination
	Export(metrics *AggregateMetrics) error

	// Close flushes any buffered data
	Close() error
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func suiteName(s *tree.SuiteNode) string {
	return strings.Join(s.Path(), " ")
}

// suiteKeys names every suite of run by its path. Suites sharing a path are
// told apart by their id, and by position when the ids repeat too.
func suiteKeys(run *tree.Run) map[*tree.SuiteNode]string {
	suites := run.Suites()
	count := make(map[string]int, len(suites))
	for _, s := range suites {
		count[suiteName(s)]++
	}

	keys := make(map[*tree.SuiteNode]string, len(suites))
	used := make(map[string]bool, len(suites))
	for _, s := range suites {
		key := suiteName(s)
		if count[key] > 1 {
			key = fmt.Sprintf("%s [%s]", key, s.ID)
		}
		for n := 2; used[key]; n++ {
			key = fmt.Sprintf("%s [%s#%d]", suiteName(s), s.ID, n)
		}
		used[key] = true
		keys[s] = key
	}
	return keys
}

func recordLatency(h *hdrhistogram.Histogram, d time.Duration) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = h.RecordValue(us)
}

// FromRun computes the metrics of a finished run. Durations only cover specs
// that were executed; pending and disabled specs are counted but not timed.
func FromRun(run *tree.Run) *AggregateMetrics {
	t := run.Totals
	m := &AggregateMetrics{
		RunID:         run.ID,
		Start:         run.Start,
		TotalSpecs:    int64(t.Total()),
		ExecutedCount: int64(t.Executed),
		PassedCount:   int64(t.Passed),
		FailedCount:   int64(t.Failed),
		PendingCount:  int64(t.Pending),
		DisabledCount: int64(t.DisabledTotal()),
		RunDurationMs: millis(run.Duration()),
		ByStatus:      make(map[string]int64),
		BySuite:       make(map[string]*SuiteAggregate),
	}

	keys := suiteKeys(run)
	for _, s := range run.Suites() {
		c := s.Total()
		m.BySuite[keys[s]] = &SuiteAggregate{
			Name:       keys[s],
			ID:         s.ID,
			Depth:      s.Depth(),
			Specs:      int64(c.Specs),
			Failures:   int64(c.Failures),
			Skipped:    int64(c.Skipped + c.Disabled),
			DurationMs: millis(s.Duration()),
		}
	}

	h := hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
	var total float64
	var timed int64
	for _, spec := range run.Specs() {
		ms := millis(spec.Duration())
		m.ByStatus[string(spec.Status)]++
		m.Specs = append(m.Specs, &SpecMetrics{
			Suite:      keys[spec.Suite()],
			Name:       spec.Description,
			Status:     string(spec.Status),
			DurationMs: ms,
			Failures:   len(spec.Failures),
		})
		if spec.Status.NotRun() {
			continue
		}

		recordLatency(h, spec.Duration())
		if timed == 0 || ms < m.MinDurationMs {
			m.MinDurationMs = ms
		}
		if ms > m.MaxDurationMs {
			m.MaxDurationMs = ms
		}
		total += ms
		timed++

		for p := spec.Suite(); p != nil; p = p.Parent() {
			updateSuite(m.BySuite[keys[p]], ms)
		}
	}

	if timed > 0 {
		m.AvgDurationMs = total / float64(timed)
		m.P50DurationMs = float64(h.ValueAtQuantile(50)) / 1000
		m.P95DurationMs = float64(h.ValueAtQuantile(95)) / 1000
		m.P99DurationMs = float64(h.ValueAtQuantile(99)) / 1000
	}
	return m
}

func updateSuite(sa *SuiteAggregate, ms float64) {
	if sa == nil {
		return
	}
	sa.executedSpecs++
	if sa.executedSpecs == 1 {
		sa.MinSpecMs = ms
		sa.MaxSpecMs = ms
	} else {
		if ms < sa.MinSpecMs {
			sa.MinSpecMs = ms
		}
		if ms > sa.MaxSpecMs {
			sa.MaxSpecMs = ms
		}
	}
	sa.AvgSpecMs = (sa.AvgSpecMs*float64(sa.executedSpecs-1) + ms) / float64(sa.executedSpecs)
}

// SuiteNames returns the suite names of m sorted
func (m *AggregateMetrics) SuiteNames() []string {
	names := make([]string, 0, len(m.BySuite))
	for name := range m.BySuite {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collector is a listener that builds the result tree and exports its metrics
// when the run finishes
type Collector struct {
	*tree.Collector
	exporters []Exporter
	aggregate *AggregateMetrics
	log       *logrus.Entry
}

// NewCollector creates a new metrics collector
func NewCollector(exporters ...Exporter) *Collector {
	return &Collector{
		Collector: tree.NewCollector(),
		exporters: exporters,
		log:       logrus.WithField("component", "metrics"),
	}
}

// RunFinished closes the run and exports its metrics to every exporter
func (c *Collector) RunFinished(info events.RunInfo) error {
	if err := c.Collector.RunFinished(info); err != nil {
		return err
	}
	c.aggregate = FromRun(c.Result())
	return c.Flush()
}

// GetAggregate returns the metrics of the last finished run
func (c *Collector) GetAggregate() *AggregateMetrics {
	return c.aggregate
}

// Flush exports the last run's metrics again
func (c *Collector) Flush() error {
	if c.aggregate == nil {
		return nil
	}
	var errs []error
	for _, exp := range c.exporters {
		if err := exp.Export(c.aggregate); err != nil {
			c.log.WithError(err).Error("failed to export metrics")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all exporters
func (c *Collector) Close() error {
	var errs []error
	for _, exp := range c.exporters {
		if err := exp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ events.Listener = (*Collector)(nil)
