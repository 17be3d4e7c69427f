package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrDataDogAPIKey is returned by Export when no API key is configured
var ErrDataDogAPIKey = errors.New("DataDog API key not configured")

// DataDogExporter submits run metrics to the DataDog series API
type DataDogExporter struct {
	apiKey   string
	site     string // e.g., "datadoghq.com", "datadoghq.eu"
	endpoint string
	tags     []string
	prefix   string
	client   *http.Client
	now      func() time.Time
}

// DataDogOption is a functional option for DataDogExporter
type DataDogOption func(*DataDogExporter)

// WithDataDogAPIKey sets the DataDog API key, DD_API_KEY by default
func WithDataDogAPIKey(apiKey string) DataDogOption {
	return func(d *DataDogExporter) {
		d.apiKey = apiKey
	}
}

// WithDataDogSite sets the DataDog site (e.g., "datadoghq.com", "datadoghq.eu")
func WithDataDogSite(site string) DataDogOption {
	return func(d *DataDogExporter) {
		if site != "" {
			d.site = site
		}
	}
}

// WithDataDogEndpoint posts series to url instead of the site's API
func WithDataDogEndpoint(url string) DataDogOption {
	return func(d *DataDogExporter) {
		d.endpoint = url
	}
}

// WithDataDogTags adds tags to every series
func WithDataDogTags(tags []string) DataDogOption {
	return func(d *DataDogExporter) {
		d.tags = append(d.tags, tags...)
	}
}

// WithDataDogPrefix sets the metric name prefix, "specreport" by default
func WithDataDogPrefix(prefix string) DataDogOption {
	return func(d *DataDogExporter) {
		d.prefix = prefix
	}
}

// WithDataDogClient sets the HTTP client used to submit series
func WithDataDogClient(c *http.Client) DataDogOption {
	return func(d *DataDogExporter) {
		if c != nil {
			d.client = c
		}
	}
}

// NewDataDogExporter creates a new DataDog metrics exporter
func NewDataDogExporter(opts ...DataDogOption) *DataDogExporter {
	d := &DataDogExporter{
		site:   "datadoghq.com",
		apiKey: os.Getenv("DD_API_KEY"),
		prefix: namespace,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}

	if site := os.Getenv("DD_SITE"); site != "" {
		d.site = site
	}

	for _, opt := range opts {
		opt(d)
	}
	return d
}

type datadogMetric struct {
	Metric string   `json:"metric"`
	Type   string   `json:"type"`
	Points [][]any  `json:"points"`
	Tags   []string `json:"tags,omitempty"`
}

type datadogPayload struct {
	Series []datadogMetric `json:"series"`
}

// series builds what Export submits for m
func (d *DataDogExporter) series(m *AggregateMetrics) []datadogMetric {
	now := float64(d.now().Unix())
	tags := append([]string{"run_id:" + m.RunID}, d.tags...)

	point := func(name, kind string, v float64, extra ...string) datadogMetric {
		return datadogMetric{
			Metric: d.prefix + "." + name,
			Type:   kind,
			Points: [][]any{{now, v}},
			Tags:   append(append([]string{}, extra...), tags...),
		}
	}

	series := []datadogMetric{
		point("specs.total", "count", float64(m.TotalSpecs)),
		point("specs.executed", "count", float64(m.ExecutedCount)),
		point("specs.passed", "count", float64(m.PassedCount)),
		point("specs.failed", "count", float64(m.FailedCount)),
		point("specs.pending", "count", float64(m.PendingCount)),
		point("specs.disabled", "count", float64(m.DisabledCount)),
		point("run.duration", "gauge", m.RunDurationMs/1000),
	}

	if m.ExecutedCount > 0 {
		series = append(series,
			point("spec.duration.avg", "gauge", m.AvgDurationMs/1000),
			point("spec.duration.min", "gauge", m.MinDurationMs/1000),
			point("spec.duration.max", "gauge", m.MaxDurationMs/1000),
			point("spec.duration.p50", "gauge", m.P50DurationMs/1000),
			point("spec.duration.p95", "gauge", m.P95DurationMs/1000),
			point("spec.duration.p99", "gauge", m.P99DurationMs/1000),
		)
	}

	for _, name := range m.SuiteNames() {
		sa := m.BySuite[name]
		suite := "suite:" + name
		series = append(series,
			point("suite.specs", "count", float64(sa.Specs), suite),
			point("suite.failures", "count", float64(sa.Failures), suite),
			point("suite.duration", "gauge", sa.DurationMs/1000, suite),
		)
	}
	return series
}

// Export submits the run's series to DataDog
func (d *DataDogExporter) Export(m *AggregateMetrics) error {
	if d.apiKey == "" {
		return ErrDataDogAPIKey
	}
	return d.send(d.series(m))
}

func (d *DataDogExporter) url() string {
	if d.endpoint != "" {
		return d.endpoint
	}
	return fmt.Sprintf("https://api.%s/api/v1/series", d.site)
}

func (d *DataDogExporter) send(series []datadogMetric) error {
	jsonData, err := json.Marshal(datadogPayload{Series: series})
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.url(), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("DataDog API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close closes the DataDog exporter
func (d *DataDogExporter) Close() error {
	return nil
}
