package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
)

// JSONSchemaVersion is written to metadata.version of every document
const JSONSchemaVersion = "1.0"

// JSONExporter writes a run's metrics as one JSON document
type JSONExporter struct {
	writer   io.Writer
	filePath string
	pretty   bool
	slowest  int
	now      func() time.Time
}

// JSONOption configures a JSONExporter
type JSONOption func(*JSONExporter)

// WithJSONWriter writes each document to w
func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSONExporter) {
		j.writer = w
	}
}

// WithJSONFile replaces path with each document
func WithJSONFile(path string) JSONOption {
	return func(j *JSONExporter) {
		j.filePath = path
	}
}

// WithJSONPretty indents the document (default true)
func WithJSONPretty(pretty bool) JSONOption {
	return func(j *JSONExporter) {
		j.pretty = pretty
	}
}

// WithJSONSlowest sets how many of the slowest executed specs are listed (default 5)
func WithJSONSlowest(n int) JSONOption {
	return func(j *JSONExporter) {
		if n >= 0 {
			j.slowest = n
		}
	}
}

// NewJSONExporter creates a JSON metrics exporter
func NewJSONExporter(opts ...JSONOption) *JSONExporter {
	j := &JSONExporter{
		pretty:  true,
		slowest: 5,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JSONMetricsOutput is the document written per run
type JSONMetricsOutput struct {
	Metadata JSONMetadata      `json:"metadata"`
	Summary  *AggregateMetrics `json:"summary"`
	Failed   []*SpecMetrics    `json:"failed"`
	Slowest  []*SpecMetrics    `json:"slowest"`
}

// JSONMetadata identifies the run a document describes
type JSONMetadata struct {
	GeneratedAt string `json:"generated_at"`
	RunID       string `json:"run_id"`
	RunStart    string `json:"run_start"`
	Version     string `json:"version"`
}

// Document builds the output for m without writing it
func (j *JSONExporter) Document(m *AggregateMetrics) JSONMetricsOutput {
	failed := []*SpecMetrics{}
	var executed []*SpecMetrics
	for _, s := range m.Specs {
		switch s.Status {
		case string(events.StatusFailed):
			failed = append(failed, s)
			executed = append(executed, s)
		case string(events.StatusPassed):
			executed = append(executed, s)
		}
	}
	sort.SliceStable(executed, func(a, b int) bool {
		return executed[a].DurationMs > executed[b].DurationMs
	})
	if len(executed) > j.slowest {
		executed = executed[:j.slowest]
	}
	if executed == nil {
		executed = []*SpecMetrics{}
	}

	return JSONMetricsOutput{
		Metadata: JSONMetadata{
			GeneratedAt: j.now().Format(time.RFC3339),
			RunID:       m.RunID,
			RunStart:    m.Start.Format(time.RFC3339Nano),
			Version:     JSONSchemaVersion,
		},
		Summary: m,
		Failed:  failed,
		Slowest: executed,
	}
}

// Export writes the run's document to the configured writer and file
func (j *JSONExporter) Export(m *AggregateMetrics) error {
	doc := j.Document(m)

	var data []byte
	var err error
	if j.pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if j.filePath != "" {
		if err := writeFileAtomic(j.filePath, data); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}

	if j.writer != nil {
		if _, err := j.writer.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// Close is a no-op, every Export writes a complete document
func (j *JSONExporter) Close() error {
	return nil
}

// writeFileAtomic replaces path so readers never see a partial document
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
