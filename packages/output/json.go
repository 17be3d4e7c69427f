package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/sirupsen/logrus"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Suites   []JSONSuite `json:"suites"`
	Duration float64     `json:"duration"`
	Start    string      `json:"start"`
	End      string      `json:"end"`
}

// JSONSummary represents whole-run totals
type JSONSummary struct {
	Total    int `json:"total"`
	Executed int `json:"executed"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Pending  int `json:"pending"`
	Disabled int `json:"disabled"`
}

// JSONSuite represents a suite and everything below it
type JSONSuite struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	FullName  string      `json:"fullName"`
	Disabled  bool        `json:"disabled,omitempty"`
	Synthetic bool        `json:"synthetic,omitempty"`
	Duration  float64     `json:"duration"`
	Tests     int         `json:"tests"`
	Failures  int         `json:"failures"`
	Skipped   int         `json:"skipped"`
	Specs     []JSONSpec  `json:"specs"`
	Suites    []JSONSuite `json:"suites,omitempty"`
}

// JSONSpec represents a single spec result
type JSONSpec struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	Duration      float64       `json:"duration"`
	PendingReason string        `json:"pendingReason,omitempty"`
	Failures      []JSONFailure `json:"failures,omitempty"`
	Output        string        `json:"output,omitempty"`
}

// JSONFailure represents a failed expectation
type JSONFailure struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Matcher string `json:"matcher,omitempty"`
}

// JSONReporter writes the finished result tree as one JSON document
type JSONReporter struct {
	sink     sink.Sink
	prefix   string
	log      *logrus.Entry
	treeOpts []tree.Option
	builder  *tree.Builder
}

type JSONOption func(*JSONReporter)

func NewJSONReporter(opts ...JSONOption) *JSONReporter {
	r := &JSONReporter{
		sink:   sink.NewDir(""),
		prefix: "specresults",
		log:    logrus.WithField("reporter", "json"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(r *JSONReporter) {
		r.sink = sink.NewWriter(w)
	}
}

func JSONWithSink(s sink.Sink) JSONOption {
	return func(r *JSONReporter) {
		r.sink = s
	}
}

func JSONWithFilePrefix(prefix string) JSONOption {
	return func(r *JSONReporter) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func JSONWithLogger(log *logrus.Entry) JSONOption {
	return func(r *JSONReporter) {
		r.log = log
	}
}

func (r *JSONReporter) RunStarted(info events.RunInfo) error {
	return r.check(r.builder.RunStarted(info))
}

func (r *JSONReporter) SuiteStarted(info events.SuiteInfo) error {
	_, err := r.builder.SuiteStarted(info)
	return r.check(err)
}

func (r *JSONReporter) SpecStarted(info events.SpecInfo) error {
	_, err := r.builder.SpecStarted(info)
	return r.check(err)
}

func (r *JSONReporter) SpecDone(info events.SpecInfo) error {
	_, err := r.builder.SpecDone(info)
	return r.check(err)
}

func (r *JSONReporter) SuiteDone(info events.SuiteInfo) error {
	_, err := r.builder.SuiteDone(info)
	return r.check(err)
}

// RunFinished encodes the run and writes it to the sink
func (r *JSONReporter) RunFinished(info events.RunInfo) error {
	run, err := r.builder.RunFinished(info)
	if err != nil {
		return r.check(err)
	}

	data, err := json.MarshalIndent(BuildJSON(run), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	data = append(data, '\n')
	return sink.WriteAll(r.sink, []sink.File{{Name: r.prefix + ".json", Content: data}}, r.log)
}

// BuildJSON converts a finished run to its JSON document
func BuildJSON(run *tree.Run) JSONOutput {
	t := run.Totals
	out := JSONOutput{
		RunID: run.ID,
		Summary: JSONSummary{
			Total:    t.Total(),
			Executed: t.Executed,
			Passed:   t.Passed,
			Failed:   t.Failed,
			Pending:  t.Pending,
			Disabled: t.DisabledTotal(),
		},
		Suites:   make([]JSONSuite, 0, len(run.Roots)),
		Duration: float64(run.Duration().Milliseconds()),
		Start:    run.Start.Format(time.RFC3339Nano),
		End:      run.End.Format(time.RFC3339Nano),
	}
	for _, root := range run.Roots {
		out.Suites = append(out.Suites, jsonSuite(root))
	}
	return out
}

func jsonSuite(s *tree.SuiteNode) JSONSuite {
	c := s.Direct()
	js := JSONSuite{
		ID:        s.ID,
		Name:      s.Description,
		FullName:  QualifiedName(s, " "),
		Disabled:  s.Disabled,
		Synthetic: s.Synthetic,
		Duration:  float64(s.Duration().Milliseconds()),
		Tests:     c.Specs,
		Failures:  c.Failures,
		Skipped:   c.Skipped + c.Disabled,
		Specs:     make([]JSONSpec, 0, len(s.Specs())),
	}
	for _, spec := range s.Specs() {
		sp := JSONSpec{
			ID:            spec.ID,
			Name:          spec.Description,
			Status:        string(spec.Status),
			Duration:      float64(spec.Duration().Milliseconds()),
			PendingReason: spec.PendingReason,
			Output:        spec.Output,
		}
		for _, f := range spec.Failures {
			sp.Failures = append(sp.Failures, JSONFailure{Message: f.Message, Stack: f.Stack, Matcher: f.MatcherName})
		}
		js.Specs = append(js.Specs, sp)
	}
	for _, child := range s.Suites() {
		js.Suites = append(js.Suites, jsonSuite(child))
	}
	return js
}

func (r *JSONReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

var _ events.Listener = (*JSONReporter)(nil)
