package output

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/sirupsen/logrus"
)

// HTMLOutput represents the data the HTML report template renders
type HTMLOutput struct {
	Title          string
	Summary        HTMLSummary
	Specs          []HTMLSpec
	Duration       string
	Time           string
	PassedPercent  float64
	FailedPercent  float64
	SkippedPercent float64
}

// HTMLSummary represents the run summary for HTML output
type HTMLSummary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// HTMLSpec represents a single spec row
type HTMLSpec struct {
	Suite         string
	Name          string
	StatusClass   string
	Duration      string
	PendingReason string
	Failures      []events.Failure
	Output        string
}

// HTMLReporter writes a standalone HTML page for the finished run
type HTMLReporter struct {
	sink     sink.Sink
	prefix   string
	title    string
	location *time.Location
	log      *logrus.Entry
	treeOpts []tree.Option
	builder  *tree.Builder
}

// HTMLOption is a functional option for HTMLReporter
type HTMLOption func(*HTMLReporter)

// NewHTMLReporter creates a new HTML reporter
func NewHTMLReporter(opts ...HTMLOption) *HTMLReporter {
	r := &HTMLReporter{
		sink:     sink.NewDir(""),
		prefix:   "specresults",
		title:    DefaultReportName,
		location: time.Local,
		log:      logrus.WithField("reporter", "html"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

// HTMLWithWriter sends the page to w instead of a file
func HTMLWithWriter(w io.Writer) HTMLOption {
	return func(r *HTMLReporter) {
		r.sink = sink.NewWriter(w)
	}
}

func HTMLWithSink(s sink.Sink) HTMLOption {
	return func(r *HTMLReporter) {
		r.sink = s
	}
}

func HTMLWithFilePrefix(prefix string) HTMLOption {
	return func(r *HTMLReporter) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func HTMLWithTitle(title string) HTMLOption {
	return func(r *HTMLReporter) {
		if title != "" {
			r.title = title
		}
	}
}

func HTMLWithLocation(loc *time.Location) HTMLOption {
	return func(r *HTMLReporter) {
		if loc != nil {
			r.location = loc
		}
	}
}

func HTMLWithLogger(log *logrus.Entry) HTMLOption {
	return func(r *HTMLReporter) {
		r.log = log
	}
}

func (r *HTMLReporter) RunStarted(info events.RunInfo) error {
	return r.check(r.builder.RunStarted(info))
}

func (r *HTMLReporter) SuiteStarted(info events.SuiteInfo) error {
	_, err := r.builder.SuiteStarted(info)
	return r.check(err)
}

func (r *HTMLReporter) SpecStarted(info events.SpecInfo) error {
	_, err := r.builder.SpecStarted(info)
	return r.check(err)
}

func (r *HTMLReporter) SpecDone(info events.SpecInfo) error {
	_, err := r.builder.SpecDone(info)
	return r.check(err)
}

func (r *HTMLReporter) SuiteDone(info events.SuiteInfo) error {
	_, err := r.builder.SuiteDone(info)
	return r.check(err)
}

// RunFinished renders the page and writes it to the sink
func (r *HTMLReporter) RunFinished(info events.RunInfo) error {
	run, err := r.builder.RunFinished(info)
	if err != nil {
		return r.check(err)
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, r.BuildHTML(run)); err != nil {
		return err
	}
	return sink.WriteAll(r.sink, []sink.File{{Name: r.prefix + ".html", Content: buf.Bytes()}}, r.log)
}

// BuildHTML flattens a finished run into template data
func (r *HTMLReporter) BuildHTML(run *tree.Run) HTMLOutput {
	t := run.Totals
	out := HTMLOutput{
		Title: r.title,
		Summary: HTMLSummary{
			Total:   t.Total(),
			Passed:  t.Passed,
			Failed:  t.Failed,
			Skipped: t.NotRun(),
		},
		Duration: seconds(run.Duration()),
		Time:     run.Start.In(r.location).Format("2006-01-02 15:04:05"),
	}

	for _, spec := range run.Specs() {
		row := HTMLSpec{
			Suite:         QualifiedName(spec.Suite(), " "),
			Name:          spec.Description,
			Duration:      seconds(spec.Duration()),
			PendingReason: spec.PendingReason,
			Failures:      spec.Failures,
			Output:        spec.Output,
		}
		switch {
		case spec.Failed():
			row.StatusClass = "failed"
		case spec.Status.NotRun():
			row.StatusClass = "skipped"
		default:
			row.StatusClass = "passed"
		}
		out.Specs = append(out.Specs, row)
	}

	if total := out.Summary.Total; total > 0 {
		out.PassedPercent = float64(out.Summary.Passed) / float64(total) * 100
		out.FailedPercent = float64(out.Summary.Failed) / float64(total) * 100
		out.SkippedPercent = float64(out.Summary.Skipped) / float64(total) * 100
	}
	return out
}

// RenderHTML executes the report template
func RenderHTML(w io.Writer, data HTMLOutput) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return tmpl.Execute(w, data)
}

func (r *HTMLReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

var _ events.Listener = (*HTMLReporter)(nil)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; color: #222; }
.bar { display: flex; height: 8px; border-radius: 4px; overflow: hidden; margin: 1rem 0; }
.bar .passed { background: #2da44e; }
.bar .failed { background: #cf222e; }
.bar .skipped { background: #bf8700; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; vertical-align: top; }
tr.failed td.status { color: #cf222e; }
tr.passed td.status { color: #2da44e; }
tr.skipped td.status { color: #bf8700; }
pre { margin: .3rem 0; white-space: pre-wrap; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Summary.Total}} specs, {{.Summary.Failed}} failures, {{.Summary.Skipped}} skipped in {{.Duration}}s ({{.Time}})</p>
<div class="bar">
<div class="passed" style="width: {{printf "%.1f" .PassedPercent}}%"></div>
<div class="failed" style="width: {{printf "%.1f" .FailedPercent}}%"></div>
<div class="skipped" style="width: {{printf "%.1f" .SkippedPercent}}%"></div>
</div>
<table>
<tr><th>Suite</th><th>Spec</th><th>Status</th><th>Time</th></tr>
{{range .Specs}}<tr class="{{.StatusClass}}">
<td>{{.Suite}}</td>
<td>{{.Name}}{{if .PendingReason}}<br><em>{{.PendingReason}}</em>{{end}}
{{range .Failures}}<pre>{{.Message}}
{{.Stack}}</pre>{{end}}{{if .Output}}<pre>{{.Output}}</pre>{{end}}</td>
<td class="status">{{.StatusClass}}</td>
<td>{{.Duration}}s</td>
</tr>
{{end}}</table>
</body>
</html>
`
