package output

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/capture"
	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/sirupsen/logrus"
)

// XMLReporter builds the result tree from lifecycle events and, when the run
// finishes, renders it with its dialect and hands the files to the sink.
type XMLReporter struct {
	dialect Dialect

	consolidateAll       bool
	consolidate          bool
	useDotNotation       bool
	filePrefix           string
	prefixSet            bool
	pkg                  string
	stylesheet           string
	suppressDisabled     bool
	captureStdout        bool
	reportName           string
	modifySuiteName      NameHook
	modifyReportFileName NameHook
	location             *time.Location

	sink     sink.Sink
	capture  OutputCapture
	log      *logrus.Entry
	treeOpts []tree.Option

	builder   *tree.Builder
	capturing bool
	last      *tree.Run
}

// NewXMLReporter creates a reporter for any dialect
func NewXMLReporter(d Dialect, opts ...XMLOption) *XMLReporter {
	r := &XMLReporter{
		dialect:        d,
		consolidateAll: true,
		consolidate:    true,
		useDotNotation: true,
		reportName:     DefaultReportName,
		location:       time.Local,
		sink:           sink.NewDir(""),
		log:            logrus.WithField("reporter", d.Name()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.captureStdout && r.capture == nil {
		r.capture = capture.New()
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

// NewJUnitReporter creates a JUnit XML reporter
func NewJUnitReporter(opts ...XMLOption) *XMLReporter {
	return NewXMLReporter(JUnit{}, opts...)
}

// NewNUnitReporter creates an NUnit XML reporter
func NewNUnitReporter(opts ...XMLOption) *XMLReporter {
	return NewXMLReporter(NUnit{}, opts...)
}

// NewSonarReporter creates a Sonar generic test data reporter
func NewSonarReporter(opts ...XMLOption) *XMLReporter {
	return NewXMLReporter(Sonar{}, opts...)
}

// FilePrefix is the prefix every generated file name starts with
func (r *XMLReporter) FilePrefix() string {
	if r.prefixSet {
		return r.filePrefix
	}
	if r.consolidateAll || r.dialect.SingleFile() {
		return r.dialect.DefaultPrefix()
	}
	return r.dialect.DefaultPrefix() + "-"
}

// LastRun returns the most recently finished run
func (r *XMLReporter) LastRun() *tree.Run { return r.last }

func (r *XMLReporter) RunStarted(info events.RunInfo) error {
	return r.check(r.builder.RunStarted(info))
}

func (r *XMLReporter) SuiteStarted(suite events.SuiteInfo) error {
	_, err := r.builder.SuiteStarted(suite)
	return r.check(err)
}

func (r *XMLReporter) SpecStarted(spec events.SpecInfo) error {
	if _, err := r.builder.SpecStarted(spec); err != nil {
		return r.check(err)
	}
	if r.captureStdout {
		if err := r.capture.Start(); err != nil {
			r.log.WithError(err).WithField("spec", spec.ID).Warn("failed to capture spec output")
			return nil
		}
		r.capturing = true
	}
	return nil
}

func (r *XMLReporter) SpecDone(spec events.SpecInfo) error {
	output := r.stopCapture()
	_, err := r.builder.SpecDoneWithOutput(spec, output)
	return r.check(err)
}

func (r *XMLReporter) SuiteDone(suite events.SuiteInfo) error {
	_, err := r.builder.SuiteDone(suite)
	return r.check(err)
}

// RunFinished renders the run and writes every file. A failed write does not
// stop the remaining files.
func (r *XMLReporter) RunFinished(info events.RunInfo) error {
	r.stopCapture()

	run, err := r.builder.RunFinished(info)
	if err != nil {
		return r.check(err)
	}
	r.last = run

	files := r.Render(run)
	r.log.WithField("files", len(files)).WithField("run", run.ID).Debug("writing reports")
	if err := sink.WriteAll(r.sink, files, r.log); err != nil {
		return fmt.Errorf("%s: %w", r.dialect.Name(), err)
	}
	return nil
}

// Render turns a finished run into files according to the consolidation options
func (r *XMLReporter) Render(run *tree.Run) []sink.File {
	rc := r.renderContext(run)
	prefix := r.FilePrefix()

	if r.consolidateAll || r.dialect.SingleFile() {
		return []sink.File{r.file(rc, r.fileName(prefix, nil), run.Roots, true)}
	}

	var files []sink.File
	if r.consolidate {
		for _, root := range run.Roots {
			files = append(files, r.file(rc, r.fileName(prefix+fileStem(root), root), []*tree.SuiteNode{root}, true))
		}
		return files
	}
	for _, s := range run.Suites() {
		files = append(files, r.file(rc, r.fileName(prefix+fileStem(s), s), []*tree.SuiteNode{s}, false))
	}
	return files
}

func (r *XMLReporter) renderContext(run *tree.Run) *RenderContext {
	sep := " "
	if r.useDotNotation {
		sep = "."
	}
	return &RenderContext{
		Run:              run,
		Package:          r.pkg,
		ReportName:       r.reportName,
		SuppressDisabled: r.suppressDisabled,
		CaptureStdout:    r.captureStdout,
		separator:        sep,
		location:         r.location,
		modifySuiteName:  r.modifySuiteName,
	}
}

func (r *XMLReporter) fileName(base string, suite *tree.SuiteNode) string {
	if r.modifyReportFileName != nil {
		base = r.modifyReportFileName(base, suite)
	}
	return base + ".xml"
}

func (r *XMLReporter) file(rc *RenderContext, name string, suites []*tree.SuiteNode, recurse bool) sink.File {
	doc := &Document{}
	doc.Line(0, `<?xml version="1.0" encoding="`+r.dialect.Encoding()+`" ?>`)
	if r.stylesheet != "" {
		doc.Line(0, `<?xml-stylesheet type="text/xsl" href="`+Escape(r.stylesheet)+`" ?>`)
	}
	r.dialect.SummaryOpen(doc, rc)
	walk(doc, r.dialect, rc, suites, recurse)
	r.dialect.SummaryClose(doc, rc)
	return sink.File{Name: name, Content: []byte(doc.String())}
}

func (r *XMLReporter) stopCapture() string {
	if !r.capturing {
		return ""
	}
	r.capturing = false
	out, err := r.capture.Stop()
	if err != nil {
		r.log.WithError(err).Warn("failed to stop output capture")
	}
	return out
}

func (r *XMLReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

var _ events.Listener = (*XMLReporter)(nil)
