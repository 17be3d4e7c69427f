package output

import (
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/sirupsen/logrus"
)

// NameHook rewrites a generated suite or file name. suite is nil for the single
// file written when all results are consolidated.
type NameHook func(name string, suite *tree.SuiteNode) string

// OutputCapture collects what a spec writes while it runs
type OutputCapture interface {
	Start() error
	Stop() (string, error)
}

// XMLOption configures an XMLReporter
type XMLOption func(*XMLReporter)

// WithSink sets where rendered files go, the working directory by default
func WithSink(s sink.Sink) XMLOption {
	return func(r *XMLReporter) {
		r.sink = s
	}
}

// WithSavePath writes files below dir
func WithSavePath(dir string) XMLOption {
	return func(r *XMLReporter) {
		r.sink = sink.NewDir(dir)
	}
}

// WithConsolidateAll writes the whole run into one file (default true)
func WithConsolidateAll(v bool) XMLOption {
	return func(r *XMLReporter) {
		r.consolidateAll = v
	}
}

// WithConsolidate writes one file per root suite instead of one per suite
// when not consolidating all (default true)
func WithConsolidate(v bool) XMLOption {
	return func(r *XMLReporter) {
		r.consolidate = v
	}
}

// WithDotNotation joins qualified suite names with "." instead of " " (default true)
func WithDotNotation(v bool) XMLOption {
	return func(r *XMLReporter) {
		r.useDotNotation = v
	}
}

// WithFilePrefix overrides the dialect's default file prefix
func WithFilePrefix(prefix string) XMLOption {
	return func(r *XMLReporter) {
		r.filePrefix = prefix
		r.prefixSet = true
	}
}

// WithPackage sets the package attribute. Values that are not strings are ignored.
func WithPackage(v any) XMLOption {
	return func(r *XMLReporter) {
		if s, ok := v.(string); ok {
			r.pkg = s
		}
	}
}

// WithStylesheetPath adds an xml-stylesheet instruction to every file. Values
// that are not non-empty strings are ignored.
func WithStylesheetPath(v any) XMLOption {
	return func(r *XMLReporter) {
		if s, ok := v.(string); ok && s != "" {
			r.stylesheet = s
		}
	}
}

// WithSuppressDisabled omits the disabled count from the summary element
func WithSuppressDisabled(v bool) XMLOption {
	return func(r *XMLReporter) {
		r.suppressDisabled = v
	}
}

// WithCaptureStdout records os.Stdout per spec into the report
func WithCaptureStdout(v bool) XMLOption {
	return func(r *XMLReporter) {
		r.captureStdout = v
	}
}

// WithOutputCapture replaces the stdout capturer used by WithCaptureStdout
func WithOutputCapture(c OutputCapture) XMLOption {
	return func(r *XMLReporter) {
		r.capture = c
	}
}

// WithReportName names the report root where the dialect has one
func WithReportName(name string) XMLOption {
	return func(r *XMLReporter) {
		if name != "" {
			r.reportName = name
		}
	}
}

// WithModifySuiteName rewrites the suite name attribute. File names are not affected.
func WithModifySuiteName(fn NameHook) XMLOption {
	return func(r *XMLReporter) {
		r.modifySuiteName = fn
	}
}

// WithModifyReportFileName rewrites generated file names before ".xml" is appended
func WithModifyReportFileName(fn NameHook) XMLOption {
	return func(r *XMLReporter) {
		r.modifyReportFileName = fn
	}
}

// WithLocation sets the time zone of rendered timestamps, time.Local by default
func WithLocation(loc *time.Location) XMLOption {
	return func(r *XMLReporter) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithLogger sets the log entry protocol violations and write failures go to
func WithLogger(log *logrus.Entry) XMLOption {
	return func(r *XMLReporter) {
		if log != nil {
			r.log = log
		}
	}
}

// WithTreeOptions passes options through to the result tree builder
func WithTreeOptions(opts ...tree.Option) XMLOption {
	return func(r *XMLReporter) {
		r.treeOpts = append(r.treeOpts, opts...)
	}
}
