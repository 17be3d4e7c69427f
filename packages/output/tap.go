package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TAPReporter streams Test Anything Protocol output, one test point per spec
type TAPReporter struct {
	writer   io.Writer
	log      *logrus.Entry
	treeOpts []tree.Option
	builder  *tree.Builder
	count    int
}

type TAPOption func(*TAPReporter)

func NewTAPReporter(opts ...TAPOption) *TAPReporter {
	r := &TAPReporter{
		writer: os.Stdout,
		log:    logrus.WithField("reporter", "tap"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(r *TAPReporter) {
		r.writer = w
	}
}

func TAPWithLogger(log *logrus.Entry) TAPOption {
	return func(r *TAPReporter) {
		r.log = log
	}
}

func TAPWithTreeOptions(opts ...tree.Option) TAPOption {
	return func(r *TAPReporter) {
		r.treeOpts = append(r.treeOpts, opts...)
	}
}

type tapFailure struct {
	Message string `yaml:"message"`
	Matcher string `yaml:"matcher,omitempty"`
	Stack   string `yaml:"stack,omitempty"`
}

type tapDiagnostic struct {
	Failures []tapFailure `yaml:"failures"`
}

func (r *TAPReporter) RunStarted(info events.RunInfo) error {
	if err := r.builder.RunStarted(info); err != nil {
		return r.check(err)
	}
	r.count = 0
	fmt.Fprintln(r.writer, "TAP version 13")
	return nil
}

func (r *TAPReporter) SuiteStarted(suite events.SuiteInfo) error {
	_, err := r.builder.SuiteStarted(suite)
	return r.check(err)
}

func (r *TAPReporter) SpecStarted(spec events.SpecInfo) error {
	_, err := r.builder.SpecStarted(spec)
	return r.check(err)
}

func (r *TAPReporter) SpecDone(info events.SpecInfo) error {
	spec, err := r.builder.SpecDone(info)
	if err != nil {
		return r.check(err)
	}
	r.count++

	line := fmt.Sprintf("ok %d - %s: %s", r.count, spec.Suite().Description, spec.Description)
	switch spec.Status {
	case events.StatusFailed:
		line = "not " + line
	case events.StatusPending:
		line += " # SKIP disabled by xit or similar"
	case events.StatusDisabled:
		line += " # SKIP disabled by xit, ?spec=xyz or similar"
	}
	fmt.Fprintln(r.writer, line)

	if spec.Failed() && len(spec.Failures) > 0 {
		r.writeDiagnostic(spec.Failures)
	}
	return nil
}

func (r *TAPReporter) SuiteDone(suite events.SuiteInfo) error {
	_, err := r.builder.SuiteDone(suite)
	return r.check(err)
}

func (r *TAPReporter) RunFinished(info events.RunInfo) error {
	run, err := r.builder.RunFinished(info)
	if err != nil {
		return r.check(err)
	}

	t := run.Totals
	if t.Executed == 0 {
		fmt.Fprintln(r.writer, "1..0 # All tests disabled")
	} else {
		fmt.Fprintf(r.writer, "1..%d\n", t.Executed)
	}
	fmt.Fprintf(r.writer, "# %s, %s, %d skipped, %d disabled in %ss.\n",
		plural(t.Total(), "spec"), plural(t.Failed, "failure"), t.Pending, t.DisabledTotal(), seconds(run.Duration()))
	fmt.Fprintln(r.writer, "# NOTE: disabled specs are usually a result of xdescribe.")
	return nil
}

func (r *TAPReporter) writeDiagnostic(failures []events.Failure) {
	diag := tapDiagnostic{}
	for _, f := range failures {
		tf := tapFailure{Message: strings.TrimSpace(f.Message), Matcher: f.MatcherName}
		if f.Stack != f.Message {
			tf.Stack = f.Stack
		}
		diag.Failures = append(diag.Failures, tf)
	}

	data, err := yaml.Marshal(diag)
	if err != nil {
		r.log.WithError(err).Warn("failed to encode TAP diagnostic")
		return
	}

	fmt.Fprintln(r.writer, "  ---")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintln(r.writer, "  "+line)
	}
	fmt.Fprintln(r.writer, "  ...")
}

func (r *TAPReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

var _ events.Listener = (*TAPReporter)(nil)
