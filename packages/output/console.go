package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// DefaultVerbosity prints one progress character per spec
const DefaultVerbosity = 2

// ConsoleReporter prints human readable results to a terminal.
//
// Verbosity 0 prints nothing, 1 prints failures and the final summary, 2 adds
// a progress character per spec and 3 prints the whole suite tree with a
// per-suite summary.
type ConsoleReporter struct {
	writer    io.Writer
	verbosity int
	noColor   bool
	log       *logrus.Entry
	treeOpts  []tree.Option
	builder   *tree.Builder

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	bold   *color.Color
}

type ConsoleOption func(*ConsoleReporter)

func NewConsoleReporter(opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{
		writer:    os.Stdout,
		verbosity: DefaultVerbosity,
		log:       logrus.WithField("reporter", "console"),
		green:     color.New(color.FgGreen, color.Bold),
		red:       color.New(color.FgRed, color.Bold),
		yellow:    color.New(color.FgYellow),
		bold:      color.New(color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.noColor {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.bold} {
			c.DisableColor()
		}
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.writer = w
	}
}

// WithVerbosity sets the detail level, clamped to 0..3
func WithVerbosity(v int) ConsoleOption {
	return func(r *ConsoleReporter) {
		switch {
		case v < 0:
			v = 0
		case v > 3:
			v = 3
		}
		r.verbosity = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.noColor = nc
	}
}

func ConsoleWithLogger(log *logrus.Entry) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.log = log
	}
}

func indent(depth int, s string) string {
	if depth <= 1 {
		return s
	}
	return strings.Repeat("  ", depth-1) + s
}

func (r *ConsoleReporter) RunStarted(info events.RunInfo) error {
	return r.check(r.builder.RunStarted(info))
}

func (r *ConsoleReporter) SuiteStarted(info events.SuiteInfo) error {
	suite, err := r.builder.SuiteStarted(info)
	if err != nil {
		return r.check(err)
	}
	if r.verbosity > 2 {
		fmt.Fprintln(r.writer, indent(suite.Depth(), r.bold.Sprint(suite.Description)))
	}
	return nil
}

func (r *ConsoleReporter) SpecStarted(info events.SpecInfo) error {
	opened := r.builder.State() == tree.Running && r.builder.Current() == nil
	spec, err := r.builder.SpecStarted(info)
	if err != nil {
		return r.check(err)
	}
	if r.verbosity > 2 {
		if opened {
			fmt.Fprintln(r.writer, r.bold.Sprint(spec.Suite().Description))
		}
		fmt.Fprint(r.writer, indent(spec.Suite().Depth()+1, spec.Description+" ..."))
	}
	return nil
}

func (r *ConsoleReporter) SpecDone(info events.SpecInfo) error {
	spec, err := r.builder.SpecDone(info)
	if err != nil {
		return r.check(err)
	}
	depth := spec.Suite().Depth() + 1

	switch r.verbosity {
	case 2:
		switch {
		case spec.Failed():
			fmt.Fprint(r.writer, r.red.Sprint("F"))
		case spec.Status.NotRun():
			fmt.Fprint(r.writer, r.yellow.Sprint("S"))
		default:
			fmt.Fprint(r.writer, r.green.Sprint("."))
		}
	case 3:
		switch {
		case spec.Failed():
			fmt.Fprintln(r.writer, " "+r.red.Sprint("Failed"))
		case spec.Status.NotRun():
			fmt.Fprintln(r.writer, " "+r.yellow.Sprint("Skipped"))
		default:
			fmt.Fprintln(r.writer, " "+r.green.Sprint("Passed"))
		}
	}

	if !spec.Failed() || r.verbosity == 0 {
		return nil
	}
	switch r.verbosity {
	case 1:
		fmt.Fprintln(r.writer, fullName(spec))
	case 2:
		fmt.Fprintln(r.writer)
		fmt.Fprintln(r.writer, indent(depth, fullName(spec)))
	}
	for _, f := range spec.Failures {
		fmt.Fprintln(r.writer, r.red.Sprint(indent(depth, "  "+f.Message)))
	}
	return nil
}

func (r *ConsoleReporter) SuiteDone(info events.SuiteInfo) error {
	suite, err := r.builder.SuiteDone(info)
	if err != nil {
		return r.check(err)
	}
	if r.verbosity < 3 {
		return nil
	}
	if suite.Disabled {
		fmt.Fprintln(r.writer, indent(suite.Depth(), r.bold.Sprint(suite.Description)))
	}
	r.suiteSummary(suite)
	return nil
}

func (r *ConsoleReporter) suiteSummary(suite *tree.SuiteNode) {
	c := suite.Total()
	skipped := c.Skipped + c.Disabled
	line := fmt.Sprintf("%d of %d passed (%d skipped).", c.Passed(), c.Specs, skipped)
	if c.Failures > 0 {
		line = r.red.Sprint(line)
	} else {
		line = r.green.Sprint(line)
	}
	fmt.Fprintln(r.writer, indent(suite.Depth(), line))
}

func (r *ConsoleReporter) RunFinished(info events.RunInfo) error {
	open := r.builder.Current()
	run, err := r.builder.RunFinished(info)
	if err != nil {
		return r.check(err)
	}
	if open != nil && open.Synthetic && r.verbosity > 2 {
		r.suiteSummary(open)
	}

	if r.verbosity == 2 {
		fmt.Fprintln(r.writer)
	}
	if r.verbosity > 0 {
		fmt.Fprintln(r.writer, r.Summary(run))
	}
	return nil
}

// Summary is the final SUCCESS or FAILURE line for run
func (r *ConsoleReporter) Summary(run *tree.Run) string {
	t := run.Totals
	line := fmt.Sprintf("%s, %s, %d skipped in %ss.",
		plural(t.Total(), "spec"), plural(t.Failed, "failure"), t.NotRun(), seconds(run.Duration()))
	if t.Failed > 0 {
		return r.red.Sprint("FAILURE: " + line)
	}
	return r.green.Sprint("SUCCESS: " + line)
}

func (r *ConsoleReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

func fullName(spec *tree.SpecNode) string {
	return strings.Join(append(spec.Suite().Path(), spec.Description), " ")
}

var _ events.Listener = (*ConsoleReporter)(nil)
