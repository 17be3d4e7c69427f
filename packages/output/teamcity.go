package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/sirupsen/logrus"
)

const teamCityProgress = "'Running Jasmine Tests'"

var teamCityEscaper = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"\u0085", "|x",
	"\u2028", "|l",
	"\u2029", "|p",
	"[", "|[",
	"]", "|]",
)

// EscapeTeamCity applies TeamCity service message escaping
func EscapeTeamCity(s string) string {
	return teamCityEscaper.Replace(s)
}

// TeamCityTimestamp renders t the way service messages expect it
func TeamCityTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000")
}

// TeamCityReporter streams TeamCity service messages
type TeamCityReporter struct {
	writer          io.Writer
	log             *logrus.Entry
	prefix          string
	modifySuiteName NameHook
	treeOpts        []tree.Option
	builder         *tree.Builder
}

type TeamCityOption func(*TeamCityReporter)

func NewTeamCityReporter(opts ...TeamCityOption) *TeamCityReporter {
	r := &TeamCityReporter{
		writer: os.Stdout,
		log:    logrus.WithField("reporter", "teamcity"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.builder = tree.NewBuilder(r.treeOpts...)
	return r
}

func TeamCityWithWriter(w io.Writer) TeamCityOption {
	return func(r *TeamCityReporter) {
		r.writer = w
	}
}

func TeamCityWithLogger(log *logrus.Entry) TeamCityOption {
	return func(r *TeamCityReporter) {
		r.log = log
	}
}

// TeamCityWithPrefix prepends prefix to every suite and spec name
func TeamCityWithPrefix(prefix string) TeamCityOption {
	return func(r *TeamCityReporter) {
		r.prefix = prefix
	}
}

// TeamCityWithModifySuiteName rewrites suite names. Spec names are not affected.
func TeamCityWithModifySuiteName(fn NameHook) TeamCityOption {
	return func(r *TeamCityReporter) {
		r.modifySuiteName = fn
	}
}

// TeamCityWithFocusedSuite names the suite wrapping specs reported outside any suite
func TeamCityWithFocusedSuite(info events.SuiteInfo) TeamCityOption {
	return func(r *TeamCityReporter) {
		r.treeOpts = append(r.treeOpts, tree.WithFocusedSuite(info))
	}
}

type tcAttr struct {
	name  string
	value string
}

func (r *TeamCityReporter) message(name string, attrs ...tcAttr) {
	var b strings.Builder
	b.WriteString("##teamcity[")
	b.WriteString(name)
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s='%s'", a.name, EscapeTeamCity(a.value))
	}
	b.WriteString("]")
	fmt.Fprintln(r.writer, b.String())
}

func (r *TeamCityReporter) suiteName(s *tree.SuiteNode) string {
	name := s.Description
	if r.modifySuiteName != nil {
		name = r.modifySuiteName(name, s)
	}
	return r.prefix + name
}

func (r *TeamCityReporter) suiteStarted(s *tree.SuiteNode) {
	r.message("testSuiteStarted",
		tcAttr{"name", r.suiteName(s)},
		tcAttr{"timestamp", TeamCityTimestamp(s.Start)})
}

func (r *TeamCityReporter) suiteFinished(s *tree.SuiteNode, at time.Time) {
	r.message("testSuiteFinished",
		tcAttr{"name", r.suiteName(s)},
		tcAttr{"timestamp", TeamCityTimestamp(at)})
}

// finishSynthetic reports the end of the focused container before the builder
// closes it implicitly
func (r *TeamCityReporter) finishSynthetic(at time.Time) {
	if cur := r.builder.Current(); cur != nil && cur.Synthetic && r.builder.OpenSpec() == nil {
		if at.IsZero() {
			at = time.Now()
		}
		r.suiteFinished(cur, at)
	}
}

func (r *TeamCityReporter) RunStarted(info events.RunInfo) error {
	if err := r.builder.RunStarted(info); err != nil {
		return r.check(err)
	}
	fmt.Fprintln(r.writer, "##teamcity[progressStart "+teamCityProgress+"]")
	return nil
}

func (r *TeamCityReporter) SuiteStarted(info events.SuiteInfo) error {
	if r.builder.State() == tree.Running {
		r.finishSynthetic(info.Time)
	}
	suite, err := r.builder.SuiteStarted(info)
	if err != nil {
		return r.check(err)
	}
	r.suiteStarted(suite)
	return nil
}

func (r *TeamCityReporter) SpecStarted(info events.SpecInfo) error {
	opened := r.builder.State() == tree.Running && r.builder.Current() == nil
	spec, err := r.builder.SpecStarted(info)
	if err != nil {
		return r.check(err)
	}
	if opened {
		r.suiteStarted(spec.Suite())
	}
	r.message("testStarted",
		tcAttr{"name", r.prefix + spec.Description},
		tcAttr{"captureStandardOutput", "true"},
		tcAttr{"timestamp", TeamCityTimestamp(spec.Start)})
	return nil
}

func (r *TeamCityReporter) SpecDone(info events.SpecInfo) error {
	spec, err := r.builder.SpecDone(info)
	if err != nil {
		return r.check(err)
	}
	name := r.prefix + spec.Description
	ts := TeamCityTimestamp(spec.End)

	if spec.Status.NotRun() {
		r.message("testIgnored", tcAttr{"name", name}, tcAttr{"timestamp", ts})
	}
	// only one testFailed message is allowed per test
	if spec.Failed() && len(spec.Failures) > 0 {
		f := spec.Failures[0]
		r.message("testFailed",
			tcAttr{"name", name},
			tcAttr{"message", f.Message},
			tcAttr{"details", f.Stack},
			tcAttr{"timestamp", ts})
	}
	r.message("testFinished", tcAttr{"name", name}, tcAttr{"timestamp", ts})
	return nil
}

func (r *TeamCityReporter) SuiteDone(info events.SuiteInfo) error {
	if r.builder.State() == tree.Running {
		r.finishSynthetic(info.Time)
	}
	suite, err := r.builder.SuiteDone(info)
	if err != nil {
		return r.check(err)
	}
	if suite.Disabled {
		r.suiteStarted(suite)
	}
	r.suiteFinished(suite, suite.End)
	return nil
}

func (r *TeamCityReporter) RunFinished(info events.RunInfo) error {
	if r.builder.State() == tree.Running {
		r.finishSynthetic(info.Time)
	}
	if _, err := r.builder.RunFinished(info); err != nil {
		return r.check(err)
	}
	fmt.Fprintln(r.writer, "##teamcity[progressFinish "+teamCityProgress+"]")
	return nil
}

func (r *TeamCityReporter) check(err error) error {
	if err != nil {
		r.log.WithError(err).Error("lifecycle protocol violation")
	}
	return err
}

var _ events.Listener = (*TeamCityReporter)(nil)
