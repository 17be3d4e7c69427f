package output

import (
	"strconv"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
)

// JUnit renders JUnit XML: a flat list of testsuite elements, one per suite,
// each holding only its direct specs.
type JUnit struct{}

func (JUnit) Name() string          { return "junit" }
func (JUnit) DefaultPrefix() string { return "junitresults" }
func (JUnit) Encoding() string      { return "UTF-8" }
func (JUnit) Nested() bool          { return false }
func (JUnit) SingleFile() bool      { return false }

func (JUnit) SummaryOpen(doc *Document, rc *RenderContext) {
	t := rc.Run.Totals
	s := "<testsuites"
	if !rc.SuppressDisabled {
		s += attr("disabled", strconv.Itoa(t.DisabledTotal()))
	}
	s += attr("errors", "0") +
		attr("failures", strconv.Itoa(t.Failed)) +
		attr("tests", strconv.Itoa(t.Total())) +
		attr("time", seconds(rc.Run.Duration()))
	doc.Line(0, s+">")
}

func (JUnit) SummaryClose(doc *Document, rc *RenderContext) {
	doc.Line(0, "</testsuites>")
}

func (JUnit) SuiteOpen(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	c := suite.Direct()
	s := "<testsuite" +
		attr("name", rc.SuiteName(suite)) +
		attr("timestamp", rc.Timestamp(suite.Start)) +
		attr("hostname", "localhost") +
		attr("time", seconds(suite.Duration())) +
		attr("errors", "0") +
		attr("tests", strconv.Itoa(c.Specs)) +
		attr("skipped", strconv.Itoa(c.Skipped)) +
		attr("disabled", strconv.Itoa(c.Disabled)) +
		attr("failures", strconv.Itoa(c.Failures))
	if rc.Package != "" {
		s += attr("package", rc.Package)
	}
	doc.Line(1, s+">")
}

func (JUnit) SuiteClose(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	doc.Line(1, "</testsuite>")
}

func (JUnit) Spec(doc *Document, rc *RenderContext, spec *tree.SpecNode, depth int) {
	open := "<testcase" +
		attr("classname", rc.SuiteName(spec.Suite())) +
		attr("name", spec.Description) +
		attr("time", seconds(spec.Duration()))

	if !spec.Status.NotRun() && len(spec.Failures) == 0 && !rc.CaptureStdout {
		doc.Line(2, open+" />")
		return
	}

	doc.Line(2, open+">")
	if spec.Status.NotRun() {
		doc.Line(3, skippedElement(spec))
	}
	for _, f := range spec.Failures {
		doc.Line(3, "<failure"+attr("type", failureType(f.MatcherName))+attr("message", f.Message)+">"+CDATA(f.Stack)+"</failure>")
	}
	if rc.CaptureStdout {
		doc.Line(3, "<system-out>"+CDATA(spec.Output)+"</system-out>")
	}
	doc.Line(2, "</testcase>")
}

func skippedElement(spec *tree.SpecNode) string {
	if spec.PendingReason != "" {
		return "<skipped" + attr("message", spec.PendingReason) + " />"
	}
	return "<skipped />"
}

func failureType(matcher string) string {
	if matcher == "" {
		return "exception"
	}
	return matcher
}
