package output

import (
	"strconv"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
)

// DefaultReportName names the NUnit test-results root
const DefaultReportName = "Jasmine Results"

// NUnit renders NUnit 2.x XML. Suites nest inside their parent's results
// element and the whole run always goes into a single file.
type NUnit struct{}

func (NUnit) Name() string          { return "nunit" }
func (NUnit) DefaultPrefix() string { return "nunitresults" }
func (NUnit) Encoding() string      { return "utf-8" }
func (NUnit) Nested() bool          { return true }
func (NUnit) SingleFile() bool      { return true }

func (NUnit) SummaryOpen(doc *Document, rc *RenderContext) {
	t := rc.Run.Totals
	start := rc.Local(rc.Run.Start)
	doc.Line(0, "<test-results"+
		attr("name", rc.ReportName)+
		attr("total", strconv.Itoa(t.Total()))+
		attr("failures", strconv.Itoa(t.Failed))+
		attr("not-run", strconv.Itoa(t.NotRun()))+
		attr("date", start.Format("2006-01-02"))+
		attr("time", start.Format("15:04:05"))+
		">")
}

func (NUnit) SummaryClose(doc *Document, rc *RenderContext) {
	doc.Line(0, "</test-results>")
}

func (NUnit) SuiteOpen(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	doc.Line(2*depth-1, "<test-suite"+
		attr("name", rc.ShortName(suite))+
		attr("executed", strconv.FormatBool(!suite.Disabled))+
		attr("success", strconv.FormatBool(!suite.Failed()))+
		attr("time", seconds(suite.Duration()))+
		">")
	doc.Line(2*depth, "<results>")
}

func (NUnit) SuiteClose(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	doc.Line(2*depth, "</results>")
	doc.Line(2*depth-1, "</test-suite>")
}

func (NUnit) Spec(doc *Document, rc *RenderContext, spec *tree.SpecNode, depth int) {
	indent := 2*depth - 1
	open := "<test-case" +
		attr("name", spec.Description) +
		attr("executed", strconv.FormatBool(!spec.Status.NotRun())) +
		attr("success", strconv.FormatBool(!spec.Failed())) +
		attr("time", seconds(spec.Duration()))

	if len(spec.Failures) == 0 {
		doc.Line(indent, open+" />")
		return
	}

	doc.Line(indent, open+">")
	for _, f := range spec.Failures {
		doc.Line(indent+1, "<failure>")
		doc.Line(indent+2, "<message>"+CDATA(f.Message)+"</message>")
		doc.Line(indent+2, "<stack-trace>"+CDATA(f.Stack)+"</stack-trace>")
		doc.Line(indent+1, "</failure>")
	}
	doc.Line(indent, "</test-case>")
}
