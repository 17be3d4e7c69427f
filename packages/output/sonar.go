package output

import (
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
)

// Sonar renders SonarQube generic test execution data
type Sonar struct{}

func (Sonar) Name() string          { return "sonar" }
func (Sonar) DefaultPrefix() string { return "sonarresults" }
func (Sonar) Encoding() string      { return "UTF-8" }
func (Sonar) Nested() bool          { return false }
func (Sonar) SingleFile() bool      { return false }

func (Sonar) SummaryOpen(doc *Document, rc *RenderContext) {
	doc.Line(0, `<unitTest version="1">`)
}

func (Sonar) SummaryClose(doc *Document, rc *RenderContext) {
	doc.Line(0, "</unitTest>")
}

func (Sonar) SuiteOpen(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	doc.Line(1, "<file"+attr("path", rc.SuiteName(suite))+attr("time", seconds(suite.Duration()))+">")
}

func (Sonar) SuiteClose(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int) {
	doc.Line(1, "</file>")
}

func (Sonar) Spec(doc *Document, rc *RenderContext, spec *tree.SpecNode, depth int) {
	open := "<testCase" + attr("name", spec.Description) + attr("time", seconds(spec.Duration()))

	if !spec.Status.NotRun() && len(spec.Failures) == 0 && !rc.CaptureStdout {
		doc.Line(2, open+" />")
		return
	}

	doc.Line(2, open+">")
	if spec.Status.NotRun() {
		doc.Line(3, skippedElement(spec))
	}
	for _, f := range spec.Failures {
		doc.Line(3, "<failure"+attr("message", f.Message)+">"+CDATA(f.Stack)+"</failure>")
	}
	if rc.CaptureStdout {
		doc.Line(3, "<system-out>"+CDATA(spec.Output)+"</system-out>")
	}
	doc.Line(2, "</testCase>")
}
