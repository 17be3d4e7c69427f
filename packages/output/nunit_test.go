package output

import (
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/stretchr/testify/assert"
)

func TestNUnit_Document(t *testing.T) {
	mem, _ := playXML(t, NUnit{})

	assert.Equal(t, []string{"nunitresults.xml"}, mem.Names())
	content := mustGet(t, mem, "nunitresults.xml")
	lines := strings.Split(content, "\n")

	assert.Equal(t, `<?xml version="1.0" encoding="utf-8" ?>`, lines[0])
	assert.Equal(t, `<test-results name="Jasmine Results" total="7" failures="1" not-run="2" date="2024-01-02" time="03:04:05">`, lines[1])
	assert.Equal(t, `  <test-suite name="ParentSuite" executed="true" success="false" time="0.17">`, lines[2])
	assert.Equal(t, `    <results>`, lines[3])
	assert.Equal(t, `      <test-case name="should be a dummy with invalid characters: &amp; &lt; &gt; &quot; &apos;" executed="true" success="true" time="0.01" />`, lines[4])
	assert.Equal(t, `      <test-suite name="SubSuite" executed="true" success="false" time="0.13">`, lines[5])

	assert.Contains(t, content, `              <test-case name="should be skipped two levels down" executed="false" success="true" time="0.01" />`)
	assert.Contains(t, content, `              <test-case name="should be failed two levels down" executed="true" success="false" time="0.01">
                <failure>
                  <message><![CDATA[Expected true to be false.]]></message>
                  <stack-trace><![CDATA[Stack trace! Stack traces are cool & can have "special" characters <3`)
	assert.Contains(t, content, `  <test-suite name="SiblingSuite With Invalid Chars &lt; &amp; &gt; &quot; &apos; | : \ /" executed="true" success="true" time="0.03">`)
	assert.True(t, strings.HasSuffix(content, "</test-results>\n"))
	assert.Equal(t, strings.Count(content, "<test-suite "), strings.Count(content, "</test-suite>"))
}

func TestNUnit_SpecBeforeChildSuite(t *testing.T) {
	mem, _ := playXML(t, NUnit{})
	content := mustGet(t, mem, "nunitresults.xml")

	spec := strings.Index(content, "should be a dummy")
	sub := strings.Index(content, `name="SubSuite"`)
	assert.Less(t, spec, sub, "children keep discovery order")
}

func TestNUnit_AlwaysSingleFile(t *testing.T) {
	mem, r := playXML(t, NUnit{}, WithConsolidateAll(false), WithConsolidate(false))
	assert.Equal(t, "nunitresults", r.FilePrefix())
	assert.Equal(t, []string{"nunitresults.xml"}, mem.Names())
}

func TestNUnit_ReportNameAndHook(t *testing.T) {
	mem, _ := playXML(t, NUnit{}, WithReportName("My & Results"), WithModifySuiteName(func(name string, s *tree.SuiteNode) string {
		return strings.ToUpper(name)
	}))
	content := mustGet(t, mem, "nunitresults.xml")
	assert.Contains(t, content, `<test-results name="My &amp; Results"`)
	assert.Contains(t, content, `<test-suite name="SUBSUBSUITE"`)
}
