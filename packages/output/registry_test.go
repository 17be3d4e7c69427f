package output

import (
	"bytes"
	"testing"

	"github.com/abdul-hamid-achik/specreport/packages/core/config"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree/treetest"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EveryFormat(t *testing.T) {
	for _, f := range Formats {
		t.Run(f, func(t *testing.T) {
			l, err := New(f, config.DefaultConfig(), Target{Stdout: &bytes.Buffer{}, Files: sink.NewMemory()})
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_Types(t *testing.T) {
	target := Target{Stdout: &bytes.Buffer{}, Files: sink.NewMemory()}

	l, err := New(" JUnit ", nil, target)
	require.NoError(t, err)
	assert.IsType(t, &XMLReporter{}, l)

	l, err = New("teamcity", nil, target)
	require.NoError(t, err)
	assert.IsType(t, &TeamCityReporter{}, l)

	_, err = New("xunit", nil, target)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), `"xunit"`)
}

func TestNew_AppliesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ConsolidateAll = config.BoolPtr(false)
	cfg.FilePrefix = "report-"
	cfg.Package = "pkg"

	mem := sink.NewMemory()
	l, err := New("junit", cfg, Target{Files: mem})
	require.NoError(t, err)
	require.NoError(t, treetest.Play(l))

	assert.Equal(t, []string{"report-ParentSuite.xml", "report-SiblingSuiteWithInvalidChars.xml"}, mem.Names())
	assert.Contains(t, mustGet(t, mem, "report-ParentSuite.xml"), `package="pkg"`)
}

func TestNewAll(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Formats = []string{"junit", "nunit", "tap", "json"}

	var out bytes.Buffer
	mem := sink.NewMemory()
	listeners, err := NewAll(cfg, Target{Stdout: &out, Files: mem})
	require.NoError(t, err)
	require.Len(t, listeners, 4)

	require.NoError(t, treetest.Play(listeners))
	assert.ElementsMatch(t, []string{"junitresults.xml", "nunitresults.xml", "specresults.json"}, mem.Names())
	assert.Contains(t, out.String(), "TAP version 13")
}

func TestNewAll_SharedPrefixKeepsXMLFormatsApart(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Formats = []string{"junit", "nunit", "sonar", "json"}
	cfg.FilePrefix = "results"

	mem := sink.NewMemory()
	listeners, err := NewAll(cfg, Target{Stdout: &bytes.Buffer{}, Files: mem})
	require.NoError(t, err)
	require.NoError(t, treetest.Play(listeners))

	assert.ElementsMatch(t, []string{"results-junit.xml", "results-nunit.xml", "results-sonar.xml", "results.json"}, mem.Names())
	assert.Contains(t, mustGet(t, mem, "results-junit.xml"), "<testsuites ")
	assert.Contains(t, mustGet(t, mem, "results-nunit.xml"), "<test-results")
	assert.Contains(t, mustGet(t, mem, "results-sonar.xml"), "<unitTest")
}

func TestNewAll_SharedPrefixPerRootFiles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Formats = []string{"JUnit", "nunit", "sonar"}
	cfg.FilePrefix = "report-"
	cfg.ConsolidateAll = config.BoolPtr(false)

	mem := sink.NewMemory()
	listeners, err := NewAll(cfg, Target{Stdout: &bytes.Buffer{}, Files: mem})
	require.NoError(t, err)
	require.NoError(t, treetest.Play(listeners))

	assert.ElementsMatch(t, []string{
		"report-junit-ParentSuite.xml",
		"report-junit-SiblingSuiteWithInvalidChars.xml",
		"report-nunit.xml",
		"report-sonar-ParentSuite.xml",
		"report-sonar-SiblingSuiteWithInvalidChars.xml",
	}, mem.Names())
}

func TestXMLFilePrefix_SingleXMLFormatUnchanged(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Formats = []string{"junit", "junit", "tap", "html"}
	cfg.FilePrefix = "results"
	assert.Equal(t, "results", xmlFilePrefix(cfg, JUnit{}))
}

func TestNewAll_UnknownFormats(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Formats = []string{"junit", "xunit", "trx"}

	_, err := NewAll(cfg, Target{})
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "xunit")
	assert.Contains(t, err.Error(), "trx")
}
