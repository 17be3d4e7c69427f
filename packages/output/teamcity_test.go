package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree/treetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeTeamCity(t *testing.T) {
	assert.Equal(t, "a||b|'c|nd|re|[f|]", EscapeTeamCity("a|b'c\nd\re[f]"))
	assert.Equal(t, "|x|l|p", EscapeTeamCity("\u0085\u2028\u2029"))
	assert.Equal(t, "plain", EscapeTeamCity("plain"))
}

func TestTeamCityTimestamp(t *testing.T) {
	assert.Equal(t, "2024-01-02T03:04:05.020", TeamCityTimestamp(treetest.Base.Add(20*time.Millisecond).In(time.FixedZone("X", 3600))))
}

func TestTeamCity_Messages(t *testing.T) {
	var buf bytes.Buffer
	r := NewTeamCityReporter(TeamCityWithWriter(&buf))
	require.NoError(t, treetest.Play(r))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "##teamcity[progressStart 'Running Jasmine Tests']", lines[0])
	assert.Equal(t, "##teamcity[testSuiteStarted name='ParentSuite' timestamp='2024-01-02T03:04:05.020']", lines[1])
	assert.Equal(t, `##teamcity[testStarted name='should be a dummy with invalid characters: & < > " |'' captureStandardOutput='true' timestamp='2024-01-02T03:04:05.030']`, lines[2])
	assert.Equal(t, `##teamcity[testFinished name='should be a dummy with invalid characters: & < > " |'' timestamp='2024-01-02T03:04:05.040']`, lines[3])
	assert.Equal(t, "##teamcity[progressFinish 'Running Jasmine Tests']", lines[len(lines)-1])

	out := buf.String()
	assert.Contains(t, out, "##teamcity[testIgnored name='should be skipped two levels down' timestamp='2024-01-02T03:04:05.120']\n"+
		"##teamcity[testFinished name='should be skipped two levels down' timestamp='2024-01-02T03:04:05.120']\n")
	assert.Contains(t, out, "##teamcity[testIgnored name='should be disabled two levels down'")
	assert.Contains(t, out, `##teamcity[testFailed name='should be failed two levels down' message='Expected true to be false.' details='Stack trace! Stack traces are cool & can have "special" characters <3|n|n Neat: yes.' timestamp='2024-01-02T03:04:05.160']`)
	assert.Contains(t, out, "##teamcity[testSuiteFinished name='SubSubSuite' timestamp='2024-01-02T03:04:05.170']")
	assert.Contains(t, out, `##teamcity[testSuiteStarted name='SiblingSuite With Invalid Chars < & > " |' || : \ /' timestamp='2024-01-02T03:04:05.200']`)

	assert.Equal(t, 4, strings.Count(out, "testSuiteStarted"))
	assert.Equal(t, 4, strings.Count(out, "testSuiteFinished"))
	assert.Equal(t, 7, strings.Count(out, "testStarted"))
	assert.Equal(t, 7, strings.Count(out, "testFinished"))
	assert.Equal(t, 1, strings.Count(out, "testFailed"))
	assert.Equal(t, 2, strings.Count(out, "testIgnored"))
}

func TestTeamCity_OnlyFirstFailureIsSent(t *testing.T) {
	var buf bytes.Buffer
	r := NewTeamCityReporter(TeamCityWithWriter(&buf))

	second := events.Failure{Message: "second", Stack: "second stack"}
	p := &treetest.Player{L: r, At: treetest.Base}
	p.RunStarted(1)
	p.Suite("suite1", "Suite", func() {
		p.Spec("spec1", "fails twice", events.StatusFailed, treetest.Failure, second)
	})
	p.RunFinished(1)
	require.NoError(t, p.Err)

	assert.Equal(t, 1, strings.Count(buf.String(), "testFailed"))
	assert.NotContains(t, buf.String(), "second")
}

func TestTeamCity_PrefixAndSuiteHook(t *testing.T) {
	var buf bytes.Buffer
	r := NewTeamCityReporter(
		TeamCityWithWriter(&buf),
		TeamCityWithPrefix("[ci] "),
		TeamCityWithModifySuiteName(func(name string, s *tree.SuiteNode) string {
			return strings.ToLower(name)
		}),
	)
	require.NoError(t, treetest.Play(r))

	out := buf.String()
	assert.Contains(t, out, "testSuiteStarted name='|[ci|] parentsuite'")
	assert.Contains(t, out, "testStarted name='|[ci|] should be one level down'")
}

func TestTeamCity_FocusedSpecs(t *testing.T) {
	var buf bytes.Buffer
	r := NewTeamCityReporter(TeamCityWithWriter(&buf), TeamCityWithFocusedSuite(events.SuiteInfo{ID: "f", Description: "Focused"}))
	require.NoError(t, playFocused(r))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "##teamcity[testSuiteStarted name='Focused' timestamp='2024-01-02T03:04:05.020']", lines[1])
	assert.Equal(t, "##teamcity[testSuiteFinished name='Focused' timestamp='2024-01-02T03:04:05.060']", lines[7])
}

func TestTeamCity_DisabledSuite(t *testing.T) {
	var buf bytes.Buffer
	r := NewTeamCityReporter(TeamCityWithWriter(&buf))

	p := &treetest.Player{L: r, At: treetest.Base}
	p.RunStarted(0)
	p.DisabledSuite("suite1", "Excluded")
	p.RunFinished(0)
	require.NoError(t, p.Err)

	assert.Contains(t, buf.String(), "##teamcity[testSuiteStarted name='Excluded' timestamp='2024-01-02T03:04:05.020']\n"+
		"##teamcity[testSuiteFinished name='Excluded' timestamp='2024-01-02T03:04:05.020']\n")
}
