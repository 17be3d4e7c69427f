package replay

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree/treetest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recording = `{"event":"runStarted","totalSpecsDefined":2,"time":"2024-01-02T03:04:05Z"}
{"event":"suiteStarted","id":"suite1","description":"Player","time":"2024-01-02T03:04:05.010Z"}

{"event":"specStarted","id":"spec1","description":"plays","time":1704164645020}
{"event":"specDone","id":"spec1","description":"plays","status":"failed","time":1704164645030,"failedExpectations":[{"message":"Expected 1 to be 2.","stack":"at Player","matcherName":"toBe"}]}
{"event":"specStarted","id":"spec2","description":"pauses"}
{"event":"specDone","id":"spec2","description":"pauses","status":"pending","pendingReason":"later"}
{"event":"suiteDone","id":"suite1","description":"Player"}
{"event":"runFinished","totalSpecsDefined":2}
`

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"specDone","id":"spec1","status":"failed","time":"2024-01-02T03:04:05.5Z","failedExpectations":[{"message":"m","stack":"s","matcherName":"toBe"},{"message":"n"}]}`))
	require.NoError(t, err)

	assert.Equal(t, SpecDone, ev.Kind)
	assert.Equal(t, "spec1", ev.Spec.ID)
	assert.Equal(t, events.StatusFailed, ev.Spec.Status)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.UTC), ev.Spec.Time)
	want := []events.Failure{{Message: "m", Stack: "s", MatcherName: "toBe"}, {Message: "n"}}
	if diff := cmp.Diff(want, ev.Spec.Failures); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"not json", `{"event":`, ErrInvalidJSON},
		{"not an object", `[1,2]`, ErrInvalidJSON},
		{"no event", `{"id":"x"}`, ErrMissingField},
		{"unknown event", `{"event":"specSkipped","id":"x"}`, ErrUnknownEvent},
		{"suite without id", `{"event":"suiteStarted"}`, ErrMissingField},
		{"spec without status", `{"event":"specDone","id":"x"}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Decode([]byte(`{"event":"specDone","id":"x","status":"exploded"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"event":"runStarted","time":"yesterday"}`))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	c := tree.NewCollector()
	stats, err := Replay(strings.NewReader(recording), c)
	require.NoError(t, err)

	assert.Equal(t, 9, stats.Lines)
	assert.Equal(t, 8, stats.Events)
	assert.Equal(t, 2, stats.Kinds[SpecDone])

	run := c.Result()
	require.NotNil(t, run)
	assert.Equal(t, tree.Totals{Defined: 2, Executed: 2, Failed: 1, Pending: 1}, run.Totals)
	require.Len(t, run.Roots, 1)

	specs := run.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, 10*time.Millisecond, specs[0].Duration())
	assert.Equal(t, "later", specs[1].PendingReason)
	assert.Equal(t, "toBe", specs[0].Failures[0].MatcherName)
}

func TestReplay_StopsAtProtocolViolation(t *testing.T) {
	input := `{"event":"runStarted"}
{"event":"specDone","id":"spec1","status":"passed"}
{"event":"runFinished"}
`
	stats, err := Replay(strings.NewReader(input), tree.NewCollector())
	require.Error(t, err)

	var le *LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Line)
	assert.ErrorIs(t, err, tree.ErrNoOpenSpec)
	assert.Equal(t, 1, stats.Events)
	assert.Contains(t, err.Error(), "line 2:")
}

func TestReplay_DecodeErrorHasLineNumber(t *testing.T) {
	input := "{\"event\":\"runStarted\"}\n\n{\"event\":\"bogus\"}\n"
	_, err := Replay(strings.NewReader(input), tree.NewCollector())

	var le *LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Line)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestReplayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0644))

	stats, err := ReplayFile(path, tree.NewCollector())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Events)

	_, err = ReplayFile(filepath.Join(t.TempDir(), "missing.jsonl"), tree.NewCollector())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, treetest.Play(NewRecorder(&buf)))

	problems, err := Validate(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, problems)

	direct := tree.NewCollector()
	require.NoError(t, treetest.Play(direct))

	replayed := tree.NewCollector()
	_, err = Replay(&buf, replayed)
	require.NoError(t, err)

	want, got := direct.Result(), replayed.Result()
	require.NotNil(t, got)
	assert.Equal(t, want.Totals, got.Totals)
	assert.Equal(t, want.Start, got.Start)
	assert.Equal(t, want.End, got.End)

	names := func(r *tree.Run) []string {
		var out []string
		for _, s := range r.Suites() {
			out = append(out, strings.Join(s.Path(), "/"))
		}
		for _, s := range r.Specs() {
			out = append(out, s.Description+":"+string(s.Status))
		}
		return out
	}
	if diff := cmp.Diff(names(want), names(got)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, treetest.Failure, got.Specs()[5].Failures[0])
}

func TestValidate(t *testing.T) {
	input := `{"event":"runStarted","totalSpecsDefined":1}
{"event":"suiteStarted","description":"no id"}
{"event":"specDone","id":"spec1"}
not json
{"event":"teardown"}
{"event":"runFinished","totalSpecsDefined":-1}
{"event":"specDone","id":"spec2","status":"passed","failedExpectations":[{"stack":"s"}]}
`
	problems, err := Validate(strings.NewReader(input))
	require.NoError(t, err)

	lines := make([]int, 0, len(problems))
	for _, p := range problems {
		lines = append(lines, p.Line)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, lines)
	assert.Contains(t, problems[0].Error(), "id")
	assert.ErrorIs(t, problems[2], ErrInvalidJSON)

	problems, err = Validate(strings.NewReader(recording))
	require.NoError(t, err)
	assert.Empty(t, problems)
}
