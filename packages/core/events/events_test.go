package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"passed", StatusPassed, false},
		{"OK", StatusPassed, false},
		{"failed", StatusFailed, false},
		{" pending ", StatusPending, false},
		{"skipped", StatusPending, false},
		{"disabled", StatusDisabled, false},
		{"excluded", StatusDisabled, false},
		{"broken", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPassed.Valid())
	assert.False(t, Status("nope").Valid())

	assert.False(t, StatusPassed.NotRun())
	assert.False(t, StatusFailed.NotRun())
	assert.True(t, StatusPending.NotRun())
	assert.True(t, StatusDisabled.NotRun())
}

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) record(name string) error {
	r.calls = append(r.calls, name)
	return r.err
}

func (r *recorder) RunStarted(RunInfo) error     { return r.record("RunStarted") }
func (r *recorder) SuiteStarted(SuiteInfo) error { return r.record("SuiteStarted") }
func (r *recorder) SpecStarted(SpecInfo) error   { return r.record("SpecStarted") }
func (r *recorder) SpecDone(SpecInfo) error      { return r.record("SpecDone") }
func (r *recorder) SuiteDone(SuiteInfo) error    { return r.record("SuiteDone") }
func (r *recorder) RunFinished(RunInfo) error    { return r.record("RunFinished") }

func TestMulti_DeliversToEveryListener(t *testing.T) {
	boom := errors.New("boom")
	failing := &recorder{err: boom}
	healthy := &recorder{}
	m := Multi{failing, healthy}

	require.ErrorIs(t, m.RunStarted(RunInfo{}), boom)
	require.ErrorIs(t, m.SuiteStarted(SuiteInfo{}), boom)
	require.ErrorIs(t, m.SpecStarted(SpecInfo{}), boom)
	require.ErrorIs(t, m.SpecDone(SpecInfo{}), boom)
	require.ErrorIs(t, m.SuiteDone(SuiteInfo{}), boom)
	require.ErrorIs(t, m.RunFinished(RunInfo{}), boom)

	want := []string{"RunStarted", "SuiteStarted", "SpecStarted", "SpecDone", "SuiteDone", "RunFinished"}
	assert.Equal(t, want, failing.calls)
	assert.Equal(t, want, healthy.calls)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.RunStarted(RunInfo{}))
}
