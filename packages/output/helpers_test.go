package output

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree/treetest"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/stretchr/testify/require"
)

// playXML runs the example run through a reporter of dialect d writing into memory
func playXML(t *testing.T, d Dialect, opts ...XMLOption) (*sink.Memory, *XMLReporter) {
	t.Helper()
	mem := sink.NewMemory()
	opts = append([]XMLOption{WithSink(mem), WithLocation(time.UTC)}, opts...)
	r := NewXMLReporter(d, opts...)
	require.NoError(t, treetest.Play(r))
	return mem, r
}

func mustGet(t *testing.T, mem *sink.Memory, name string) string {
	t.Helper()
	content, ok := mem.Get(name)
	require.True(t, ok, "missing %s, have %v", name, mem.Names())
	return content
}

// fakeCapture hands out whatever was written between Start and Stop
type fakeCapture struct {
	buf    strings.Builder
	active bool
	starts int
}

func (f *fakeCapture) Start() error {
	if f.active {
		return errors.New("already capturing")
	}
	f.active = true
	f.starts++
	f.buf.Reset()
	return nil
}

func (f *fakeCapture) Stop() (string, error) {
	if !f.active {
		return "", errors.New("not capturing")
	}
	f.active = false
	return f.buf.String(), nil
}

func (f *fakeCapture) print(specID string) {
	fmt.Fprintf(&f.buf, "output of %s", specID)
}

type failingSink struct{}

func (failingSink) Write(f sink.File) error {
	return fmt.Errorf("disk full writing %s", f.Name)
}

// playFocused reports two specs outside any suite
func playFocused(l events.Listener) error {
	p := &treetest.Player{L: l, At: treetest.Base}
	p.RunStarted(2)
	p.Spec("spec1", "focused one", events.StatusPassed)
	p.Spec("spec2", "focused two", events.StatusFailed, treetest.Failure)
	p.RunFinished(2)
	return p.Err
}
