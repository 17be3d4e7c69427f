package replay

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
)

type failureLine struct {
	Message     string `json:"message"`
	Stack       string `json:"stack,omitempty"`
	MatcherName string `json:"matcherName,omitempty"`
}

type eventLine struct {
	Event              string        `json:"event"`
	ID                 string        `json:"id,omitempty"`
	Description        string        `json:"description,omitempty"`
	Status             string        `json:"status,omitempty"`
	PendingReason      string        `json:"pendingReason,omitempty"`
	FailedExpectations []failureLine `json:"failedExpectations,omitempty"`
	TotalSpecsDefined  int           `json:"totalSpecsDefined,omitempty"`
	Time               string        `json:"time,omitempty"`
}

// Recorder is a listener that writes every event it receives as a recording line
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewRecorder creates a recorder writing to w
func NewRecorder(w io.Writer) *Recorder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Recorder{enc: enc}
}

func (r *Recorder) write(line eventLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(line)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func (r *Recorder) run(kind string, info events.RunInfo) error {
	return r.write(eventLine{Event: kind, TotalSpecsDefined: info.TotalSpecsDefined, Time: stamp(info.Time)})
}

func (r *Recorder) suite(kind string, info events.SuiteInfo) error {
	return r.write(eventLine{Event: kind, ID: info.ID, Description: info.Description, Time: stamp(info.Time)})
}

func (r *Recorder) RunStarted(info events.RunInfo) error     { return r.run(RunStarted, info) }
func (r *Recorder) RunFinished(info events.RunInfo) error    { return r.run(RunFinished, info) }
func (r *Recorder) SuiteStarted(info events.SuiteInfo) error { return r.suite(SuiteStarted, info) }
func (r *Recorder) SuiteDone(info events.SuiteInfo) error    { return r.suite(SuiteDone, info) }

func (r *Recorder) SpecStarted(info events.SpecInfo) error {
	return r.write(eventLine{Event: SpecStarted, ID: info.ID, Description: info.Description, Time: stamp(info.Time)})
}

func (r *Recorder) SpecDone(info events.SpecInfo) error {
	line := eventLine{
		Event:         SpecDone,
		ID:            info.ID,
		Description:   info.Description,
		Status:        string(info.Status),
		PendingReason: info.PendingReason,
		Time:          stamp(info.Time),
	}
	for _, f := range info.Failures {
		line.FailedExpectations = append(line.FailedExpectations, failureLine{
			Message:     f.Message,
			Stack:       f.Stack,
			MatcherName: f.MatcherName,
		})
	}
	return r.write(line)
}

var _ events.Listener = (*Recorder)(nil)
