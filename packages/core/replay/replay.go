package replay

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/tidwall/gjson"
)

// Event names used in recordings
const (
	RunStarted   = "runStarted"
	SuiteStarted = "suiteStarted"
	SpecStarted  = "specStarted"
	SpecDone     = "specDone"
	SuiteDone    = "suiteDone"
	RunFinished  = "runFinished"
)

// maxLine bounds a single recorded event, stacks included
const maxLine = 16 * 1024 * 1024

var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrUnknownEvent = errors.New("unknown event")
	ErrMissingField = errors.New("missing field")
)

// LineError ties an error to the recording line it came from
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Event is one decoded recording line. Only the info matching Kind is set.
type Event struct {
	Kind  string
	Run   events.RunInfo
	Suite events.SuiteInfo
	Spec  events.SpecInfo
}

// Deliver calls the listener method matching the event
func (e Event) Deliver(l events.Listener) error {
	switch e.Kind {
	case RunStarted:
		return l.RunStarted(e.Run)
	case SuiteStarted:
		return l.SuiteStarted(e.Suite)
	case SpecStarted:
		return l.SpecStarted(e.Spec)
	case SpecDone:
		return l.SpecDone(e.Spec)
	case SuiteDone:
		return l.SuiteDone(e.Suite)
	case RunFinished:
		return l.RunFinished(e.Run)
	}
	return fmt.Errorf("%w %q", ErrUnknownEvent, e.Kind)
}

// Decode parses one recording line
func Decode(line []byte) (Event, error) {
	if !gjson.ValidBytes(line) {
		return Event{}, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return Event{}, fmt.Errorf("%w: expected an object", ErrInvalidJSON)
	}

	ev := Event{Kind: doc.Get("event").String()}
	at, err := parseTime(doc.Get("time"))
	if err != nil {
		return Event{}, err
	}

	switch ev.Kind {
	case RunStarted, RunFinished:
		ev.Run = events.RunInfo{
			TotalSpecsDefined: int(doc.Get("totalSpecsDefined").Int()),
			Time:              at,
		}
	case SuiteStarted, SuiteDone:
		id, err := requireString(doc, "id")
		if err != nil {
			return Event{}, err
		}
		ev.Suite = events.SuiteInfo{ID: id, Description: doc.Get("description").String(), Time: at}
	case SpecStarted, SpecDone:
		id, err := requireString(doc, "id")
		if err != nil {
			return Event{}, err
		}
		ev.Spec = events.SpecInfo{
			ID:            id,
			Description:   doc.Get("description").String(),
			PendingReason: doc.Get("pendingReason").String(),
			Time:          at,
		}
		if ev.Kind == SpecDone {
			raw, err := requireString(doc, "status")
			if err != nil {
				return Event{}, err
			}
			if ev.Spec.Status, err = events.ParseStatus(raw); err != nil {
				return Event{}, err
			}
			ev.Spec.Failures = decodeFailures(doc.Get("failedExpectations"))
		}
	case "":
		return Event{}, fmt.Errorf("%w: event", ErrMissingField)
	default:
		return Event{}, fmt.Errorf("%w %q", ErrUnknownEvent, ev.Kind)
	}
	return ev, nil
}

func requireString(doc gjson.Result, field string) (string, error) {
	v := doc.Get(field)
	if !v.Exists() || v.Type != gjson.String {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return v.String(), nil
}

func decodeFailures(list gjson.Result) []events.Failure {
	var out []events.Failure
	list.ForEach(func(_, f gjson.Result) bool {
		out = append(out, events.Failure{
			Message:     f.Get("message").String(),
			Stack:       f.Get("stack").String(),
			MatcherName: f.Get("matcherName").String(),
		})
		return true
	})
	return out
}

// parseTime accepts RFC 3339 strings and Unix milliseconds. A missing time is zero.
func parseTime(v gjson.Result) (time.Time, error) {
	switch v.Type {
	case gjson.Null:
		return time.Time{}, nil
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC(), nil
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q: %w", v.String(), err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %s", v.Raw)
}

// Stats describes a replayed recording
type Stats struct {
	Lines  int
	Events int
	Kinds  map[string]int
}

// Replay decodes every line of r and delivers it to l. It stops at the first
// line that cannot be decoded or that l rejects.
func Replay(r io.Reader, l events.Listener) (Stats, error) {
	stats := Stats{Kinds: make(map[string]int)}
	err := scan(r, func(n int, line []byte) error {
		stats.Lines = n
		ev, err := Decode(line)
		if err != nil {
			return &LineError{Line: n, Err: err}
		}
		if err := ev.Deliver(l); err != nil {
			return &LineError{Line: n, Err: err}
		}
		stats.Events++
		stats.Kinds[ev.Kind]++
		return nil
	})
	return stats, err
}

// ReplayFile replays the recording stored at path
func ReplayFile(path string, l events.Listener) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	stats, err := Replay(f, l)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// scan calls fn with every non-blank line and its 1-based number
func scan(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	return nil
}
