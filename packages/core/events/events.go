package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the final outcome of a spec
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusPending  Status = "pending"
	StatusDisabled Status = "disabled"
)

// ErrUnknownStatus is returned by ParseStatus for a status it does not know
var ErrUnknownStatus = errors.New("unknown spec status")

// ParseStatus converts a host status string. "skipped" is accepted as an alias
// for pending and "excluded" for disabled.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passed", "pass", "ok":
		return StatusPassed, nil
	case "failed", "fail":
		return StatusFailed, nil
	case "pending", "skipped", "skip":
		return StatusPending, nil
	case "disabled", "excluded":
		return StatusDisabled, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStatus, s)
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusPending, StatusDisabled:
		return true
	}
	return false
}

// NotRun reports whether the spec was excluded from execution
func (s Status) NotRun() bool {
	return s == StatusPending || s == StatusDisabled
}

// Failure is a single failed expectation of a spec
type Failure struct {
	Message     string
	Stack       string
	MatcherName string
}

// RunInfo accompanies RunStarted and RunFinished
type RunInfo struct {
	// TotalSpecsDefined is the number of specs the host knows about, including
	// specs it will never report. Zero when unknown.
	TotalSpecsDefined int
	Time              time.Time
}

// SuiteInfo identifies a suite
type SuiteInfo struct {
	ID          string
	Description string
	Time        time.Time
}

// SpecInfo identifies a spec and, on SpecDone, carries its outcome
type SpecInfo struct {
	ID            string
	Description   string
	Status        Status
	Failures      []Failure
	PendingReason string
	Time          time.Time
}

// Listener receives lifecycle events from a host test framework
type Listener interface {
	RunStarted(info RunInfo) error
	SuiteStarted(suite SuiteInfo) error
	SpecStarted(spec SpecInfo) error
	SpecDone(spec SpecInfo) error
	SuiteDone(suite SuiteInfo) error
	RunFinished(info RunInfo) error
}

// Multi fans every event out to all listeners. A failing listener does not stop
// delivery to the others; the errors are joined.
type Multi []Listener

func (m Multi) each(fn func(Listener) error) error {
	var errs []error
	for _, l := range m {
		if err := fn(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RunStarted(info RunInfo) error {
	return m.each(func(l Listener) error { return l.RunStarted(info) })
}

func (m Multi) SuiteStarted(suite SuiteInfo) error {
	return m.each(func(l Listener) error { return l.SuiteStarted(suite) })
}

func (m Multi) SpecStarted(spec SpecInfo) error {
	return m.each(func(l Listener) error { return l.SpecStarted(spec) })
}

func (m Multi) SpecDone(spec SpecInfo) error {
	return m.each(func(l Listener) error { return l.SpecDone(spec) })
}

func (m Multi) SuiteDone(suite SuiteInfo) error {
	return m.each(func(l Listener) error { return l.SuiteDone(suite) })
}

func (m Multi) RunFinished(info RunInfo) error {
	return m.each(func(l Listener) error { return l.RunFinished(info) })
}
