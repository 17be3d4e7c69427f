// Package treetest provides a canned nested test run for exercising reporters.
package treetest

import (
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
)

// Base is the timestamp of the first event of every fixture run
var Base = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Step is the time between two consecutive fixture events
const Step = 10 * time.Millisecond

// Suite descriptions of the example run
const (
	ParentSuite  = "ParentSuite"
	SubSuite     = "SubSuite"
	SubSubSuite  = "SubSubSuite"
	SiblingSuite = "SiblingSuite With Invalid Chars < & > \" ' | : \\ /"
)

// Spec descriptions of the example run
const (
	InvalidCharsSpec = "should be a dummy with invalid characters: & < > \" '"
	OneLevelSpec     = "should be one level down"
	TwoLevelsSpec    = "should be two levels down"
	SkippedSpec      = "should be skipped two levels down"
	DisabledSpec     = "should be disabled two levels down"
	FailedSpec       = "should be failed two levels down"
	SiblingSpec      = "should be a sibling of Parent"
)

// Failure is the single failed expectation of the example run
var Failure = events.Failure{
	Message:     "Expected true to be false.",
	Stack:       "Stack trace! Stack traces are cool & can have \"special\" characters <3\n\n Neat: yes.",
	MatcherName: "toBe",
}

// TotalSpecs is the number of specs the example run announces
const TotalSpecs = 7

// Play drives l through the example run:
//
//	ParentSuite
//	  InvalidCharsSpec (passed)
//	  SubSuite
//	    OneLevelSpec (passed)
//	    SubSubSuite
//	      TwoLevelsSpec (passed)
//	      SkippedSpec (pending)
//	      DisabledSpec (disabled)
//	      FailedSpec (failed)
//	SiblingSuite
//	  SiblingSpec (passed)
func Play(l events.Listener) error {
	return PlayFunc(l, nil)
}

// PlayFunc is Play with a hook invoked between SpecStarted and SpecDone of
// every spec, for writing output the reporter may capture.
func PlayFunc(l events.Listener, during func(specID string)) error {
	p := &Player{L: l, At: Base, During: during}
	p.RunStarted(TotalSpecs)
	p.Suite("suite1", ParentSuite, func() {
		p.Spec("spec1", InvalidCharsSpec, events.StatusPassed)
		p.Suite("suite2", SubSuite, func() {
			p.Spec("spec2", OneLevelSpec, events.StatusPassed)
			p.Suite("suite3", SubSubSuite, func() {
				p.Spec("spec3", TwoLevelsSpec, events.StatusPassed)
				p.Spec("spec4", SkippedSpec, events.StatusPending)
				p.Spec("spec5", DisabledSpec, events.StatusDisabled)
				p.Spec("spec6", FailedSpec, events.StatusFailed, Failure)
			})
		})
	})
	p.Suite("suite4", SiblingSuite, func() {
		p.Spec("spec7", SiblingSpec, events.StatusPassed)
	})
	p.RunFinished(TotalSpecs)
	return p.Err
}

// Player sends events to a listener with steadily increasing timestamps and
// remembers the first error.
type Player struct {
	L      events.Listener
	At     time.Time
	During func(specID string)
	Err    error
}

func (p *Player) tick() time.Time {
	p.At = p.At.Add(Step)
	return p.At
}

func (p *Player) do(fn func() error) {
	if p.Err != nil {
		return
	}
	p.Err = fn()
}

func (p *Player) RunStarted(total int) {
	info := events.RunInfo{TotalSpecsDefined: total, Time: p.tick()}
	p.do(func() error { return p.L.RunStarted(info) })
}

func (p *Player) RunFinished(total int) {
	info := events.RunInfo{TotalSpecsDefined: total, Time: p.tick()}
	p.do(func() error { return p.L.RunFinished(info) })
}

// Suite reports a started suite, runs body and reports the suite done
func (p *Player) Suite(id, description string, body func()) {
	start := events.SuiteInfo{ID: id, Description: description, Time: p.tick()}
	p.do(func() error { return p.L.SuiteStarted(start) })
	if body != nil {
		body()
	}
	done := events.SuiteInfo{ID: id, Description: description, Time: p.tick()}
	p.do(func() error { return p.L.SuiteDone(done) })
}

// DisabledSuite reports a suite done without a matching start
func (p *Player) DisabledSuite(id, description string) {
	done := events.SuiteInfo{ID: id, Description: description, Time: p.tick()}
	p.do(func() error { return p.L.SuiteDone(done) })
}

// Spec reports a started spec and its outcome
func (p *Player) Spec(id, description string, status events.Status, failures ...events.Failure) {
	start := events.SpecInfo{ID: id, Description: description, Time: p.tick()}
	p.do(func() error { return p.L.SpecStarted(start) })
	if p.During != nil && p.Err == nil {
		p.During(id)
	}
	done := events.SpecInfo{
		ID:          id,
		Description: description,
		Status:      status,
		Failures:    failures,
		Time:        p.tick(),
	}
	if status == events.StatusPending {
		done.PendingReason = "Temporarily disabled with xit"
	}
	p.do(func() error { return p.L.SpecDone(done) })
}
