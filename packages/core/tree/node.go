package tree

import (
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
)

// Counts holds the spec counters of one aggregation level
type Counts struct {
	Specs    int
	Failures int
	Skipped  int
	Disabled int
}

func (c Counts) add(o Counts) Counts {
	return Counts{
		Specs:    c.Specs + o.Specs,
		Failures: c.Failures + o.Failures,
		Skipped:  c.Skipped + o.Skipped,
		Disabled: c.Disabled + o.Disabled,
	}
}

// Passed is the number of specs that neither failed nor were excluded
func (c Counts) Passed() int {
	return c.Specs - c.Failures - c.Skipped - c.Disabled
}

// Child is one entry of a suite's discovery-ordered child list. Exactly one of
// Suite and Spec is set.
type Child struct {
	Suite *SuiteNode
	Spec  *SpecNode
}

// SuiteNode is an internal node of the result tree
type SuiteNode struct {
	ID          string
	Description string
	Start       time.Time
	End         time.Time

	// Disabled is set for suites reported done without ever being started
	Disabled bool
	// Synthetic is set for the container opened for specs reported outside any suite
	Synthetic bool

	parent   *SuiteNode
	suites   []*SuiteNode
	specs    []*SpecNode
	children []Child
	direct   Counts
	nested   Counts
	closed   bool
}

func newSuite(info events.SuiteInfo, start time.Time) *SuiteNode {
	return &SuiteNode{
		ID:          info.ID,
		Description: info.Description,
		Start:       start,
	}
}

// Parent returns the enclosing suite, nil for roots
func (s *SuiteNode) Parent() *SuiteNode { return s.parent }

// Suites returns the direct child suites in discovery order
func (s *SuiteNode) Suites() []*SuiteNode { return s.suites }

// Specs returns the specs that belong directly to this suite
func (s *SuiteNode) Specs() []*SpecNode { return s.specs }

// Children returns child suites and specs interleaved in discovery order
func (s *SuiteNode) Children() []Child { return s.children }

// Closed reports whether SuiteDone has been received
func (s *SuiteNode) Closed() bool { return s.closed }

// Direct returns the counters of the suite's own specs
func (s *SuiteNode) Direct() Counts { return s.direct }

// Nested returns the counters of all descendant suites
func (s *SuiteNode) Nested() Counts { return s.nested }

// Total returns direct plus nested counters
func (s *SuiteNode) Total() Counts { return s.direct.add(s.nested) }

// Failed reports whether any spec in the subtree failed
func (s *SuiteNode) Failed() bool {
	return s.direct.Failures > 0 || s.nested.Failures > 0
}

// Depth is 1 for roots
func (s *SuiteNode) Depth() int {
	d := 0
	for n := s; n != nil; n = n.parent {
		d++
	}
	return d
}

// Path returns the descriptions from the root down to this suite
func (s *SuiteNode) Path() []string {
	path := make([]string, s.Depth())
	i := len(path) - 1
	for n := s; n != nil; n = n.parent {
		path[i] = n.Description
		i--
	}
	return path
}

// Duration is the time between suite start and suite end
func (s *SuiteNode) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// SpecNode is a leaf of the result tree
type SpecNode struct {
	ID            string
	Description   string
	Status        events.Status
	Failures      []events.Failure
	PendingReason string
	Start         time.Time
	End           time.Time

	// Output is the standard output captured while the spec ran. Always empty
	// for pending and disabled specs.
	Output string

	suite *SuiteNode
	done  bool
}

// Suite returns the owning suite
func (s *SpecNode) Suite() *SuiteNode { return s.suite }

// Done reports whether SpecDone has been received
func (s *SpecNode) Done() bool { return s.done }

func (s *SpecNode) Failed() bool   { return s.Status == events.StatusFailed }
func (s *SpecNode) Skipped() bool  { return s.Status == events.StatusPending }
func (s *SpecNode) Disabled() bool { return s.Status == events.StatusDisabled }

// Duration is the time between spec start and spec end
func (s *SpecNode) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

func countsFor(status events.Status) Counts {
	switch status {
	case events.StatusFailed:
		return Counts{Failures: 1}
	case events.StatusPending:
		return Counts{Skipped: 1}
	case events.StatusDisabled:
		return Counts{Disabled: 1}
	}
	return Counts{}
}
