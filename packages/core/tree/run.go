package tree

import "time"

// Totals are the whole-run counters reported on every summary element
type Totals struct {
	// Defined is the host's announced spec count, zero when unknown
	Defined  int
	Executed int
	Passed   int
	Failed   int
	Pending  int
	Disabled int
}

// Total is the announced spec count when known, otherwise the reported count
func (t Totals) Total() int {
	if t.Defined > t.Executed {
		return t.Defined
	}
	return t.Executed
}

// Unreported counts specs the host announced but never reported
func (t Totals) Unreported() int {
	return t.Total() - t.Executed
}

// DisabledTotal counts reported disabled specs plus unreported ones
func (t Totals) DisabledTotal() int {
	return t.Disabled + t.Unreported()
}

// NotRun counts every spec that was not executed
func (t Totals) NotRun() int {
	return t.Pending + t.DisabledTotal()
}

// Run is the finished result tree of one test run
type Run struct {
	ID     string
	Start  time.Time
	End    time.Time
	Roots  []*SuiteNode
	Totals Totals
}

// Duration is the wall time of the run
func (r *Run) Duration() time.Duration {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Suites returns every suite of the run in pre-order
func (r *Run) Suites() []*SuiteNode {
	var out []*SuiteNode
	var walk func(*SuiteNode)
	walk = func(s *SuiteNode) {
		out = append(out, s)
		for _, c := range s.suites {
			walk(c)
		}
	}
	for _, root := range r.Roots {
		walk(root)
	}
	return out
}

// Specs returns every spec of the run in discovery order
func (r *Run) Specs() []*SpecNode {
	var out []*SpecNode
	var walk func(*SuiteNode)
	walk = func(s *SuiteNode) {
		for _, c := range s.children {
			if c.Spec != nil {
				out = append(out, c.Spec)
			} else {
				walk(c.Suite)
			}
		}
	}
	for _, root := range r.Roots {
		walk(root)
	}
	return out
}
