package tree

import (
	"strings"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/google/uuid"
)

// State is the lifecycle position of a Builder
type State int

const (
	NotStarted State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// DefaultFocusedSuite is the container opened for specs reported outside any suite
var DefaultFocusedSuite = events.SuiteInfo{ID: "focused", Description: "focused specs"}

// Option configures a Builder
type Option func(*Builder)

// WithClock sets the time source used for events that carry no timestamp
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithFocusedSuite overrides the identity of the synthetic container suite
func WithFocusedSuite(info events.SuiteInfo) Option {
	return func(b *Builder) {
		b.focused = info
	}
}

// Builder consumes lifecycle events and grows the result tree. It is not safe
// for concurrent use; hosts deliver events sequentially.
type Builder struct {
	state   State
	now     func() time.Time
	focused events.SuiteInfo

	run   *Run
	stack []*SuiteNode
	spec  *SpecNode
	seen  map[string]*SuiteNode
}

// NewBuilder creates a Builder in the NotStarted state
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:     time.Now,
		focused: DefaultFocusedSuite,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state
func (b *Builder) State() State { return b.state }

// Current returns the innermost open suite, nil when none is open
func (b *Builder) Current() *SuiteNode {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// OpenSpec returns the spec between SpecStarted and SpecDone, if any
func (b *Builder) OpenSpec() *SpecNode { return b.spec }

// Totals returns the counters accumulated so far
func (b *Builder) Totals() Totals {
	if b.run == nil {
		return Totals{}
	}
	return b.run.Totals
}

// Run returns the run being built. The tree keeps changing until RunFinished.
func (b *Builder) Run() *Run { return b.run }

func (b *Builder) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return b.now()
	}
	return t
}

func (b *Builder) requireRunning(op string) error {
	if b.state != Running {
		return protocolError(op, "", ErrRunNotStarted, "")
	}
	return nil
}

// RunStarted opens a new run. A finished builder may be started again; the
// previous Run is left untouched.
func (b *Builder) RunStarted(info events.RunInfo) error {
	if b.state == Running {
		return protocolError("RunStarted", "", ErrRunInProgress, "")
	}
	b.run = &Run{
		ID:     uuid.NewString(),
		Start:  b.stamp(info.Time),
		Totals: Totals{Defined: info.TotalSpecsDefined},
	}
	b.stack = nil
	b.spec = nil
	b.seen = make(map[string]*SuiteNode)
	b.state = Running
	return nil
}

// SuiteStarted opens a suite under the innermost open suite
func (b *Builder) SuiteStarted(info events.SuiteInfo) (*SuiteNode, error) {
	if err := b.requireRunning("SuiteStarted"); err != nil {
		return nil, err
	}
	if b.spec != nil {
		return nil, protocolError("SuiteStarted", info.ID, ErrSpecInProgress, b.spec.ID)
	}
	t := b.stamp(info.Time)
	b.closeSynthetic(t)

	node := newSuite(info, t)
	b.attach(node)
	b.stack = append(b.stack, node)
	if info.ID != "" {
		b.seen[info.ID] = node
	}
	return node, nil
}

// SpecStarted opens a spec in the innermost open suite. A spec reported outside
// any suite opens the synthetic container first.
func (b *Builder) SpecStarted(info events.SpecInfo) (*SpecNode, error) {
	if err := b.requireRunning("SpecStarted"); err != nil {
		return nil, err
	}
	if b.spec != nil {
		return nil, protocolError("SpecStarted", info.ID, ErrSpecInProgress, b.spec.ID)
	}
	t := b.stamp(info.Time)
	suite := b.Current()
	if suite == nil {
		suite = b.openSynthetic(t)
	}

	spec := &SpecNode{
		ID:          info.ID,
		Description: info.Description,
		Start:       t,
		suite:       suite,
	}
	suite.specs = append(suite.specs, spec)
	suite.children = append(suite.children, Child{Spec: spec})
	suite.direct.Specs++
	for p := suite.parent; p != nil; p = p.parent {
		p.nested.Specs++
	}
	b.spec = spec
	return spec, nil
}

// SpecDone records the outcome of the open spec
func (b *Builder) SpecDone(info events.SpecInfo) (*SpecNode, error) {
	return b.SpecDoneWithOutput(info, "")
}

// SpecDoneWithOutput records the outcome of the open spec together with the
// output captured while it ran. Output of pending and disabled specs is dropped.
func (b *Builder) SpecDoneWithOutput(info events.SpecInfo, output string) (*SpecNode, error) {
	if err := b.requireRunning("SpecDone"); err != nil {
		return nil, err
	}
	spec := b.spec
	if spec == nil {
		return nil, protocolError("SpecDone", info.ID, ErrNoOpenSpec, "")
	}
	if info.ID != spec.ID {
		return nil, protocolError("SpecDone", info.ID, ErrSpecMismatch, "open spec is "+spec.ID)
	}
	if !info.Status.Valid() {
		return nil, protocolError("SpecDone", info.ID, ErrUnknownStatus, string(info.Status))
	}

	spec.Status = info.Status
	spec.Failures = append([]events.Failure(nil), info.Failures...)
	spec.PendingReason = info.PendingReason
	spec.End = b.stamp(info.Time)
	spec.done = true
	if !info.Status.NotRun() {
		spec.Output = output
	}

	delta := countsFor(info.Status)
	spec.suite.direct = spec.suite.direct.add(delta)
	for p := spec.suite.parent; p != nil; p = p.parent {
		p.nested = p.nested.add(delta)
	}

	totals := &b.run.Totals
	totals.Executed++
	switch info.Status {
	case events.StatusPassed:
		totals.Passed++
	case events.StatusFailed:
		totals.Failed++
	case events.StatusPending:
		totals.Pending++
	case events.StatusDisabled:
		totals.Disabled++
	}

	b.spec = nil
	return spec, nil
}

// SuiteDone closes the innermost open suite. A suite that was never started is
// recorded as a closed, disabled suite under the innermost open suite.
func (b *Builder) SuiteDone(info events.SuiteInfo) (*SuiteNode, error) {
	if err := b.requireRunning("SuiteDone"); err != nil {
		return nil, err
	}
	if b.spec != nil {
		return nil, protocolError("SuiteDone", info.ID, ErrSpecInProgress, b.spec.ID)
	}
	t := b.stamp(info.Time)
	b.closeSynthetic(t)

	if top := b.Current(); top != nil && top.ID == info.ID {
		top.End = t
		top.closed = true
		b.stack = b.stack[:len(b.stack)-1]
		return top, nil
	}
	if prev, ok := b.seen[info.ID]; ok {
		detail := "suite was already closed"
		if !prev.closed {
			detail = "open suite is " + b.Current().ID
		}
		return nil, protocolError("SuiteDone", info.ID, ErrSuiteMismatch, detail)
	}

	node := newSuite(info, t)
	node.End = t
	node.Disabled = true
	node.closed = true
	b.attach(node)
	if info.ID != "" {
		b.seen[info.ID] = node
	}
	return node, nil
}

// RunFinished closes the run and returns the finished tree. Suites left open
// other than the synthetic container make the run unbalanced.
func (b *Builder) RunFinished(info events.RunInfo) (*Run, error) {
	if err := b.requireRunning("RunFinished"); err != nil {
		return nil, err
	}
	if b.spec != nil {
		return nil, protocolError("RunFinished", b.spec.ID, ErrSpecInProgress, "")
	}
	t := b.stamp(info.Time)
	b.closeSynthetic(t)
	if len(b.stack) > 0 {
		open := make([]string, len(b.stack))
		for i, s := range b.stack {
			open[i] = s.Description
		}
		return nil, protocolError("RunFinished", "", ErrUnbalanced, strings.Join(open, " > "))
	}

	if info.TotalSpecsDefined > 0 {
		b.run.Totals.Defined = info.TotalSpecsDefined
	}
	b.run.End = t
	b.state = Finished
	return b.run, nil
}

func (b *Builder) attach(node *SuiteNode) {
	parent := b.Current()
	if parent == nil {
		b.run.Roots = append(b.run.Roots, node)
		return
	}
	node.parent = parent
	parent.suites = append(parent.suites, node)
	parent.children = append(parent.children, Child{Suite: node})
}

func (b *Builder) openSynthetic(t time.Time) *SuiteNode {
	node := newSuite(b.focused, t)
	node.Synthetic = true
	b.attach(node)
	b.stack = append(b.stack, node)
	return node
}

// closeSynthetic ends the synthetic container once real suite events resume
func (b *Builder) closeSynthetic(t time.Time) {
	top := b.Current()
	if top == nil || !top.Synthetic {
		return
	}
	top.End = t
	top.closed = true
	b.stack = b.stack[:len(b.stack)-1]
}
