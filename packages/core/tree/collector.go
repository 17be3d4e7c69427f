package tree

import "github.com/abdul-hamid-achik/specreport/packages/core/events"

// Collector is an events.Listener that only builds the tree. The finished run
// is available from Result once RunFinished succeeded.
type Collector struct {
	builder *Builder
	result  *Run
}

// NewCollector creates a Collector backed by a fresh Builder
func NewCollector(opts ...Option) *Collector {
	return &Collector{builder: NewBuilder(opts...)}
}

// Builder exposes the underlying builder for in-flight inspection
func (c *Collector) Builder() *Builder { return c.builder }

// Result returns the last finished run, nil before the first RunFinished
func (c *Collector) Result() *Run { return c.result }

func (c *Collector) RunStarted(info events.RunInfo) error {
	return c.builder.RunStarted(info)
}

func (c *Collector) SuiteStarted(suite events.SuiteInfo) error {
	_, err := c.builder.SuiteStarted(suite)
	return err
}

func (c *Collector) SpecStarted(spec events.SpecInfo) error {
	_, err := c.builder.SpecStarted(spec)
	return err
}

func (c *Collector) SpecDone(spec events.SpecInfo) error {
	_, err := c.builder.SpecDone(spec)
	return err
}

func (c *Collector) SuiteDone(suite events.SuiteInfo) error {
	_, err := c.builder.SuiteDone(suite)
	return err
}

func (c *Collector) RunFinished(info events.RunInfo) error {
	run, err := c.builder.RunFinished(info)
	if err != nil {
		return err
	}
	c.result = run
	return nil
}

var _ events.Listener = (*Collector)(nil)
