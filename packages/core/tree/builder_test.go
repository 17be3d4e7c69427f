package tree_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree/treetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleRun(t *testing.T) *tree.Run {
	t.Helper()
	c := tree.NewCollector()
	require.NoError(t, treetest.Play(c))
	require.NotNil(t, c.Result())
	return c.Result()
}

func TestBuilder_ExampleRunCounters(t *testing.T) {
	run := exampleRun(t)
	suites := run.Suites()
	require.Len(t, suites, 4)

	parent, sub, subSub, sibling := suites[0], suites[1], suites[2], suites[3]

	assert.Equal(t, tree.Counts{Specs: 4, Failures: 1, Skipped: 1, Disabled: 1}, subSub.Direct())
	assert.Equal(t, tree.Counts{}, subSub.Nested())
	assert.Equal(t, 1, subSub.Direct().Passed())

	assert.Equal(t, tree.Counts{Specs: 1}, sub.Direct())
	assert.Equal(t, tree.Counts{Specs: 4, Failures: 1, Skipped: 1, Disabled: 1}, sub.Nested())

	assert.Equal(t, tree.Counts{Specs: 1}, parent.Direct())
	assert.Equal(t, tree.Counts{Specs: 6, Failures: 1, Skipped: 1, Disabled: 1}, parent.Total())
	assert.True(t, parent.Failed())

	assert.Equal(t, tree.Counts{Specs: 1}, sibling.Total())
	assert.False(t, sibling.Failed())

	assert.Equal(t, tree.Totals{
		Defined:  7,
		Executed: 7,
		Passed:   4,
		Failed:   1,
		Pending:  1,
		Disabled: 1,
	}, run.Totals)
	assert.Equal(t, 7, run.Totals.Total())
	assert.Equal(t, 1, run.Totals.DisabledTotal())
	assert.Equal(t, 2, run.Totals.NotRun())
}

func TestBuilder_DiscoveryOrder(t *testing.T) {
	run := exampleRun(t)

	var names []string
	for _, s := range run.Suites() {
		names = append(names, s.Description)
	}
	assert.Equal(t, []string{
		treetest.ParentSuite,
		treetest.SubSuite,
		treetest.SubSubSuite,
		treetest.SiblingSuite,
	}, names)

	sub := run.Suites()[1]
	children := sub.Children()
	require.Len(t, children, 2)
	require.NotNil(t, children[0].Spec)
	assert.Equal(t, treetest.OneLevelSpec, children[0].Spec.Description)
	require.NotNil(t, children[1].Suite)
	assert.Equal(t, treetest.SubSubSuite, children[1].Suite.Description)

	var specs []string
	for _, s := range run.Specs() {
		specs = append(specs, s.ID)
	}
	assert.Equal(t, []string{"spec1", "spec2", "spec3", "spec4", "spec5", "spec6", "spec7"}, specs)
}

func TestBuilder_PathAndDepth(t *testing.T) {
	run := exampleRun(t)
	subSub := run.Suites()[2]

	assert.Equal(t, 3, subSub.Depth())
	assert.Equal(t, []string{treetest.ParentSuite, treetest.SubSuite, treetest.SubSubSuite}, subSub.Path())
	assert.Equal(t, 1, run.Roots[0].Depth())
	assert.Nil(t, run.Roots[0].Parent())
	assert.Same(t, run.Roots[0], subSub.Parent().Parent())
}

func TestBuilder_NestedFailuresPropagateToEveryAncestor(t *testing.T) {
	c := tree.NewCollector()
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(0)
	var nest func(depth int)
	nest = func(depth int) {
		p.Suite(fmt.Sprintf("s%d", depth), fmt.Sprintf("Level%d", depth), func() {
			if depth == 5 {
				p.Spec("leaf", "fails", events.StatusFailed, treetest.Failure)
				p.Spec("other", "skipped", events.StatusPending)
				return
			}
			nest(depth + 1)
		})
	}
	nest(1)
	p.RunFinished(0)
	require.NoError(t, p.Err)

	suites := c.Result().Suites()
	require.Len(t, suites, 5)
	for i, s := range suites[:4] {
		assert.Equal(t, 0, s.Direct().Failures, "level %d", i+1)
		assert.Equal(t, 1, s.Nested().Failures, "level %d", i+1)
		assert.Equal(t, 1, s.Nested().Skipped, "level %d", i+1)
		assert.Equal(t, 2, s.Nested().Specs, "level %d", i+1)
		assert.True(t, s.Failed())
	}
	assert.Equal(t, tree.Counts{Specs: 2, Failures: 1, Skipped: 1}, suites[4].Direct())
}

func TestBuilder_NestedCountsSumChildrenAcrossBranches(t *testing.T) {
	c := tree.NewCollector()
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(0)
	p.Suite("a", "A", func() {
		p.Spec("a1", "fails in A", events.StatusFailed, treetest.Failure)
		p.Suite("b", "B", func() {
			p.Spec("b1", "fails in B", events.StatusFailed, treetest.Failure)
			p.Suite("c", "C", func() {
				p.Spec("c1", "fails in C", events.StatusFailed, treetest.Failure)
				p.Spec("c2", "passes in C", events.StatusPassed)
			})
			p.Suite("d", "D", func() {
				p.Spec("d1", "passes in D", events.StatusPassed)
			})
		})
		p.Suite("e", "E", func() {
			p.Spec("e1", "fails in E", events.StatusFailed, treetest.Failure)
			p.Suite("f", "F", func() {
				p.Spec("f1", "disabled in F", events.StatusDisabled)
			})
		})
	})
	p.Suite("g", "G", func() {
		p.Spec("g1", "passes in G", events.StatusPassed)
	})
	p.RunFinished(0)
	require.NoError(t, p.Err)

	suites := c.Result().Suites()
	require.Len(t, suites, 7)
	byName := make(map[string]*tree.SuiteNode)
	for _, s := range suites {
		byName[s.Description] = s
	}

	for _, s := range suites {
		var sum tree.Counts
		for _, child := range s.Suites() {
			total := child.Total()
			sum.Specs += total.Specs
			sum.Failures += total.Failures
			sum.Skipped += total.Skipped
			sum.Disabled += total.Disabled
		}
		assert.Equal(t, sum, s.Nested(), "suite %s", s.Description)
	}

	assert.Equal(t, tree.Counts{Specs: 1, Failures: 1}, byName["A"].Direct())
	assert.Equal(t, tree.Counts{Specs: 6, Failures: 3, Disabled: 1}, byName["A"].Nested())
	assert.Equal(t, tree.Counts{Specs: 3, Failures: 1}, byName["B"].Nested())
	assert.Equal(t, tree.Counts{Specs: 1, Disabled: 1}, byName["E"].Nested())
	assert.Equal(t, tree.Counts{Specs: 2, Failures: 1}, byName["C"].Direct())
	assert.Equal(t, tree.Counts{}, byName["G"].Nested())
	assert.Equal(t, 3, byName["C"].Depth())
	assert.Equal(t, 3, byName["F"].Depth())
}

func TestBuilder_SpecOutsideSuiteOpensSyntheticContainer(t *testing.T) {
	c := tree.NewCollector()
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(0)
	p.Spec("f1", "focused one", events.StatusPassed)
	p.Spec("f2", "focused two", events.StatusFailed, treetest.Failure)
	p.Suite("s1", "Regular", func() {
		p.Spec("r1", "regular", events.StatusPassed)
	})
	p.RunFinished(0)
	require.NoError(t, p.Err)

	run := c.Result()
	require.Len(t, run.Roots, 2)

	focused := run.Roots[0]
	assert.True(t, focused.Synthetic)
	assert.True(t, focused.Closed())
	assert.Equal(t, "focused", focused.ID)
	assert.Equal(t, "focused specs", focused.Description)
	assert.Equal(t, tree.Counts{Specs: 2, Failures: 1}, focused.Direct())

	regular := run.Roots[1]
	assert.False(t, regular.Synthetic)
	assert.Nil(t, regular.Parent())
}

func TestBuilder_CustomFocusedSuite(t *testing.T) {
	c := tree.NewCollector(tree.WithFocusedSuite(events.SuiteInfo{ID: "fit", Description: "fit specs"}))
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(0)
	p.Spec("f1", "focused", events.StatusPassed)
	p.RunFinished(0)
	require.NoError(t, p.Err)

	assert.Equal(t, "fit specs", c.Result().Roots[0].Description)
}

func TestBuilder_SuiteDoneWithoutStartIsDisabled(t *testing.T) {
	c := tree.NewCollector()
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(0)
	p.Suite("s1", "Outer", func() {
		p.DisabledSuite("x1", "Excluded")
		p.Spec("r1", "runs", events.StatusPassed)
	})
	p.DisabledSuite("x2", "Excluded root")
	p.RunFinished(0)
	require.NoError(t, p.Err)

	run := c.Result()
	require.Len(t, run.Roots, 2)

	inner := run.Roots[0].Suites()[0]
	assert.True(t, inner.Disabled)
	assert.True(t, inner.Closed())
	assert.Equal(t, inner.Start, inner.End)
	assert.Equal(t, 0, inner.Total().Specs)

	root := run.Roots[1]
	assert.True(t, root.Disabled)
	assert.Equal(t, "Excluded root", root.Description)
}

func TestBuilder_OutputDiscardedForNotRunSpecs(t *testing.T) {
	b := tree.NewBuilder()
	require.NoError(t, b.RunStarted(events.RunInfo{}))
	_, err := b.SuiteStarted(events.SuiteInfo{ID: "s1", Description: "Suite"})
	require.NoError(t, err)

	tests := []struct {
		status events.Status
		want   string
	}{
		{events.StatusPassed, "hello\n"},
		{events.StatusFailed, "hello\n"},
		{events.StatusPending, ""},
		{events.StatusDisabled, ""},
	}
	for i, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			id := fmt.Sprintf("spec%d", i)
			_, err := b.SpecStarted(events.SpecInfo{ID: id})
			require.NoError(t, err)
			spec, err := b.SpecDoneWithOutput(events.SpecInfo{ID: id, Status: tt.status}, "hello\n")
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Output)
			assert.True(t, spec.Done())
		})
	}
}

func TestBuilder_ZeroTimestampsUseClock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b := tree.NewBuilder(tree.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	require.NoError(t, b.RunStarted(events.RunInfo{}))
	suite, err := b.SuiteStarted(events.SuiteInfo{ID: "s1"})
	require.NoError(t, err)
	spec, err := b.SpecStarted(events.SpecInfo{ID: "p1"})
	require.NoError(t, err)
	_, err = b.SpecDone(events.SpecInfo{ID: "p1", Status: events.StatusPassed})
	require.NoError(t, err)
	_, err = b.SuiteDone(events.SuiteInfo{ID: "s1"})
	require.NoError(t, err)
	run, err := b.RunFinished(events.RunInfo{})
	require.NoError(t, err)

	assert.Equal(t, time.Second, spec.Duration())
	assert.Equal(t, 3*time.Second, suite.Duration())
	assert.Equal(t, 5*time.Second, run.Duration())
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, tree.Finished, b.State())
}

func TestBuilder_UnreportedSpecsCountAsDisabled(t *testing.T) {
	c := tree.NewCollector()
	p := &treetest.Player{L: c, At: treetest.Base}
	p.RunStarted(5)
	p.Suite("s1", "Suite", func() {
		p.Spec("a", "a", events.StatusPassed)
		p.Spec("b", "b", events.StatusPending)
		p.Spec("c", "c", events.StatusDisabled)
	})
	p.RunFinished(5)
	require.NoError(t, p.Err)

	totals := c.Result().Totals
	assert.Equal(t, 5, totals.Total())
	assert.Equal(t, 3, totals.Executed)
	assert.Equal(t, 2, totals.Unreported())
	assert.Equal(t, 3, totals.DisabledTotal())
	assert.Equal(t, 4, totals.NotRun())
}

func TestBuilder_ProtocolErrors(t *testing.T) {
	t.Run("suite before run", func(t *testing.T) {
		b := tree.NewBuilder()
		_, err := b.SuiteStarted(events.SuiteInfo{ID: "s1"})
		assert.ErrorIs(t, err, tree.ErrRunNotStarted)
	})

	t.Run("run started twice", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		assert.ErrorIs(t, b.RunStarted(events.RunInfo{}), tree.ErrRunInProgress)
	})

	t.Run("spec done without start", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SpecDone(events.SpecInfo{ID: "p1", Status: events.StatusPassed})
		assert.ErrorIs(t, err, tree.ErrNoOpenSpec)
	})

	t.Run("spec done for another spec", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SpecStarted(events.SpecInfo{ID: "p1"})
		require.NoError(t, err)
		_, err = b.SpecDone(events.SpecInfo{ID: "p2", Status: events.StatusPassed})
		assert.ErrorIs(t, err, tree.ErrSpecMismatch)
	})

	t.Run("unknown status", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SpecStarted(events.SpecInfo{ID: "p1"})
		require.NoError(t, err)
		_, err = b.SpecDone(events.SpecInfo{ID: "p1", Status: "exploded"})
		assert.ErrorIs(t, err, tree.ErrUnknownStatus)
	})

	t.Run("nested spec", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SpecStarted(events.SpecInfo{ID: "p1"})
		require.NoError(t, err)
		_, err = b.SpecStarted(events.SpecInfo{ID: "p2"})
		assert.ErrorIs(t, err, tree.ErrSpecInProgress)
	})

	t.Run("suite closed out of order", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SuiteStarted(events.SuiteInfo{ID: "outer"})
		require.NoError(t, err)
		_, err = b.SuiteStarted(events.SuiteInfo{ID: "inner"})
		require.NoError(t, err)
		_, err = b.SuiteDone(events.SuiteInfo{ID: "outer"})
		assert.ErrorIs(t, err, tree.ErrSuiteMismatch)
	})

	t.Run("suite closed twice", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SuiteStarted(events.SuiteInfo{ID: "s1"})
		require.NoError(t, err)
		_, err = b.SuiteDone(events.SuiteInfo{ID: "s1"})
		require.NoError(t, err)
		_, err = b.SuiteDone(events.SuiteInfo{ID: "s1"})
		assert.ErrorIs(t, err, tree.ErrSuiteMismatch)
	})

	t.Run("unbalanced run", func(t *testing.T) {
		b := tree.NewBuilder()
		require.NoError(t, b.RunStarted(events.RunInfo{}))
		_, err := b.SuiteStarted(events.SuiteInfo{ID: "s1", Description: "Outer"})
		require.NoError(t, err)
		_, err = b.SuiteStarted(events.SuiteInfo{ID: "s2", Description: "Inner"})
		require.NoError(t, err)

		run, err := b.RunFinished(events.RunInfo{})
		assert.Nil(t, run)
		require.ErrorIs(t, err, tree.ErrUnbalanced)

		var perr *tree.ProtocolError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "RunFinished", perr.Op)
		assert.Equal(t, "Outer > Inner", perr.Detail)
		assert.Equal(t, tree.Running, b.State())
	})
}

func TestBuilder_RestartAfterFinish(t *testing.T) {
	c := tree.NewCollector()
	require.NoError(t, treetest.Play(c))
	first := c.Result()

	require.NoError(t, treetest.Play(c))
	second := c.Result()

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not-started", tree.NotStarted.String())
	assert.Equal(t, "running", tree.Running.String())
	assert.Equal(t, "finished", tree.Finished.String())
}
