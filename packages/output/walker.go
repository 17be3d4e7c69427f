package output

import (
	"strings"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
)

// Dialect renders one XML report format. The walker drives it in pre-order;
// a dialect only formats elements.
type Dialect interface {
	Name() string
	DefaultPrefix() string
	// Encoding is the value of the XML declaration's encoding attribute
	Encoding() string
	// Nested reports whether child suites are rendered inside their parent
	Nested() bool
	// SingleFile forces every run into one file whatever the consolidation options
	SingleFile() bool

	SummaryOpen(doc *Document, rc *RenderContext)
	SummaryClose(doc *Document, rc *RenderContext)
	SuiteOpen(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int)
	SuiteClose(doc *Document, rc *RenderContext, suite *tree.SuiteNode, depth int)
	Spec(doc *Document, rc *RenderContext, spec *tree.SpecNode, depth int)
}

// Document accumulates one XML file
type Document struct {
	b strings.Builder
}

// Line writes s on its own line indented by depth levels
func (d *Document) Line(depth int, s string) {
	for i := 0; i < depth; i++ {
		d.b.WriteString("  ")
	}
	d.b.WriteString(s)
	d.b.WriteByte('\n')
}

func (d *Document) String() string { return d.b.String() }

// RenderContext carries the finished run and the rendering options to a dialect
type RenderContext struct {
	Run              *tree.Run
	Package          string
	ReportName       string
	SuppressDisabled bool
	CaptureStdout    bool

	separator       string
	location        *time.Location
	modifySuiteName NameHook
}

// SuiteName is the qualified suite name after the user hook
func (rc *RenderContext) SuiteName(s *tree.SuiteNode) string {
	return rc.modify(QualifiedName(s, rc.separator), s)
}

// ShortName is the suite's own description after the user hook
func (rc *RenderContext) ShortName(s *tree.SuiteNode) string {
	return rc.modify(s.Description, s)
}

func (rc *RenderContext) modify(name string, s *tree.SuiteNode) string {
	if rc.modifySuiteName == nil {
		return name
	}
	return rc.modifySuiteName(name, s)
}

// Local converts t into the rendering time zone
func (rc *RenderContext) Local(t time.Time) time.Time {
	if rc.location == nil {
		return t.Local()
	}
	return t.In(rc.location)
}

// Timestamp renders t without a zone suffix
func (rc *RenderContext) Timestamp(t time.Time) string {
	return rc.Local(t).Format(timestampLayout)
}

func walk(doc *Document, d Dialect, rc *RenderContext, suites []*tree.SuiteNode, recurse bool) {
	for _, s := range suites {
		walkSuite(doc, d, rc, s, recurse, 1)
	}
}

func walkSuite(doc *Document, d Dialect, rc *RenderContext, s *tree.SuiteNode, recurse bool, depth int) {
	d.SuiteOpen(doc, rc, s, depth)

	if d.Nested() {
		for _, c := range s.Children() {
			switch {
			case c.Spec != nil:
				d.Spec(doc, rc, c.Spec, depth+1)
			case recurse:
				walkSuite(doc, d, rc, c.Suite, recurse, depth+1)
			}
		}
		d.SuiteClose(doc, rc, s, depth)
		return
	}

	for _, spec := range s.Specs() {
		d.Spec(doc, rc, spec, depth+1)
	}
	d.SuiteClose(doc, rc, s, depth)

	if recurse {
		for _, child := range s.Suites() {
			walkSuite(doc, d, rc, child, recurse, depth)
		}
	}
}
