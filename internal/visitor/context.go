package visitor

import (
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/tree"
)

// Context is the per-file state handed to every callback. A fresh Context
// is built for each Scan, so nothing a check stores through it survives
// into the next file.
type Context struct {
	doc *tree.Document
	src *sink.SourceCode

	// current indexes the registration whose callback is running.
	current int
	reg     *registration
	node    *tree.Node

	states []interface{}
}

func newContext(doc *tree.Document, src *sink.SourceCode, checks int) *Context {
	return &Context{
		doc:    doc,
		src:    src,
		states: make([]interface{}, checks),
	}
}

// Document returns the document being scanned.
func (c *Context) Document() *tree.Document {
	return c.doc
}

// Path returns the path of the file being scanned.
func (c *Context) Path() string {
	return c.src.Path()
}

// Ancestors returns the parent chain of n, nearest first.
func (c *Context) Ancestors(n *tree.Node) []*tree.Node {
	return c.doc.Ancestors(n.ID)
}

func (c *Context) key() string {
	if c.reg == nil {
		return ""
	}
	return c.reg.key
}

// RuleKey returns the key the running check was registered under.
func (c *Context) RuleKey() string {
	return c.key()
}

// State returns the running check's per-file state, or nil.
func (c *Context) State() interface{} {
	return c.states[c.current]
}

// SetState replaces the running check's per-file state.
func (c *Context) SetState(v interface{}) {
	c.states[c.current] = v
}

// Report records an issue located on n. Elements are located on their
// start tag, other nodes on their full range.
func (c *Context) Report(n *tree.Node, message string) {
	rng := n.Range
	if n.Kind == tree.KindElement {
		rng = n.StartTag
	}
	issue, err := sink.NewPreciseIssue(c.key(), rng, message)
	if err != nil {
		// a range the lexer produced backwards still deserves a line
		issue = sink.NewIssue(c.key(), rng.Start.Line, message)
	}
	c.add(issue)
}

// ReportLine records an issue on a whole line.
func (c *Context) ReportLine(line int, message string) {
	c.add(sink.NewIssue(c.key(), line, message))
}

// ReportFile records an issue on the file itself.
func (c *Context) ReportFile(message string) {
	c.add(sink.NewIssue(c.key(), 0, message))
}

// AddMeasure records a per-file measure.
func (c *Context) AddMeasure(kind sink.MetricKind, value int) {
	c.src.AddMeasure(kind, value)
}

func (c *Context) add(issue sink.Issue) {
	if c.reg != nil && c.reg.cost != nil {
		issue = issue.WithCost(*c.reg.cost)
	}
	c.src.AddIssue(issue)
}
