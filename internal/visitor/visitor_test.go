package visitor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/lexer"
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/tree"
)

func lex(t *testing.T, src string) *tree.Document {
	t.Helper()
	doc, err := lexer.NewPageLexer().Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

// tracer records every callback it receives.
type tracer struct {
	trace *[]string
	name  string
}

func (tr tracer) add(s string) { *tr.trace = append(*tr.trace, tr.name+s) }

func (tr tracer) StartDocument(*Context)                { tr.add(":start") }
func (tr tracer) EndDocument(*Context)                  { tr.add(":end") }
func (tr tracer) StartElement(_ *Context, n *tree.Node) { tr.add(":<" + n.Name) }
func (tr tracer) EndElement(_ *Context, n *tree.Node)   { tr.add(":>" + n.Name) }
func (tr tracer) Characters(_ *Context, n *tree.Node)   { tr.add(":t" + n.Data) }
func (tr tracer) Comment(_ *Context, n *tree.Node)      { tr.add(":c" + n.Data) }
func (tr tracer) Directive(_ *Context, n *tree.Node)    { tr.add(":d" + n.Data) }

func TestScanner_PreOrderDispatch(t *testing.T) {
	doc := lex(t, "<!DOCTYPE html><a>1<b>2</b><!--x--></a>")
	var trace []string

	s := NewScanner()
	s.AddVisitor("T", tracer{trace: &trace, name: "T"})
	require.NoError(t, s.Scan(doc, sink.NewSourceCode("f.html")))

	assert.Equal(t, []string{
		"T:start",
		"T:dhtml",
		"T:<a",
		"T:t1",
		"T:<b",
		"T:t2",
		"T:>b",
		"T:cx",
		"T:>a",
		"T:end",
	}, trace)
}

func TestScanner_RegistrationOrderPerNode(t *testing.T) {
	doc := lex(t, "<a></a>")
	var trace []string

	s := NewScanner()
	s.AddVisitor("1", tracer{trace: &trace, name: "1"})
	s.AddVisitor("2", tracer{trace: &trace, name: "2"})

	require.NoError(t, s.Scan(doc, sink.NewSourceCode("f.html")))
	assert.Equal(t, []string{"1:start", "2:start", "1:<a", "2:<a", "1:>a", "2:>a", "1:end", "2:end"}, trace)
	assert.Equal(t, []string{"1", "2"}, s.Keys())
}

// flagAll reports every element it enters.
type flagAll struct {
	BaseCheck
	msg string
}

func (f flagAll) StartElement(ctx *Context, n *tree.Node) {
	ctx.Report(n, f.msg)
}

func TestScanner_NChecksProduceNIssuesInOrder(t *testing.T) {
	doc := lex(t, "<video autoplay></video>")
	src := sink.NewSourceCode("f.html")

	s := NewScanner()
	for i := 1; i <= 4; i++ {
		s.AddVisitor(fmt.Sprintf("R%d", i), flagAll{msg: fmt.Sprintf("m%d", i)})
	}
	require.NoError(t, s.Scan(doc, src))

	issues := src.Issues()
	require.Len(t, issues, 4)
	for i, issue := range issues {
		assert.Equal(t, fmt.Sprintf("R%d", i+1), issue.RuleKey)
		assert.Equal(t, fmt.Sprintf("m%d", i+1), issue.Message)
		require.True(t, issue.Precise())
		assert.Equal(t, tree.Position{Line: 1, Column: 1}, issue.Range.Start)
		assert.Equal(t, tree.Position{Line: 1, Column: 17}, issue.Range.End)
	}
}

func TestScanner_WithCost(t *testing.T) {
	doc := lex(t, "<p></p>")
	src := sink.NewSourceCode("f.html")

	s := NewScanner()
	s.AddVisitor("R", flagAll{msg: "m"}, WithCost(5))
	s.AddVisitor("Q", flagAll{msg: "m"})
	require.NoError(t, s.Scan(doc, src))

	issues := src.Issues()
	require.Len(t, issues, 2)
	require.NotNil(t, issues[0].Cost)
	assert.Equal(t, 5.0, *issues[0].Cost)
	assert.Nil(t, issues[1].Cost)
}

// counter keeps a per-file element count in its context state and reports
// it at the end of the document.
type counter struct{ BaseCheck }

func (counter) StartDocument(ctx *Context) {
	if ctx.State() != nil {
		panic("state leaked from a previous file")
	}
	ctx.SetState(0)
}

func (counter) StartElement(ctx *Context, _ *tree.Node) {
	ctx.SetState(ctx.State().(int) + 1)
}

func (counter) EndDocument(ctx *Context) {
	ctx.ReportFile(fmt.Sprintf("%d elements", ctx.State().(int)))
}

func TestScanner_StateIsPerFile(t *testing.T) {
	s := NewScanner()
	s.AddVisitor("C", counter{})
	s.AddVisitor("D", counter{})

	first := sink.NewSourceCode("a.html")
	require.NoError(t, s.Scan(lex(t, "<a><b></b></a>"), first))
	second := sink.NewSourceCode("b.html")
	require.NoError(t, s.Scan(lex(t, "<a></a>"), second))

	require.Len(t, first.Issues(), 2)
	assert.Equal(t, "2 elements", first.Issues()[0].Message)
	assert.Equal(t, 0, first.Issues()[0].Line)
	require.Len(t, second.Issues(), 2)
	assert.Equal(t, "1 elements", second.Issues()[1].Message)
}

type panicky struct{ BaseCheck }

func (panicky) StartElement(_ *Context, n *tree.Node) {
	if n.Name == "bad" {
		panic("kaboom")
	}
}

func TestScanner_RecoversCheckPanic(t *testing.T) {
	doc := lex(t, "<ok></ok>\n<bad></bad>")
	src := sink.NewSourceCode("p.html")

	s := NewScanner()
	s.AddVisitor("P", panicky{})
	err := s.Scan(doc, src)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAnalysis))
	var ae *errors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "P", ae.Rule)
	assert.Equal(t, "p.html", ae.FilePath)
	assert.Equal(t, 2, ae.Line)
	assert.Contains(t, err.Error(), "kaboom")
}

type ancestry struct {
	BaseCheck
	got *[]string
}

func (a ancestry) StartElement(ctx *Context, n *tree.Node) {
	if n.Name != "source" {
		return
	}
	for _, p := range ctx.Ancestors(n) {
		*a.got = append(*a.got, p.Name)
	}
}

func TestContext_Ancestors(t *testing.T) {
	var got []string
	s := NewScanner()
	s.AddVisitor("A", ancestry{got: &got})

	require.NoError(t, s.Scan(lex(t, "<div><video><source src=x></video></div>"), sink.NewSourceCode("f.html")))
	assert.Equal(t, []string{"video", "div"}, got)
}

type measurer struct{ BaseCheck }

func (measurer) EndDocument(ctx *Context) {
	ctx.AddMeasure(sink.MetricElements, ctx.Document().Len())
	ctx.ReportLine(3, "line issue")
}

func TestContext_MeasuresAndLineIssues(t *testing.T) {
	src := sink.NewSourceCode("f.html")
	s := NewScanner()
	s.AddVisitor("", measurer{})

	require.NoError(t, s.Scan(lex(t, "<a></a><b></b>"), src))
	v, ok := src.Measure(sink.MetricElements)
	require.True(t, ok)
	assert.Equal(t, 2, v)
	require.Len(t, src.Issues(), 1)
	assert.Equal(t, 3, src.Issues()[0].Line)
	assert.False(t, src.Issues()[0].Precise())
}
