package checks

import (
	"strings"

	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/tree"
	"github.com/conneroisu/ecohtml/internal/visitor"
)

// Lines computes the line metrics of a file: total lines, lines holding
// markup or non-blank text, and lines holding comments.
type Lines struct {
	visitor.BaseCheck
}

type lineState struct {
	last    int
	code    map[int]bool
	comment map[int]bool
}

// StartDocument implements visitor.Check.
func (Lines) StartDocument(ctx *visitor.Context) {
	ctx.SetState(&lineState{
		code:    make(map[int]bool),
		comment: make(map[int]bool),
	})
}

func (Lines) state(ctx *visitor.Context) *lineState {
	return ctx.State().(*lineState)
}

func (l Lines) touch(ctx *visitor.Context, r tree.Range, set map[int]bool) {
	st := l.state(ctx)
	for line := r.Start.Line; line <= r.End.Line; line++ {
		set[line] = true
	}
	if r.End.Line > st.last {
		st.last = r.End.Line
	}
}

// StartElement implements visitor.Check.
func (l Lines) StartElement(ctx *visitor.Context, n *tree.Node) {
	l.touch(ctx, n.StartTag, l.state(ctx).code)
}

// EndElement implements visitor.Check.
func (l Lines) EndElement(ctx *visitor.Context, n *tree.Node) {
	if n.SelfClosing || n.Range.End == n.StartTag.End {
		return
	}
	end := n.Range.End
	l.touch(ctx, tree.Range{Start: end, End: end}, l.state(ctx).code)
}

// Characters implements visitor.Check.
func (l Lines) Characters(ctx *visitor.Context, n *tree.Node) {
	st := l.state(ctx)
	for i, segment := range strings.Split(n.Data, "\n") {
		if strings.TrimSpace(segment) != "" {
			st.code[n.Range.Start.Line+i] = true
		}
	}
	if n.Range.End.Line > st.last {
		st.last = n.Range.End.Line
	}
}

// Comment implements visitor.Check.
func (l Lines) Comment(ctx *visitor.Context, n *tree.Node) {
	l.touch(ctx, n.Range, l.state(ctx).comment)
}

// Directive implements visitor.Check.
func (l Lines) Directive(ctx *visitor.Context, n *tree.Node) {
	l.touch(ctx, n.Range, l.state(ctx).code)
}

// EndDocument implements visitor.Check.
func (l Lines) EndDocument(ctx *visitor.Context) {
	st := l.state(ctx)
	ctx.AddMeasure(sink.MetricLines, st.last)
	ctx.AddMeasure(sink.MetricNCLOC, len(st.code))
	ctx.AddMeasure(sink.MetricCommentLines, len(st.comment))
}

// controlFlow lists the attributes and elements that branch or loop in
// template languages.
var (
	controlFlowAttrs    = []string{"v-if", "v-else-if", "v-for"}
	controlFlowElements = []string{"c:if", "c:when", "c:foreach", "c:fortokens"}
)

// Complexity counts elements and the template constructs that branch or
// loop (Vue v-if/v-else-if/v-for and JSTL c:if/c:when/c:forEach).
type Complexity struct {
	visitor.BaseCheck
}

type complexityState struct {
	elements   int
	complexity int
}

// StartDocument implements visitor.Check.
func (Complexity) StartDocument(ctx *visitor.Context) {
	ctx.SetState(&complexityState{})
}

// StartElement implements visitor.Check.
func (Complexity) StartElement(ctx *visitor.Context, n *tree.Node) {
	st := ctx.State().(*complexityState)
	st.elements++
	for _, name := range controlFlowElements {
		if n.IsElement(name) {
			st.complexity++
			return
		}
	}
	for _, attr := range controlFlowAttrs {
		if n.HasAttr(attr) {
			st.complexity++
			return
		}
	}
}

// EndDocument implements visitor.Check.
func (Complexity) EndDocument(ctx *visitor.Context) {
	st := ctx.State().(*complexityState)
	ctx.AddMeasure(sink.MetricElements, st.elements)
	ctx.AddMeasure(sink.MetricComplexity, st.complexity)
}
