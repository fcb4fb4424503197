// Package visitor dispatches node callbacks to a set of checks in one
// pre-order traversal of a document.
//
// The Scanner holds no rule logic. Every registered check sees every node
// exactly once, in registration order, so several checks firing on the same
// node report in a stable order.
package visitor

import (
	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/tree"
)

// Check receives node callbacks during a scan. Embed BaseCheck to get no-op
// defaults and override only what the rule needs. Implementations must not
// mutate the tree and must not keep state across files; per-file state goes
// through Context.State.
type Check interface {
	StartDocument(ctx *Context)
	EndDocument(ctx *Context)
	StartElement(ctx *Context, n *tree.Node)
	EndElement(ctx *Context, n *tree.Node)
	Characters(ctx *Context, n *tree.Node)
	Comment(ctx *Context, n *tree.Node)
	Directive(ctx *Context, n *tree.Node)
}

// BaseCheck implements every Check callback as a no-op.
type BaseCheck struct{}

func (BaseCheck) StartDocument(*Context)            {}
func (BaseCheck) EndDocument(*Context)              {}
func (BaseCheck) StartElement(*Context, *tree.Node) {}
func (BaseCheck) EndElement(*Context, *tree.Node)   {}
func (BaseCheck) Characters(*Context, *tree.Node)   {}
func (BaseCheck) Comment(*Context, *tree.Node)      {}
func (BaseCheck) Directive(*Context, *tree.Node)    {}

// Option configures a registration.
type Option func(*registration)

// WithCost attaches a remediation cost to every issue the check reports.
func WithCost(cost float64) Option {
	return func(r *registration) {
		r.cost = &cost
	}
}

type registration struct {
	key   string
	check Check
	cost  *float64
}

// Scanner runs registered checks over documents.
type Scanner struct {
	regs []registration
}

// NewScanner creates a scanner with no checks.
func NewScanner() *Scanner {
	return &Scanner{}
}

// AddVisitor registers check under the rule key. Metric visitors that never
// report issues may use an empty key.
func (s *Scanner) AddVisitor(key string, check Check, opts ...Option) {
	r := registration{key: key, check: check}
	for _, opt := range opts {
		opt(&r)
	}
	s.regs = append(s.regs, r)
}

// Keys returns the registered rule keys in registration order.
func (s *Scanner) Keys() []string {
	keys := make([]string, len(s.regs))
	for i, r := range s.regs {
		keys[i] = r.key
	}
	return keys
}

// Scan walks doc once, feeding every check and collecting results in src.
// A panic inside a check aborts the scan of this document and is returned
// as an analysis error naming the rule.
func (s *Scanner) Scan(doc *tree.Document, src *sink.SourceCode) (err error) {
	ctx := newContext(doc, src, len(s.regs))

	defer func() {
		if r := recover(); r != nil {
			ae := errors.FromPanic(r, ctx.key())
			if ctx.node != nil {
				ae.WithLocation(src.Path(), ctx.node.Range.Start.Line, ctx.node.Range.Start.Column)
			} else {
				ae.WithLocation(src.Path(), 0, 0)
			}
			err = ae
		}
	}()

	s.each(ctx, func(c Check) { c.StartDocument(ctx) })
	for _, id := range doc.Roots {
		s.visit(ctx, id)
	}
	ctx.node = nil
	s.each(ctx, func(c Check) { c.EndDocument(ctx) })

	return nil
}

func (s *Scanner) visit(ctx *Context, id tree.NodeID) {
	n := ctx.doc.Node(id)
	ctx.node = n

	switch n.Kind {
	case tree.KindElement:
		s.each(ctx, func(c Check) { c.StartElement(ctx, n) })
		for _, child := range n.Children {
			s.visit(ctx, child)
		}
		ctx.node = n
		s.each(ctx, func(c Check) { c.EndElement(ctx, n) })
	case tree.KindText:
		s.each(ctx, func(c Check) { c.Characters(ctx, n) })
	case tree.KindComment:
		s.each(ctx, func(c Check) { c.Comment(ctx, n) })
	case tree.KindDirective:
		s.each(ctx, func(c Check) { c.Directive(ctx, n) })
	}
}

func (s *Scanner) each(ctx *Context, fn func(Check)) {
	for i := range s.regs {
		ctx.current = i
		ctx.reg = &s.regs[i]
		fn(s.regs[i].check)
	}
	ctx.reg = nil
}
