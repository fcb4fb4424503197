// Package tree holds the in-memory representation of a lexed markup
// document.
//
// Nodes live in a single arena owned by the Document. Children and parents
// reference each other by NodeID, so the tree has no cyclic ownership and a
// Document can be dropped as a whole once a scan completes.
package tree

import (
	"fmt"
	"strings"
)

// NodeID indexes a node inside its Document arena.
type NodeID int

// NoParent is the parent of top-level nodes.
const NoParent NodeID = -1

// Kind enumerates the node variants.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindDirective
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Before reports whether p comes strictly before o in document order.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range spans from Start (inclusive) to End (exclusive).
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Valid reports whether Start does not come after End.
func (r Range) Valid() bool {
	return !r.End.Before(r.Start)
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Attribute is a single name/value pair on an element.
type Attribute struct {
	// Name is lowercased; RawName keeps the source spelling.
	Name    string
	RawName string
	Value   string
	Range   Range
}

// Node is one parsed unit of a document.
type Node struct {
	ID     NodeID
	Kind   Kind
	Parent NodeID

	// Name is the lowercased element name. Empty for non-elements.
	Name    string
	RawName string

	// Data holds text, comment or directive content.
	Data string

	Attrs    []Attribute
	Children []NodeID

	// SelfClosing is set for `<x/>` and void elements.
	SelfClosing bool

	// Range covers the whole node; StartTag covers only the opening tag of
	// an element.
	Range    Range
	StartTag Range
}

// IsElement reports whether n is an element named name (case-insensitive).
func (n *Node) IsElement(name string) bool {
	return n.Kind == KindElement && strings.EqualFold(n.Name, name)
}

// Attr returns the attribute with the given name, ignoring case.
func (n *Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attribute{}, false
}

// HasAttr reports attribute presence, ignoring case and value.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// Document owns every node of one parsed file.
type Document struct {
	nodes []Node
	Roots []NodeID
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns the node with the given id. The pointer is only valid until
// the next Append.
func (d *Document) Node(id NodeID) *Node {
	return &d.nodes[id]
}

// Append adds n under parent and returns its id. Use NoParent for
// top-level nodes.
func (d *Document) Append(parent NodeID, n Node) NodeID {
	id := NodeID(len(d.nodes))
	n.ID = id
	n.Parent = parent
	d.nodes = append(d.nodes, n)
	if parent == NoParent {
		d.Roots = append(d.Roots, id)
	} else {
		d.nodes[parent].Children = append(d.nodes[parent].Children, id)
	}
	return id
}

// Parent returns the parent of id, or nil for top-level nodes.
func (d *Document) Parent(id NodeID) *Node {
	p := d.nodes[id].Parent
	if p == NoParent {
		return nil
	}
	return &d.nodes[p]
}

// Ancestors returns the chain from the direct parent of id up to the root.
func (d *Document) Ancestors(id NodeID) []*Node {
	var chain []*Node
	for p := d.nodes[id].Parent; p != NoParent; p = d.nodes[p].Parent {
		chain = append(chain, &d.nodes[p])
	}
	return chain
}

// Walk visits every node in pre-order. enter is called before the
// children of a node and leave after them; either may be nil.
func (d *Document) Walk(enter, leave func(*Node)) {
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := &d.nodes[id]
		if enter != nil {
			enter(n)
		}
		for _, c := range n.Children {
			walk(c)
		}
		if leave != nil {
			leave(&d.nodes[id])
		}
	}
	for _, r := range d.Roots {
		walk(r)
	}
}
