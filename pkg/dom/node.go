package dom

import (
	"strings"
	"sync/atomic"
)

// NodeType is the node type discriminator.
type NodeType uint8

const (
	ElementNode  NodeType = iota + 1 // <li>, <div>, etc.
	TextNode                         // Plain text
	CommentNode                      // <!-- -->, used for region markers
	FragmentNode                     // Detached holder whose children move on insertion
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case FragmentNode:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

var nodeIDCounter uint64

func nextNodeID() uint64 {
	return atomic.AddUint64(&nodeIDCounter, 1)
}

// Node is a live tree node.
type Node struct {
	Type NodeType
	Tag  string // For ElementNode
	Data string // For TextNode and CommentNode

	id    uint64
	attrs []Attr

	parent     *Node
	firstChild *Node
	lastChild  *Node
	prev       *Node
	next       *Node

	// pins are strong references kept alive by this node.
	pins map[string]any

	// values is free-form per-node metadata.
	values map[any]any

	observer Observer
}

func newNode(t NodeType) *Node {
	return &Node{Type: t, id: nextNodeID()}
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	n := newNode(ElementNode)
	n.Tag = strings.ToLower(tag)
	if len(attrs) > 0 {
		n.attrs = append(n.attrs, attrs...)
	}
	return n
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	n := newNode(TextNode)
	n.Data = text
	return n
}

// NewComment creates a detached comment node.
func NewComment(text string) *Node {
	n := newNode(CommentNode)
	n.Data = text
	return n
}

// NewFragment creates an empty fragment.
func NewFragment(children ...*Node) *Node {
	n := newNode(FragmentNode)
	n.Append(children...)
	return n
}

// ID returns the process-unique identifier of the node.
func (n *Node) ID() uint64 {
	return n.id
}

// Parent returns the parent node, or nil if the node is detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	return n.firstChild
}

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node {
	return n.lastChild
}

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling() *Node {
	return n.next
}

// PrevSibling returns the preceding sibling, or nil.
func (n *Node) PrevSibling() *Node {
	return n.prev
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool {
	return n.firstChild != nil
}

// ChildNodes returns a snapshot of the node's children.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Attrs returns the element's attributes in insertion order.
func (n *Node) Attrs() []Attr {
	return n.attrs
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// RemoveAttr removes the named attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// TextContent returns the concatenated text of the node and its descendants.
// Comments contribute nothing.
func (n *Node) TextContent() string {
	switch n.Type {
	case TextNode:
		return n.Data
	case CommentNode:
		return ""
	}
	var sb strings.Builder
	for c := n.firstChild; c != nil; c = c.next {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Pin stores a strong reference under name for as long as n is reachable.
func (n *Node) Pin(name string, v any) {
	if n.pins == nil {
		n.pins = make(map[string]any)
	}
	n.pins[name] = v
}

// Pinned returns the value pinned under name.
func (n *Node) Pinned(name string) (any, bool) {
	v, ok := n.pins[name]
	return v, ok
}

// Unpin drops the reference pinned under name.
func (n *Node) Unpin(name string) {
	delete(n.pins, name)
}

// HasPins reports whether anything is pinned on the node.
func (n *Node) HasPins() bool {
	return len(n.pins) > 0
}

// SetValue stores metadata on the node.
func (n *Node) SetValue(key, value any) {
	if n.values == nil {
		n.values = make(map[any]any)
	}
	n.values[key] = value
}

// Value returns metadata stored with SetValue.
func (n *Node) Value(key any) any {
	return n.values[key]
}

// String returns a short debugging description of the node.
func (n *Node) String() string {
	switch n.Type {
	case ElementNode:
		return "<" + n.Tag + ">"
	case TextNode:
		return "#text(" + n.Data + ")"
	case CommentNode:
		return "<!--" + n.Data + "-->"
	case FragmentNode:
		return "#fragment"
	default:
		return "#unknown"
	}
}
