// Package lifecycle links generated nodes to the render function instance
// that produced them.
package lifecycle

import "github.com/vango-dev/keyedlist/pkg/dom"

// Args is the argument list a render function was invoked with.
type Args []any

// Binding records which function produced a node and with which arguments.
type Binding struct {
	Fn   any
	Args Args
}

// Linker registers nodes against the function that produced them.
type Linker interface {
	Link(nodes []*dom.Node, fn any, args Args)
}

// LinkerFunc adapts a function to the Linker interface.
type LinkerFunc func(nodes []*dom.Node, fn any, args Args)

// Link implements Linker.
func (f LinkerFunc) Link(nodes []*dom.Node, fn any, args Args) {
	f(nodes, fn, args)
}

type bindingKey struct{}

// NodeLinker stores the binding on each node.
type NodeLinker struct{}

// Link implements Linker.
func (NodeLinker) Link(nodes []*dom.Node, fn any, args Args) {
	if len(nodes) == 0 {
		return
	}
	b := &Binding{Fn: fn, Args: args}
	for _, n := range nodes {
		n.SetValue(bindingKey{}, b)
	}
}

// BindingOf returns the binding recorded by NodeLinker, or nil.
func BindingOf(n *dom.Node) *Binding {
	if n == nil {
		return nil
	}
	b, _ := n.Value(bindingKey{}).(*Binding)
	return b
}

// Nop discards every link.
var Nop Linker = LinkerFunc(func([]*dom.Node, any, Args) {})

// Default is the linker used when none is configured.
var Default Linker = NodeLinker{}
