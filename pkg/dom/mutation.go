package dom

// MutationKind identifies a structural change.
type MutationKind uint8

const (
	MutationInsert MutationKind = iota + 1 // Node attached to Parent
	MutationMove                           // Node relocated within the observed tree
	MutationRemove                         // Node detached from Parent
)

// String returns the string representation of the MutationKind.
func (k MutationKind) String() string {
	switch k {
	case MutationInsert:
		return "Insert"
	case MutationMove:
		return "Move"
	case MutationRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Mutation describes one structural change inside an observed subtree.
type Mutation struct {
	Kind MutationKind

	// Node is the inserted, moved or removed node.
	Node *Node

	// Parent is the new parent for Insert and Move, the old one for Remove.
	Parent *Node

	// Prev is the node's previous sibling after an Insert or Move.
	// nil means the node is now the first child of Parent.
	Prev *Node
}

// Observer receives mutations from an observed subtree.
type Observer interface {
	Observe(m Mutation)
}

// Observe attaches o to n. Mutations anywhere under n are reported to o
// unless a nearer ancestor has its own observer. A nil o detaches.
func (n *Node) Observe(o Observer) {
	n.observer = o
}

// observerRoot returns the nearest node at or above n carrying an observer.
func observerRoot(n *Node) *Node {
	for p := n; p != nil; p = p.parent {
		if p.observer != nil {
			return p
		}
	}
	return nil
}

// Append inserts nodes as the last children of n.
func (n *Node) Append(nodes ...*Node) {
	n.insertBefore(nodes, nil)
}

// InsertBefore inserts nodes before ref, which must be a child of n.
// A nil ref appends.
func (n *Node) InsertBefore(ref *Node, nodes ...*Node) {
	if ref != nil && ref.parent != n {
		panic("dom: reference node is not a child of this node")
	}
	n.insertBefore(nodes, ref)
}

// After inserts nodes immediately after n in n's parent. It does nothing
// when n is detached. Nodes already in a tree are moved; fragments
// contribute their children.
func (n *Node) After(nodes ...*Node) {
	parent := n.parent
	if parent == nil {
		return
	}
	parent.insertBefore(nodes, n.next)
}

// Before inserts nodes immediately before n in n's parent. It does nothing
// when n is detached.
func (n *Node) Before(nodes ...*Node) {
	parent := n.parent
	if parent == nil {
		return
	}
	parent.insertBefore(nodes, n)
}

// Remove detaches n from its parent. It does nothing when n is detached.
func (n *Node) Remove() {
	parent := n.parent
	if parent == nil {
		return
	}
	root := observerRoot(parent)
	n.unlink()
	if root != nil {
		root.observer.Observe(Mutation{Kind: MutationRemove, Node: n, Parent: parent})
	}
}

// Clear removes all children of n.
func (n *Node) Clear() {
	for n.firstChild != nil {
		n.firstChild.Remove()
	}
}

func containsNode(nodes []*Node, target *Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}

// insertBefore flattens fragments and links every node before ref.
func (n *Node) insertBefore(nodes []*Node, ref *Node) {
	flat := make([]*Node, 0, len(nodes))
	for _, x := range nodes {
		if x == nil {
			continue
		}
		if x.Contains(n) {
			panic("dom: cannot insert a node into itself or its descendant")
		}
		if x.Type == FragmentNode {
			// Fragment children leave the fragment without being reported:
			// a fragment is never part of an observed tree.
			for c := x.firstChild; c != nil; {
				next := c.next
				c.unlink()
				flat = append(flat, c)
				c = next
			}
			continue
		}
		flat = append(flat, x)
	}
	for ref != nil && containsNode(flat, ref) {
		ref = ref.next
	}

	newRoot := observerRoot(n)
	for _, x := range flat {
		var oldRoot *Node
		if x.parent != nil {
			oldRoot = observerRoot(x.parent)
			oldParent := x.parent
			x.unlink()
			if oldRoot != nil && oldRoot != newRoot {
				oldRoot.observer.Observe(Mutation{Kind: MutationRemove, Node: x, Parent: oldParent})
			}
		}
		n.link(x, ref)
		if newRoot == nil {
			continue
		}
		kind := MutationInsert
		if oldRoot == newRoot {
			kind = MutationMove
		}
		newRoot.observer.Observe(Mutation{Kind: kind, Node: x, Parent: n, Prev: x.prev})
	}
}

// link attaches a detached x before ref (or at the end).
func (n *Node) link(x, ref *Node) {
	x.parent = n
	if ref == nil {
		x.prev = n.lastChild
		x.next = nil
		if n.lastChild != nil {
			n.lastChild.next = x
		} else {
			n.firstChild = x
		}
		n.lastChild = x
		return
	}
	x.next = ref
	x.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = x
	} else {
		n.firstChild = x
	}
	ref.prev = x
}

// unlink detaches n from its parent without reporting.
func (n *Node) unlink() {
	p := n.parent
	if p == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.firstChild = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.lastChild = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}
