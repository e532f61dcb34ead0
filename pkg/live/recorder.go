package live

import (
	"sync"

	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/protocol"
	"github.com/vango-dev/keyedlist/pkg/render"
)

// Recorder collects patches for mutations below an observed root.
type Recorder struct {
	mu      sync.Mutex
	seq     uint64
	pending []protocol.Patch
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements dom.Observer.
func (r *Recorder) Observe(m dom.Mutation) {
	var p protocol.Patch
	switch m.Kind {
	case dom.MutationInsert:
		p = protocol.NewInsertPatch(m.Node.ID(), m.Parent.ID(), idOf(m.Prev), render.String(m.Node), PreorderIDs(m.Node))
	case dom.MutationMove:
		p = protocol.NewMovePatch(m.Node.ID(), m.Parent.ID(), idOf(m.Prev))
	case dom.MutationRemove:
		p = protocol.NewRemovePatch(m.Node.ID())
	default:
		return
	}

	r.mu.Lock()
	r.pending = append(r.pending, p)
	r.mu.Unlock()
}

// Pending returns the number of unflushed patches.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Seq returns the sequence number of the last flushed batch.
func (r *Recorder) Seq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Flush returns the pending patches as the next batch. It reports false
// when nothing is pending.
func (r *Recorder) Flush() (*protocol.PatchesFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil, false
	}
	r.seq++
	pf := &protocol.PatchesFrame{Seq: r.seq, Patches: r.pending}
	r.pending = nil
	return pf, true
}

// PreorderIDs lists the ids of n and its descendants in pre-order, the
// order a client walks the parsed HTML of n.
func PreorderIDs(n *dom.Node) []uint64 {
	var ids []uint64
	var walk func(*dom.Node)
	walk = func(x *dom.Node) {
		ids = append(ids, x.ID())
		for c := x.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return ids
}

func idOf(n *dom.Node) uint64 {
	if n == nil {
		return 0
	}
	return n.ID()
}
