package keyed

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	klerrors "github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/lifecycle"
)

// ErrDisposed is returned by Update after Dispose.
var ErrDisposed = errors.New("keyed: reconciler disposed")

// retentionPin names the start-marker pin that keeps the source and the
// weak subscription alive while the region is in a tree.
const retentionPin = "keyed.region"

type row struct {
	index *cell.Cell[int]
	nodes []*dom.Node
}

func (r *row) first() *dom.Node { return r.nodes[0] }
func (r *row) last() *dom.Node  { return r.nodes[len(r.nodes)-1] }

// lookahead records, for a row's first node, the row key and the last
// node of the row that precedes it in the new sequence.
type lookahead struct {
	key      Key
	prevLast *dom.Node
}

type retention struct {
	source any
	sub    any
}

// Row describes one live row.
type Row struct {
	Key   Key
	Index *cell.Cell[int]
	Nodes []*dom.Node
}

// Reconciler owns one reactive region. All cycles of a reconciler run
// under its lock; render functions and index cell subscribers must not
// change the source synchronously.
type Reconciler[T any] struct {
	mu sync.Mutex

	list   Observable[T]
	handle *Handle[T]
	opts   Options
	log    *slog.Logger

	start *dom.Node
	end   *dom.Node
	cache map[Key]*row
	order []Key
	sub   *cell.Subscription[[]T]

	cycle    uint64
	last     Stats
	err      error
	disposed bool
}

// New renders the current items of list and subscribes to its changes.
// The subscription is weak: it lives as long as the region's start marker
// is reachable or the Reconciler is held.
//
// Cycles started by a change of list report failures through Err and the
// WithErrorHandler callback; the code that changed list does not see them.
// Cycles hold the reconciler's lock, so render must not set list.
func New[T any](list Observable[T], render RenderFunc[T], opts ...Option) (*Reconciler[T], error) {
	if list == nil {
		return nil, errors.New("keyed: nil source")
	}
	if render == nil {
		return nil, errors.New("keyed: nil render function")
	}

	o := buildOptions(opts)
	log := o.Logger
	if o.Name != "" {
		log = log.With("region", o.Name)
	}

	r := &Reconciler[T]{
		list:   list,
		handle: NewHandle(render),
		opts:   o,
		log:    log,
		start:  dom.NewComment(""),
		end:    dom.NewComment(""),
		cache:  make(map[Key]*row),
	}
	if err := r.bootstrap(list.Get()); err != nil {
		return nil, err
	}

	r.sub = list.Subscribe(r.changed, cell.Weak(), cell.Priority(0))
	r.start.Pin(retentionPin, &retention{source: list, sub: r.sub})
	return r, nil
}

// For renders list. Observable sources get a reactive region including its
// two markers; other sources are rendered once.
func For[T any](list Source[T], render RenderFunc[T], opts ...Option) ([]*dom.Node, error) {
	if obs, ok := list.(Observable[T]); ok {
		r, err := New(obs, render, opts...)
		if err != nil {
			return nil, err
		}
		return r.Nodes(), nil
	}
	return Static(list, render, opts...)
}

// Static renders every item of list once. No markers are created and no
// state is kept.
func Static[T any](list Source[T], render RenderFunc[T], opts ...Option) ([]*dom.Node, error) {
	if list == nil {
		return nil, errors.New("keyed: nil source")
	}
	if render == nil {
		return nil, errors.New("keyed: nil render function")
	}
	o := buildOptions(opts)
	var out []*dom.Node
	for i, item := range list.Get() {
		nodes, err := renderRow[T](&o, render, item, cell.New(i), list)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (r *Reconciler[T]) bootstrap(items []T) error {
	render := r.handle.Load()
	for i, item := range items {
		key := r.key(item, i)
		if _, dup := r.cache[key]; dup {
			continue
		}
		index := cell.New(len(r.order))
		nodes, err := renderRow[T](&r.opts, render, item, index, r.list)
		if err != nil {
			return err
		}
		r.order = append(r.order, key)
		r.cache[key] = &row{index: index, nodes: nodes}
	}
	return nil
}

// renderRow renders, materializes and links one row. A panic in the
// render function is returned as an E002 error.
func renderRow[T any](o *Options, render RenderFunc[T], item T, index *cell.Cell[int], list Source[T]) (nodes []*dom.Node, err error) {
	defer func() {
		if p := recover(); p != nil {
			nodes = nil
			err = klerrors.New("E002").WithDetailf("row %d: %v", index.Get(), p)
		}
	}()

	nodes, err = o.Materialize(render(item, index, list))
	if err != nil {
		return nil, err
	}
	o.Linker.Link(nodes, render, lifecycle.Args{item, index, list})
	return nodes, nil
}

func (r *Reconciler[T]) key(item T, pos int) Key {
	k, err := deriveKey(r.opts.sel, item, pos)
	if err != nil {
		r.log.Warn("falling back to string key", "position", pos, "error", err)
	}
	return k
}

// changed is the source subscription. The emitted value only signals a
// change; the cycle always reconciles to the source's current value.
func (r *Reconciler[T]) changed([]T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	if _, err := r.reconcile(r.list.Get()); err != nil && r.opts.ErrorHandler != nil {
		r.opts.ErrorHandler(err)
	}
}

// Update reconciles the region to items.
func (r *Reconciler[T]) Update(items []T) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return Stats{}, ErrDisposed
	}
	return r.reconcile(items)
}

func (r *Reconciler[T]) reconcile(items []T) (st Stats, err error) {
	began := time.Now()
	r.cycle++
	st = Stats{Cycle: r.cycle, Rows: len(items)}

	finishers := make([]func(Stats, error), 0, len(r.opts.Observers))
	for _, obs := range r.opts.Observers {
		if f := obs.StartCycle(r.opts.Name); f != nil {
			finishers = append(finishers, f)
		}
	}
	defer func() {
		st.Duration = time.Since(began)
		for _, f := range finishers {
			f(st, err)
		}
		if err != nil {
			r.err = err
			r.log.Warn("reconcile failed", "cycle", st.Cycle, "error", err)
			return
		}
		r.err = nil
		r.last = st
		r.log.Debug("reconciled",
			"cycle", st.Cycle,
			"rows", st.Rows,
			"reused", st.Reused,
			"inserted", st.Inserted,
			"moved", st.Moved,
			"removed", st.Removed,
			"duration", st.Duration,
		)
	}()

	// Next generation and lookahead.
	render := r.handle.Load()
	next := make(map[Key]*row, len(items))
	keys := make([]Key, 0, len(items))
	ahead := make(map[*dom.Node]lookahead, len(items))
	var prevLast *dom.Node
	for i, item := range items {
		key := r.key(item, i)
		// A repeated key keeps the row of its first occurrence.
		if _, dup := next[key]; dup {
			continue
		}
		pos := len(keys)
		rw, ok := r.cache[key]
		if ok {
			rw.index.Set(pos)
			st.Reused++
		} else {
			index := cell.New(pos)
			nodes, err := renderRow[T](&r.opts, render, item, index, r.list)
			if err != nil {
				return st, err
			}
			rw = &row{index: index, nodes: nodes}
		}
		keys = append(keys, key)
		next[key] = rw

		if len(rw.nodes) == 0 {
			continue
		}
		ahead[rw.first()] = lookahead{key: key, prevLast: prevLast}
		prevLast = rw.last()
	}

	// Removals run to completion before anything moves.
	for _, key := range r.order {
		if _, keep := next[key]; keep {
			continue
		}
		rw := r.cache[key]
		lastIndex := rw.index.Get()
		for _, n := range rw.nodes {
			if r.opts.OnBeforeNodeRemove != nil {
				r.opts.OnBeforeNodeRemove(n, lastIndex)
			}
			n.Remove()
		}
		st.Removed++
	}

	if r.start.Parent() == nil {
		r.log.Warn("region is detached, rows left unplaced", "cycle", st.Cycle)
	} else {
		r.place(keys, next, ahead, &st)
	}

	r.cache = next
	r.order = keys
	return st, nil
}

// place moves and inserts rows in a single forward scan.
func (r *Reconciler[T]) place(keys []Key, next map[Key]*row, ahead map[*dom.Node]lookahead, st *Stats) {
	batch := dom.NewFragment()
	lastInserted := r.start

	flush := func() {
		if batch.HasChildren() {
			lastInserted.After(batch)
		}
	}
	inPlace := func(rw *row) bool {
		return lastInserted.NextSibling() == rw.first()
	}

	for _, key := range keys {
		rw := next[key]
		if len(rw.nodes) == 0 {
			continue
		}

		if inPlace(rw) {
			flush()
			lastInserted = rw.last()
			continue
		}

		// A row that jumped forward blocks the cursor: send it straight to
		// its new predecessor instead of shifting every row in between.
		if following := lastInserted.NextSibling(); following != nil {
			if la, ok := ahead[following]; ok && r.validAnchor(la.prevLast, following, rw, batch) {
				r.beforeMove(rw.nodes)
				la.prevLast.After(next[la.key].nodes...)
				st.Moved++
				if inPlace(rw) {
					flush()
					lastInserted = rw.last()
					continue
				}
			}
		}

		if rw.first().Parent() == nil {
			batch.Append(rw.nodes...)
			st.Inserted++
			continue
		}

		if batch.HasChildren() {
			anchor := batch.LastChild()
			lastInserted.After(batch)
			r.beforeMove(rw.nodes)
			anchor.After(rw.nodes...)
		} else {
			r.beforeMove(rw.nodes)
			lastInserted.After(rw.nodes...)
		}
		st.Moved++
		lastInserted = rw.last()
	}

	flush()
}

func (r *Reconciler[T]) validAnchor(anchor, following *dom.Node, current *row, batch *dom.Node) bool {
	return anchor != nil &&
		anchor.Parent() != nil &&
		anchor.Parent() != batch &&
		anchor.NextSibling() != following &&
		anchor != current.first()
}

func (r *Reconciler[T]) beforeMove(nodes []*dom.Node) {
	if r.opts.OnBeforeNodesMove != nil {
		r.opts.OnBeforeNodesMove(nodes)
	}
}

// Nodes returns the region in tree order: the start marker, every row's
// nodes, and the end marker.
func (r *Reconciler[T]) Nodes() []*dom.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*dom.Node, 0, len(r.order)+2)
	out = append(out, r.start)
	for _, key := range r.order {
		out = append(out, r.cache[key].nodes...)
	}
	return append(out, r.end)
}

// Mount appends the region to parent.
func (r *Reconciler[T]) Mount(parent *dom.Node) {
	parent.Append(r.Nodes()...)
}

// Markers returns the region's start and end markers.
func (r *Reconciler[T]) Markers() (start, end *dom.Node) {
	return r.start, r.end
}

// Rows returns the live rows in order.
func (r *Reconciler[T]) Rows() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Row, 0, len(r.order))
	for _, key := range r.order {
		rw := r.cache[key]
		out = append(out, Row{
			Key:   key,
			Index: rw.index,
			Nodes: append([]*dom.Node(nil), rw.nodes...),
		})
	}
	return out
}

// Len returns the number of live rows.
func (r *Reconciler[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Handle returns the render function handle.
func (r *Reconciler[T]) Handle() *Handle[T] {
	return r.handle
}

// LastStats returns the stats of the last successful cycle.
func (r *Reconciler[T]) LastStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Err returns the error of the last cycle, or nil if it succeeded.
func (r *Reconciler[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Dispose stops reacting to the source and releases the retention pin.
// The region's nodes are left in place.
func (r *Reconciler[T]) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true
	r.sub.Unsubscribe()
	r.start.Unpin(retentionPin)
}
