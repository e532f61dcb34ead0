package cell

import (
	"sort"
	"sync"
	"weak"
)

// Cell is an observable value container.
type Cell[T any] struct {
	id uint64

	// value is the current cell value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a Set is a change. nil uses defaultEquals.
	equal func(T, T) bool

	// subs are ordered by descending priority, then subscription order.
	subs  []*entry[T]
	subMu sync.Mutex
}

// New creates a cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		id:    nextID(),
		value: initial,
	}
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.id
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers if it changed.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.notify(value)
	}
}

// Update atomically reads and replaces the value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	old := c.value
	next := fn(old)
	changed := !c.equals(old, next)
	if changed {
		c.value = next
	}
	c.mu.Unlock()

	if changed {
		c.notify(next)
	}
}

// Notify re-delivers the current value to every subscriber. Use it after
// mutating a value in place, which Set cannot detect.
func (c *Cell[T]) Notify() {
	c.notify(c.Get())
}

// WithEquals configures the equality function used by Set and Update.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Subscribe registers fn for change notifications.
func (c *Cell[T]) Subscribe(fn func(T), opts ...SubscribeOption) *Subscription[T] {
	var o SubscribeOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Subscription[T]{
		id:       nextID(),
		fn:       fn,
		cell:     c,
		priority: o.Priority,
		weak:     o.Weak,
	}
	e := &entry[T]{id: s.id, priority: o.Priority}
	if o.Weak {
		e.weak = weak.Make(s)
	} else {
		e.strong = s
	}

	c.subMu.Lock()
	c.subs = append(c.subs, e)
	sort.SliceStable(c.subs, func(i, j int) bool {
		return c.subs[i].priority > c.subs[j].priority
	})
	c.subMu.Unlock()

	return s
}

// Subscribers returns the number of live subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	n := 0
	for _, e := range c.subs {
		if e.resolve() != nil {
			n++
		}
	}
	return n
}

func (c *Cell[T]) remove(id uint64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, e := range c.subs {
		if e.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// notify delivers value to every live subscriber, pruning collected ones.
// Uses copy-before-notify so callbacks may subscribe or unsubscribe.
func (c *Cell[T]) notify(value T) {
	c.subMu.Lock()
	live := make([]*Subscription[T], 0, len(c.subs))
	kept := c.subs[:0]
	for _, e := range c.subs {
		s := e.resolve()
		if s == nil {
			continue
		}
		kept = append(kept, e)
		live = append(live, s)
	}
	for i := len(kept); i < len(c.subs); i++ {
		c.subs[i] = nil
	}
	c.subs = kept
	c.subMu.Unlock()

	for _, s := range live {
		if s.closed.Load() {
			continue
		}
		s.fn(value)
	}
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals compares scalar values with ==. Every other type (slices,
// maps, structs, pointers) always counts as changed so that re-setting a
// slice mutated in place still notifies.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return scalarEquals(av, b)
	case int8:
		return scalarEquals(av, b)
	case int16:
		return scalarEquals(av, b)
	case int32:
		return scalarEquals(av, b)
	case int64:
		return scalarEquals(av, b)
	case uint:
		return scalarEquals(av, b)
	case uint8:
		return scalarEquals(av, b)
	case uint16:
		return scalarEquals(av, b)
	case uint32:
		return scalarEquals(av, b)
	case uint64:
		return scalarEquals(av, b)
	case float32:
		return scalarEquals(av, b)
	case float64:
		return scalarEquals(av, b)
	case string:
		return scalarEquals(av, b)
	case bool:
		return scalarEquals(av, b)
	default:
		return false
	}
}

// scalarEquals tolerates T being an interface type whose dynamic types differ.
func scalarEquals[S comparable](a S, b any) bool {
	bv, ok := b.(S)
	return ok && a == bv
}
