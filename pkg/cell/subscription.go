package cell

import (
	"sync/atomic"
	"weak"
)

// SubscribeOptions configures a subscription.
type SubscribeOptions struct {
	// Weak makes the cell hold the subscription through a weak pointer.
	Weak bool

	// Priority orders notification; higher runs first.
	Priority int
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*SubscribeOptions)

// Weak makes the subscription weakly held by the cell.
func Weak() SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Weak = true
	}
}

// Priority sets the notification priority.
func Priority(p int) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Priority = p
	}
}

// Subscription is a registered change callback.
type Subscription[T any] struct {
	id       uint64
	fn       func(T)
	cell     *Cell[T]
	priority int
	weak     bool
	closed   atomic.Bool
}

// ID returns the unique identifier of the subscription.
func (s *Subscription[T]) ID() uint64 {
	return s.id
}

// Weak reports whether the cell holds this subscription weakly.
func (s *Subscription[T]) Weak() bool {
	return s.weak
}

// Unsubscribe stops further notifications. It is safe to call repeatedly.
func (s *Subscription[T]) Unsubscribe() {
	if s.closed.Swap(true) {
		return
	}
	s.cell.remove(s.id)
}

// entry is the cell-side record of a subscription.
type entry[T any] struct {
	id       uint64
	priority int
	strong   *Subscription[T]
	weak     weak.Pointer[Subscription[T]]
}

// resolve returns the live subscription, or nil if it was collected.
func (e *entry[T]) resolve() *Subscription[T] {
	if e.strong != nil {
		return e.strong
	}
	return e.weak.Value()
}
