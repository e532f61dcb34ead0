package keyed

import "sync/atomic"

// Handle is a stable reference to a render function that can be
// redirected between cycles. Rows rendered after a Swap use the new
// function; rows already in the tree are kept.
type Handle[T any] struct {
	fn atomic.Pointer[RenderFunc[T]]
}

// NewHandle returns a handle pointing at fn.
func NewHandle[T any](fn RenderFunc[T]) *Handle[T] {
	h := &Handle[T]{}
	h.fn.Store(&fn)
	return h
}

// Load returns the current render function.
func (h *Handle[T]) Load() RenderFunc[T] {
	if p := h.fn.Load(); p != nil {
		return *p
	}
	return nil
}

// Swap installs fn and returns the previous function.
func (h *Handle[T]) Swap(fn RenderFunc[T]) RenderFunc[T] {
	if p := h.fn.Swap(&fn); p != nil {
		return *p
	}
	return nil
}
