// Package cell provides the observable single-slot container consumed by
// reactive regions.
//
// # Core Types
//
// Cell[T] holds one value and notifies subscribers when it changes:
//
//	names := cell.New([]string{"Alice", "Bob"})
//	sub := names.Subscribe(func(v []string) { fmt.Println(v) })
//	names.Set([]string{"Alice", "Bob", "Carol"}) // prints the new slice
//	sub.Unsubscribe()
//
// # Priorities
//
// Subscribers run in descending priority order; equal priorities run in
// subscription order. Reconcilers subscribe at priority 0 so that
// application listeners with a positive priority observe a change before
// the tree is patched.
//
// # Weak Subscriptions
//
// A subscription made with Weak() is only referenced weakly by the cell.
// The caller decides its lifetime by keeping the returned *Subscription
// reachable; once it is collected the cell forgets it on the next change.
//
// # Thread Safety
//
// Cells are safe for concurrent use. Notification happens synchronously on
// the goroutine that called Set, after the value lock is released.
package cell
