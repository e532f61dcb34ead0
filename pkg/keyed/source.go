package keyed

import "github.com/vango-dev/keyedlist/pkg/cell"

// Source provides the current item sequence.
type Source[T any] interface {
	Get() []T
}

// Observable is a Source that reports changes.
// *cell.Cell[[]T] satisfies it.
type Observable[T any] interface {
	Source[T]
	Subscribe(fn func([]T), opts ...cell.SubscribeOption) *cell.Subscription[[]T]
}

// Items is a fixed, non-observable Source.
type Items[T any] []T

// Get implements Source.
func (s Items[T]) Get() []T { return s }

// RenderFunc produces the template value for one row. index holds the
// row's current position and is updated in place when the row moves.
type RenderFunc[T any] func(item T, index *cell.Cell[int], list Source[T]) any
