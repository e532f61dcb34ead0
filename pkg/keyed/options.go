package keyed

import (
	"log/slog"

	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/lifecycle"
	"github.com/vango-dev/keyedlist/pkg/vdom"
)

// Options configures a reconciler. Use the With* and On* functions to
// build it.
type Options struct {
	// Name labels the region in logs, metrics and traces.
	Name string

	// OnBeforeNodesMove is called with a row's node group right before the
	// group is relocated.
	OnBeforeNodesMove func(nodes []*dom.Node)

	// OnBeforeNodeRemove is called for each node of a removed row right
	// before it is detached, with the row's last index.
	OnBeforeNodeRemove func(node *dom.Node, lastIndex int)

	// Materialize converts template values into nodes.
	// Default: vdom.Materialize.
	Materialize func(v any) ([]*dom.Node, error)

	// Linker registers rendered nodes. Default: lifecycle.Default.
	Linker lifecycle.Linker

	// Observers receive every cycle's outcome.
	Observers []Observer

	// Logger is the logger to use. Default: slog.Default().
	Logger *slog.Logger

	// ErrorHandler receives failures of change-triggered cycles.
	ErrorHandler func(err error)

	sel selector
}

// Option configures a reconciler.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Materialize: vdom.Materialize,
		Linker:      lifecycle.Default,
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Materialize == nil {
		o.Materialize = vdom.Materialize
	}
	if o.Linker == nil {
		o.Linker = lifecycle.Nop
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// WithName labels the region.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithKey keys rows by the named struct field or map entry.
func WithKey(field string) Option {
	return func(o *Options) {
		o.sel = fieldSelector(field)
	}
}

// WithKeyFunc keys rows by the value fn returns. A nil result falls back
// to the item's instance identity or a fresh token.
func WithKeyFunc(fn func(item any) any) Option {
	return func(o *Options) {
		o.sel = funcSelector(fn)
	}
}

// OnBeforeNodesMove sets the move callback.
func OnBeforeNodesMove(fn func(nodes []*dom.Node)) Option {
	return func(o *Options) {
		o.OnBeforeNodesMove = fn
	}
}

// OnBeforeNodeRemove sets the removal callback.
func OnBeforeNodeRemove(fn func(node *dom.Node, lastIndex int)) Option {
	return func(o *Options) {
		o.OnBeforeNodeRemove = fn
	}
}

// WithMaterializer replaces the template materializer.
func WithMaterializer(fn func(v any) ([]*dom.Node, error)) Option {
	return func(o *Options) {
		o.Materialize = fn
	}
}

// WithLinker replaces the lifecycle linker. A nil linker disables linking.
func WithLinker(l lifecycle.Linker) Option {
	return func(o *Options) {
		o.Linker = l
	}
}

// WithObserver adds a cycle observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observers = append(o.Observers, obs)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithErrorHandler sets the handler for failed change-triggered cycles.
func WithErrorHandler(fn func(err error)) Option {
	return func(o *Options) {
		o.ErrorHandler = fn
	}
}
