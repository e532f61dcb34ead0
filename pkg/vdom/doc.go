// Package vdom provides template values for row render functions and the
// default step that materializes them into live tree nodes.
//
// A render function returns any TemplateValue. Supported values are:
//
//   - *VNode and []*VNode built with the element factories
//   - *dom.Node and []*dom.Node, used as-is (fragments contribute children)
//   - string, fmt.Stringer, and numbers, which become text nodes
//   - Component, rendered and then materialized
//   - []any mixing any of the above
//   - nil and bool, which produce no nodes
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Li(Class("row"), Data("id", item.ID),
//	    Span(Text(item.Label)),
//	)
//
// Materialize is synchronous; asynchronous template values must be
// resolved before they reach it.
package vdom
