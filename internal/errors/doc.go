// Package errors provides structured, coded errors for keyedlist.
//
// Every error carries a code (e.g. "E002") that maps to a category, a
// short message and a longer explanation. Callers attach detail, a fix
// suggestion, or the underlying cause:
//
//	err := errors.New("E002").
//	    WithDetail("render panicked: index out of range").
//	    Wrap(cause)
//
// # Error Categories
//
//   - render: template materialization and render function failures
//   - key: identity key derivation failures
//   - config: keyedlist.json loading and validation
//   - script: replay script loading
//   - transport: live server websocket failures
package errors
