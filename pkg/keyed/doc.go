// Package keyed renders a sequence of items into a region of a live tree
// and keeps that region in sync as the sequence changes.
//
// Each item is assigned an identity key. Rows whose key survives a change
// keep their nodes; only their index cell is updated. Rows that disappear
// are removed before anything else moves, and the remaining rows are
// placed with a single forward scan that relocates whole node groups.
//
// A reactive region is bracketed by two empty comment markers:
//
//	todos := cell.New([]Todo{{ID: 1, Title: "write"}})
//	r, err := keyed.New[Todo](todos, func(t Todo, i *cell.Cell[int], _ keyed.Source[Todo]) any {
//		return vdom.Li(vdom.Text(t.Title))
//	}, keyed.WithKey("ID"))
//	list.Append(r.Nodes()...)
//
// Static sources are rendered once with Static, and For picks the mode
// from the source's type.
package keyed
