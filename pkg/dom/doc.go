// Package dom provides the live node tree that reactive regions render into.
//
// The tree mirrors the browser DOM closely enough that the reconciliation
// algorithms written against it translate one to one: nodes carry parent
// and sibling links, insertion of an attached node moves it, and inserting
// a fragment moves the fragment's children and leaves the fragment empty.
//
// # Core Types
//
// Node is an element, text, comment or fragment. Elements keep an ordered
// attribute list. Every node has a process-unique ID used by the live patch
// stream to address it on the client.
//
// # Mutation
//
//	list := dom.NewElement("ul")
//	start, end := dom.NewComment(""), dom.NewComment("")
//	list.Append(start, end)
//	start.After(dom.NewElement("li"))
//
// # Observation
//
// Observe attaches an Observer to a subtree root. Every insert, move and
// removal inside that subtree is reported, which is how the live server
// turns tree mutations into wire patches.
//
// # Retention
//
// Pins attach arbitrary values to a node for as long as the node itself is
// reachable. Reactive regions pin their source and change listener on their
// start marker so a weakly held subscription stays alive exactly while the
// region is part of a tree.
//
// # Thread Safety
//
// Like the browser DOM, a tree is not safe for concurrent mutation. Callers
// that mutate one tree from several goroutines must serialize access.
package dom
