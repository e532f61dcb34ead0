// Package live streams a server-side tree to browsers.
//
// A Recorder observes a dom root and turns every insertion, move and
// removal below it into a protocol patch. A Server owns such a root,
// serves a minimal page that mirrors it, and broadcasts patch batches over
// WebSocket after every reconciliation cycle:
//
//	root := dom.NewElement("ul")
//	srv := live.NewServer(root, live.Config{Title: "todos"})
//	r, _ := keyed.New(todos, renderTodo, keyed.WithObserver(srv))
//	srv.Mutate(func() { r.Mount(root) })
//	srv.Run(ctx, ":8080")
//
// Tree changes must go through a reconciler that has the Server as an
// observer, or through Mutate, so that they never race with a client
// taking a snapshot.
package live
