// Package render serializes live trees to HTML.
//
// Text and attribute values are escaped. Comments are written verbatim,
// so the empty markers of a keyed region appear as <!---->. Void elements
// without children self-close. Two adjacent non-blank text nodes are
// separated by <!--@@--> so that a parser rebuilding the tree keeps them
// as distinct nodes.
//
// # Static marking
//
// With MarkStatic, the outermost element of every subtree that carries no
// retention pins gets a data-static attribute. A hydrating client can
// skip those subtrees: nothing reactive is attached to them.
//
//	r := render.NewRenderer(render.RendererConfig{MarkStatic: true})
//	html, err := r.RenderToString(root)
package render
