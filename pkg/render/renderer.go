package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/vdom"
)

// SplitTextMarker separates adjacent non-blank text nodes.
const SplitTextMarker = "<!--@@-->"

// StaticAttr marks subtrees without reactive state.
const StaticAttr = "data-static"

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// MarkStatic adds data-static to the outermost element of each
	// subtree that has no pinned nodes.
	MarkStatic bool
}

// Renderer writes live trees as HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	return &Renderer{config: config}
}

// RenderToString renders nodes to an HTML string.
func (r *Renderer) RenderToString(nodes ...*dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, nodes...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams nodes to w.
func (r *Renderer) RenderToWriter(w io.Writer, nodes ...*dom.Node) error {
	bw := bufio.NewWriter(w)
	for _, n := range nodes {
		if err := r.renderNode(bw, n, false); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String renders nodes with the default configuration.
func String(nodes ...*dom.Node) string {
	var sb strings.Builder
	// strings.Builder never fails.
	_ = NewRenderer(RendererConfig{}).RenderToWriter(&sb, nodes...)
	return sb.String()
}

func (r *Renderer) renderNode(w *bufio.Writer, n *dom.Node, inStatic bool) error {
	if n == nil {
		return nil
	}
	switch n.Type {
	case dom.ElementNode:
		return r.renderElement(w, n, inStatic)
	case dom.TextNode:
		_, err := w.WriteString(escapeHTML(n.Data))
		return err
	case dom.CommentNode:
		_, err := fmt.Fprintf(w, "<!--%s-->", escapeComment(n.Data))
		return err
	case dom.FragmentNode:
		return r.renderChildren(w, n, inStatic)
	default:
		return fmt.Errorf("render: unknown node type %v", n.Type)
	}
}

func (r *Renderer) renderElement(w *bufio.Writer, n *dom.Node, inStatic bool) error {
	w.WriteByte('<')
	w.WriteString(n.Tag)

	hasStaticAttr := false
	for _, a := range n.Attrs() {
		if a.Name == StaticAttr {
			hasStaticAttr = true
		}
		w.WriteByte(' ')
		w.WriteString(a.Name)
		if a.Value != "" {
			w.WriteString(`="`)
			w.WriteString(escapeAttr(a.Value))
			w.WriteByte('"')
		}
	}

	static := inStatic
	if r.config.MarkStatic && !inStatic && isStatic(n) {
		static = true
		if !hasStaticAttr {
			w.WriteString(" " + StaticAttr)
		}
	}

	if vdom.IsVoidElement(n.Tag) && !n.HasChildren() {
		_, err := w.WriteString("/>")
		return err
	}

	w.WriteByte('>')
	if err := r.renderChildren(w, n, static); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "</%s>", n.Tag)
	return err
}

func (r *Renderer) renderChildren(w *bufio.Writer, n *dom.Node, inStatic bool) error {
	precededByText := false
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		text := isNonBlankText(c)
		if precededByText && text {
			if _, err := w.WriteString(SplitTextMarker); err != nil {
				return err
			}
		}
		if err := r.renderNode(w, c, inStatic); err != nil {
			return err
		}
		precededByText = text
	}
	return nil
}

func isNonBlankText(n *dom.Node) bool {
	return n.Type == dom.TextNode && strings.TrimSpace(n.Data) != ""
}

// isStatic reports whether no node in n's subtree is pinned.
func isStatic(n *dom.Node) bool {
	if n.HasPins() {
		return false
	}
	if n.Type == dom.ElementNode {
		if _, ok := n.Attr(StaticAttr); ok {
			return true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if !isStatic(c) {
			return false
		}
	}
	return true
}
