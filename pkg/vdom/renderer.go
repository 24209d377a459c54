package vdom

import (
	"log/slog"
	"slices"

	"github.com/vango-dev/reflux/pkg/reactive"
)

// Tracer wraps patch work in spans. StartPatch returns the function that
// ends the span.
type Tracer interface {
	StartPatch(name string) (end func())
}

// Renderer reconciles node trees against a Host.
// Like the Runtime it belongs to, a Renderer is confined to one goroutine.
type Renderer struct {
	rt       *reactive.Runtime
	host     Host
	siblings SiblingHost
	logger   *slog.Logger
	tracer   Tracer

	// roots remembers the tree rendered into each container.
	roots map[any]*Node

	instances uint64
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the renderer's logger.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOpObserver calls fn for every primitive host operation.
func WithOpObserver(fn func(OpKind)) RendererOption {
	return func(r *Renderer) {
		if fn != nil {
			r.host = &observedHost{Host: r.host, observe: fn}
		}
	}
}

// WithTracer wraps root renders and component updates in spans.
func WithTracer(t Tracer) RendererOption {
	return func(r *Renderer) {
		r.tracer = t
	}
}

// NewRenderer creates a renderer driving host.
func NewRenderer(rt *reactive.Runtime, host Host, opts ...RendererOption) *Renderer {
	r := &Renderer{
		rt:     rt,
		host:   host,
		logger: rt.Logger(),
		roots:  make(map[any]*Node),
	}
	if sh, ok := host.(SiblingHost); ok {
		r.siblings = sh
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Runtime returns the renderer's runtime.
func (r *Renderer) Runtime() *reactive.Runtime {
	return r.rt
}

// Render patches node into container against the tree previously rendered
// there. A nil node unmounts the previous tree.
func (r *Renderer) Render(node *Node, container any) {
	defer r.span("render")()

	prev := r.roots[container]
	if node == nil {
		if prev != nil {
			r.unmount(prev, true)
			delete(r.roots, container)
		}
		return
	}
	r.patch(prev, node, container, nil, nil)
	r.roots[container] = node
}

// Root returns the tree last rendered into container.
func (r *Renderer) Root(container any) *Node {
	return r.roots[container]
}

// Mount renders component c with props as the root of container.
func (r *Renderer) Mount(c Component, props Props, container any) *Instance {
	node := Comp(c, props)
	r.Render(node, container)
	return node.instance
}

// Patch reconciles prev into next inside container. A nil prev mounts next
// before anchor (or last when anchor is nil).
func (r *Renderer) Patch(prev, next *Node, container, anchor any) {
	r.patch(prev, next, container, anchor, nil)
}

// Unmount tears down node and removes its host nodes.
func (r *Renderer) Unmount(node *Node) {
	r.unmount(node, true)
}

func (r *Renderer) span(name string) func() {
	if r.tracer == nil {
		return func() {}
	}
	return r.tracer.StartPatch(name)
}

func (r *Renderer) patch(n1, n2 *Node, container, anchor any, parent *Instance) {
	if n1 == n2 {
		return
	}

	if n1 != nil && !sameNode(n1, n2) {
		old := n1
		n1 = nil
		if r.siblings != nil {
			anchor = r.siblings.NextSibling(hostLast(old))
			r.unmount(old, true)
		} else {
			anchor = hostFirst(old)
			defer r.unmount(old, true)
		}
	}

	switch n2.Kind {
	case KindText:
		r.processText(n1, n2, container, anchor)
	case KindComment:
		r.processComment(n1, n2, container, anchor)
	case KindFragment:
		r.processFragment(n1, n2, container, anchor, parent)
	case KindElement:
		r.processElement(n1, n2, container, anchor, parent)
	case KindComponent:
		r.processComponent(n1, n2, container, anchor, parent)
	}
}

func (r *Renderer) processText(n1, n2 *Node, container, anchor any) {
	if n1 == nil {
		n2.el = r.host.CreateText(n2.Text)
		r.host.Insert(n2.el, container, anchor)
		return
	}
	n2.el = n1.el
	if n2.Text != n1.Text {
		r.host.SetText(n2.el, n2.Text)
	}
}

// Comments are static: a patched comment keeps its original content.
func (r *Renderer) processComment(n1, n2 *Node, container, anchor any) {
	if n1 == nil {
		n2.el = r.host.CreateComment(n2.Text)
		r.host.Insert(n2.el, container, anchor)
		return
	}
	n2.el = n1.el
}

// Fragments are delimited by two empty text nodes so they can be moved as a
// unit and so children appended at their tail land before the end anchor.
func (r *Renderer) processFragment(n1, n2 *Node, container, anchor any, parent *Instance) {
	if n1 == nil {
		n2.el = r.host.CreateText("")
		n2.anchor = r.host.CreateText("")
		r.host.Insert(n2.el, container, anchor)
		r.host.Insert(n2.anchor, container, anchor)
		r.mountChildren(n2.Children, container, n2.anchor, parent)
		return
	}
	n2.el, n2.anchor = n1.el, n1.anchor
	r.patchChildren(n1, n2, container, n2.anchor, parent)
}

func (r *Renderer) processElement(n1, n2 *Node, container, anchor any, parent *Instance) {
	if n1 == nil {
		r.mountElement(n2, container, anchor, parent)
		return
	}
	r.patchElement(n1, n2, parent)
}

func (r *Renderer) mountElement(n *Node, container, anchor any, parent *Instance) {
	el := r.host.CreateElement(n.Tag)
	n.el = el
	r.mountChildren(n.Children, el, nil, parent)
	for _, k := range sortedKeys(n.Props) {
		r.host.SetProp(el, k, nil, n.Props[k])
	}
	r.host.Insert(el, container, anchor)
}

func (r *Renderer) patchElement(n1, n2 *Node, parent *Instance) {
	el := n1.el
	n2.el = el
	r.patchChildren(n1, n2, el, nil, parent)
	r.patchProps(el, n1.Props, n2.Props)
}

func (r *Renderer) patchProps(el any, oldProps, newProps Props) {
	for _, k := range sortedKeys(newProps) {
		prev, next := oldProps[k], newProps[k]
		if _, had := oldProps[k]; !had || !valueEqual(prev, next) {
			r.host.SetProp(el, k, prev, next)
		}
	}
	for _, k := range sortedKeys(oldProps) {
		if _, ok := newProps[k]; !ok {
			r.host.SetProp(el, k, oldProps[k], nil)
		}
	}
}

func (r *Renderer) mountChildren(children []*Node, container, anchor any, parent *Instance) {
	for _, c := range children {
		r.patch(nil, c, container, anchor, parent)
	}
}

func (r *Renderer) unmountChildren(children []*Node) {
	for _, c := range children {
		r.unmount(c, true)
	}
}

// unmount tears down n. Only the topmost host node needs removing from its
// parent, so descendants of an element are torn down with remove false.
func (r *Renderer) unmount(n *Node, remove bool) {
	switch n.Kind {
	case KindComponent:
		r.unmountComponent(n.instance, remove)
	case KindFragment:
		if remove {
			r.host.Remove(n.el)
		}
		for _, c := range n.Children {
			r.unmount(c, remove)
		}
		if remove {
			r.host.Remove(n.anchor)
		}
	case KindElement:
		for _, c := range n.Children {
			r.unmount(c, false)
		}
		if remove {
			r.host.Remove(n.el)
		}
	default:
		if remove {
			r.host.Remove(n.el)
		}
	}
}

// move re-inserts every host node of n before anchor.
func (r *Renderer) move(n *Node, container, anchor any) {
	switch n.Kind {
	case KindComponent:
		r.move(n.instance.subTree, container, anchor)
	case KindFragment:
		r.host.Insert(n.el, container, anchor)
		for _, c := range n.Children {
			r.move(c, container, anchor)
		}
		r.host.Insert(n.anchor, container, anchor)
	default:
		r.host.Insert(n.el, container, anchor)
	}
}

// hostFirst returns the first host node of a mounted node.
func hostFirst(n *Node) any {
	if n.Kind == KindComponent {
		return hostFirst(n.instance.subTree)
	}
	return n.el
}

// hostLast returns the last host node of a mounted node.
func hostLast(n *Node) any {
	switch n.Kind {
	case KindComponent:
		return hostLast(n.instance.subTree)
	case KindFragment:
		return n.anchor
	}
	return n.el
}

func sortedKeys(p Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
