package remote

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/vango-dev/reflux/pkg/vdom"
)

// RootID is the handle of the root container.
const RootID uint64 = 1

// Node is a host node handle. The Host mirrors the tree so it can answer
// NextSibling and produce snapshots for joining clients.
type Node struct {
	id       uint64
	kind     vdom.OpKind
	tag      string
	text     string
	props    map[string]any
	parent   *Node
	children []*Node
}

// ID returns the node's wire handle.
func (n *Node) ID() uint64 {
	return n.id
}

// Host is a vdom.SiblingHost that records operations for remote clients.
// It is confined to the goroutine driving the renderer.
type Host struct {
	nextID  uint64
	root    *Node
	pending []Op
}

var _ vdom.SiblingHost = (*Host)(nil)

// NewHost creates a host with an empty root container.
func NewHost() *Host {
	return &Host{
		nextID: RootID,
		root:   &Node{id: RootID, kind: vdom.OpCreateElement, tag: "root"},
	}
}

// Root returns the root container to render into.
func (h *Host) Root() *Node {
	return h.root
}

func (h *Host) newNode(kind vdom.OpKind, tag, text string) *Node {
	h.nextID++
	return &Node{id: h.nextID, kind: kind, tag: tag, text: text}
}

func (h *Host) record(op Op) {
	h.pending = append(h.pending, op)
}

// CreateElement implements vdom.Host.
func (h *Host) CreateElement(tag string) any {
	n := h.newNode(vdom.OpCreateElement, tag, "")
	n.props = make(map[string]any)
	h.record(Op{Op: OpCreateElement, ID: n.id, Tag: tag})
	return n
}

// CreateText implements vdom.Host.
func (h *Host) CreateText(text string) any {
	n := h.newNode(vdom.OpCreateText, "", text)
	h.record(Op{Op: OpCreateText, ID: n.id, Text: text})
	return n
}

// CreateComment implements vdom.Host.
func (h *Host) CreateComment(text string) any {
	n := h.newNode(vdom.OpCreateComment, "", text)
	h.record(Op{Op: OpCreateComment, ID: n.id, Text: text})
	return n
}

// SetText implements vdom.Host.
func (h *Host) SetText(node any, text string) {
	n := node.(*Node)
	n.text = text
	h.record(Op{Op: OpSetText, ID: n.id, Text: text})
}

// SetProp implements vdom.Host. Function values, such as event handlers,
// stay on the server and are not sent.
func (h *Host) SetProp(el any, key string, _, next any) {
	n := el.(*Node)
	if next != nil && reflect.TypeOf(next).Kind() == reflect.Func {
		return
	}
	next = wireValue(next)
	if next == nil {
		delete(n.props, key)
	} else {
		n.props[key] = next
	}
	h.record(Op{Op: OpSetProp, ID: n.id, Key: key, Value: next})
}

// wireValue keeps JSON scalars and formats everything else.
func wireValue(v any) any {
	switch v := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Insert implements vdom.Host.
func (h *Host) Insert(child, parent, anchor any) {
	c, p := child.(*Node), parent.(*Node)
	a, _ := anchor.(*Node)

	detach(c)
	idx := len(p.children)
	if a != nil {
		if i := slices.Index(p.children, a); i >= 0 {
			idx = i
		}
	}
	p.children = slices.Insert(p.children, idx, c)
	c.parent = p

	op := Op{Op: OpInsert, ID: c.id, Parent: p.id}
	if a != nil {
		op.Anchor = a.id
	}
	h.record(op)
}

// Remove implements vdom.Host.
func (h *Host) Remove(child any) {
	c := child.(*Node)
	detach(c)
	h.record(Op{Op: OpRemove, ID: c.id})
}

// NextSibling implements vdom.SiblingHost.
func (h *Host) NextSibling(node any) any {
	n := node.(*Node)
	if n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	if i := slices.Index(siblings, n); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return nil
}

func detach(n *Node) {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// Pending returns the number of recorded, uncommitted ops.
func (h *Host) Pending() int {
	return len(h.pending)
}

// Take returns the recorded ops and clears them.
func (h *Host) Take() []Op {
	ops := h.pending
	h.pending = nil
	return ops
}

// Snapshot returns ops that rebuild the current tree under the root,
// reusing existing handles so later ops apply unchanged.
func (h *Host) Snapshot() []Op {
	var ops []Op
	for _, c := range h.root.children {
		ops = appendSnapshot(ops, c)
	}
	return ops
}

func appendSnapshot(ops []Op, n *Node) []Op {
	switch n.kind {
	case vdom.OpCreateText:
		ops = append(ops, Op{Op: OpCreateText, ID: n.id, Text: n.text})
	case vdom.OpCreateComment:
		ops = append(ops, Op{Op: OpCreateComment, ID: n.id, Text: n.text})
	default:
		ops = append(ops, Op{Op: OpCreateElement, ID: n.id, Tag: n.tag})
		keys := make([]string, 0, len(n.props))
		for k := range n.props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			ops = append(ops, Op{Op: OpSetProp, ID: n.id, Key: k, Value: n.props[k]})
		}
		for _, c := range n.children {
			ops = appendSnapshot(ops, c)
		}
	}
	return append(ops, Op{Op: OpInsert, ID: n.id, Parent: n.parent.id})
}
