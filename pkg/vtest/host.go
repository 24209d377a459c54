package vtest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vango-dev/reflux/pkg/vdom"
)

// NodeType distinguishes host nodes.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

// Node is a host node.
type Node struct {
	ID       int
	Type     NodeType
	Tag      string
	Text     string
	Props    map[string]any
	Parent   *Node
	Children []*Node
}

// Label names the node in op logs: tag#id, "text"#id or <!--text-->#id.
func (n *Node) Label() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case TextNode:
		return fmt.Sprintf("%q#%d", n.Text, n.ID)
	case CommentNode:
		return fmt.Sprintf("<!--%s-->#%d", n.Text, n.ID)
	}
	return fmt.Sprintf("%s#%d", n.Tag, n.ID)
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Type == TextNode {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Op is one recorded host operation.
type Op struct {
	Kind   vdom.OpKind
	Node   *Node
	Parent *Node
	Anchor *Node
	Key    string
	Value  any
	Text   string

	// Move is set for inserts of nodes that were already attached.
	Move bool
}

// String formats the op for logs and test failures.
func (op Op) String() string {
	switch op.Kind {
	case vdom.OpInsert:
		verb := "insert"
		if op.Move {
			verb = "move"
		}
		if op.Anchor == nil {
			return fmt.Sprintf("%s %s into %s", verb, op.Node.Label(), op.Parent.Label())
		}
		return fmt.Sprintf("%s %s into %s before %s", verb, op.Node.Label(), op.Parent.Label(), op.Anchor.Label())
	case vdom.OpRemove:
		return "remove " + op.Node.Label()
	case vdom.OpSetText:
		return fmt.Sprintf("text %s = %q", op.Node.Label(), op.Text)
	case vdom.OpSetProp:
		return fmt.Sprintf("prop %s.%s = %v", op.Node.Label(), op.Key, op.Value)
	default:
		return fmt.Sprintf("%s %s", strings.ToLower(op.Kind.String()), op.Node.Label())
	}
}

// Host is an in-memory vdom.SiblingHost.
type Host struct {
	nextID int
	ops    []Op
}

var _ vdom.SiblingHost = (*Host)(nil)

// New creates an empty host.
func New() *Host {
	return &Host{}
}

// Container creates a detached element to render into. Creating it is not
// recorded.
func (h *Host) Container(tag string) *Node {
	return h.newNode(ElementNode, tag, "")
}

func (h *Host) newNode(t NodeType, tag, text string) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Type: t, Tag: tag, Text: text}
}

func (h *Host) record(op Op) {
	h.ops = append(h.ops, op)
}

// CreateElement implements vdom.Host.
func (h *Host) CreateElement(tag string) any {
	n := h.newNode(ElementNode, tag, "")
	n.Props = make(map[string]any)
	h.record(Op{Kind: vdom.OpCreateElement, Node: n})
	return n
}

// CreateText implements vdom.Host.
func (h *Host) CreateText(text string) any {
	n := h.newNode(TextNode, "", text)
	h.record(Op{Kind: vdom.OpCreateText, Node: n, Text: text})
	return n
}

// CreateComment implements vdom.Host.
func (h *Host) CreateComment(text string) any {
	n := h.newNode(CommentNode, "", text)
	h.record(Op{Kind: vdom.OpCreateComment, Node: n, Text: text})
	return n
}

// SetText implements vdom.Host.
func (h *Host) SetText(node any, text string) {
	n := node.(*Node)
	n.Text = text
	h.record(Op{Kind: vdom.OpSetText, Node: n, Text: text})
}

// SetProp implements vdom.Host.
func (h *Host) SetProp(el any, key string, prev, next any) {
	n := el.(*Node)
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	if next == nil {
		delete(n.Props, key)
	} else {
		n.Props[key] = next
	}
	h.record(Op{Kind: vdom.OpSetProp, Node: n, Key: key, Value: next})
}

// Insert implements vdom.Host.
func (h *Host) Insert(child, parent, anchor any) {
	c, p := child.(*Node), parent.(*Node)
	a, _ := anchor.(*Node)

	moved := c.Parent != nil
	if moved {
		detach(c)
	}

	idx := len(p.Children)
	if a != nil {
		if i := slices.Index(p.Children, a); i >= 0 {
			idx = i
		} else {
			panic(fmt.Sprintf("vtest: anchor %s is not a child of %s", a.Label(), p.Label()))
		}
	}
	p.Children = slices.Insert(p.Children, idx, c)
	c.Parent = p

	h.record(Op{Kind: vdom.OpInsert, Node: c, Parent: p, Anchor: a, Move: moved})
}

// Remove implements vdom.Host.
func (h *Host) Remove(child any) {
	c := child.(*Node)
	h.record(Op{Kind: vdom.OpRemove, Node: c, Parent: c.Parent})
	detach(c)
}

// NextSibling implements vdom.SiblingHost.
func (h *Host) NextSibling(node any) any {
	n := node.(*Node)
	if n.Parent == nil {
		return nil
	}
	siblings := n.Parent.Children
	if i := slices.Index(siblings, n); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return nil
}

func detach(n *Node) {
	if n.Parent == nil {
		return
	}
	p := n.Parent
	if i := slices.Index(p.Children, n); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = nil
}

// Ops returns the recorded operations.
func (h *Host) Ops() []Op {
	return h.ops
}

// Reset clears the operation log.
func (h *Host) Reset() {
	h.ops = nil
}

// Count returns how many recorded operations are of kind k.
func (h *Host) Count(k vdom.OpKind) int {
	n := 0
	for _, op := range h.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Moves returns the text content of every node moved, in order.
func (h *Host) Moves() []string {
	var out []string
	for _, op := range h.ops {
		if op.Kind == vdom.OpInsert && op.Move {
			out = append(out, op.Node.TextContent())
		}
	}
	return out
}

// Log returns the recorded operations, one per line.
func (h *Host) Log() string {
	var b strings.Builder
	for _, op := range h.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
