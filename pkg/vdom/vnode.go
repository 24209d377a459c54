package vdom

import (
	"reflect"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindText      Kind = iota // Text content
	KindComment               // Comment, also the placeholder for an empty render
	KindFragment              // Ordered children without a host element
	KindElement               // <div>, <li>, etc.
	KindComponent             // Component instance
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindFragment:
		return "Fragment"
	case KindElement:
		return "Element"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Node is one node of a rendered tree.
//
// A Node is consumed by the render that patches it: the renderer records
// the host handle on it, so a node must not appear twice in a tree or be
// reused across renders.
type Node struct {
	Kind     Kind
	Tag      string    // Element tag name
	Props    Props     // Element properties, or component props
	Children []*Node   // Element and fragment children
	Key      any       // Reconciliation key; nil means keyless. Must be comparable (R002)
	Text     string    // Text and comment content
	Comp     Component // For KindComponent

	// Set by the renderer.
	el       any       // host handle; a fragment's start anchor
	anchor   any       // a fragment's end anchor
	instance *Instance // for KindComponent
}

// Props holds element properties or component props.
type Props map[string]any

// Attr is a single property. An Attr with Key "key" sets the node key.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// HostNode returns the host handle of the node: the element or text node,
// a fragment's start anchor, or nil for components and unmounted nodes.
func (n *Node) HostNode() any {
	if n == nil {
		return nil
	}
	return n.el
}

// Instance returns the component instance backing a mounted component node.
func (n *Node) Instance() *Instance {
	if n == nil {
		return nil
	}
	return n.instance
}

// WithKey sets the node's key and returns the node.
// It panics with R002 if k is not comparable.
func (n *Node) WithKey(k any) *Node {
	n.Key = checkKey(k)
	return n
}

func checkKey(k any) any {
	if k == nil {
		return nil
	}
	if v := reflect.ValueOf(k); !v.Comparable() {
		panic(rfxerrors.New("R002").WithDetailf("key of type %T", k))
	}
	return k
}

// checkKeys validates keys assigned directly to Node.Key, which bypass Key
// and WithKey.
func checkKeys(children []*Node) {
	for _, c := range children {
		if c.Key != nil {
			checkKey(c.Key)
		}
	}
}

// sameNode reports whether two nodes are the same logical node: same kind,
// same key, and the same tag or component type.
func sameNode(a, b *Node) bool {
	if a.Kind != b.Kind || a.Key != b.Key {
		return false
	}
	switch a.Kind {
	case KindElement:
		return a.Tag == b.Tag
	case KindComponent:
		return sameComponent(a.Comp, b.Comp)
	}
	return true
}

func sameComponent(a, b Component) bool {
	fa, aIsFunc := a.(ComponentFunc)
	fb, bIsFunc := b.(ComponentFunc)
	if aIsFunc || bIsFunc {
		return aIsFunc && bIsFunc && reflect.ValueOf(fa).Pointer() == reflect.ValueOf(fb).Pointer()
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// valueEqual compares prop values: comparable values with ==, everything
// else as always different.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

func propsEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}
