package vdom

import "fmt"

// Text creates a text node.
func Text(content string) *Node {
	return &Node{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Comment creates a comment node.
func Comment(content string) *Node {
	return &Node{
		Kind: KindComment,
		Text: content,
	}
}

// Fragment groups children without a wrapper element.
// Arguments are handled like element children; an Attr "key" keys the fragment.
func Fragment(children ...any) *Node {
	node := &Node{Kind: KindFragment}
	applyArgs(node, children)
	return node
}

// Comp creates a component node.
func Comp(c Component, props Props) *Node {
	return &Node{
		Kind:  KindComponent,
		Comp:  c,
		Props: props,
	}
}

// Key sets the node key. It panics with R002 if k is not comparable.
func Key(k any) Attr {
	return Attr{Key: "key", Value: checkKey(k)}
}

// Prop sets a single property.
func Prop(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *Node) *Node {
	if condition {
		return node
	}
	return nil
}

// Range maps items to nodes.
func Range[T any](items []T, fn func(int, T) *Node) []*Node {
	out := make([]*Node, 0, len(items))
	for i, item := range items {
		if n := fn(i, item); n != nil {
			out = append(out, n)
		}
	}
	return out
}
