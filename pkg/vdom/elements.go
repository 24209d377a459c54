package vdom

// El creates an element node.
// Arguments can be: nil, Attr, []Attr, Props, *Node, []*Node, Component, string.
func El(tag string, args ...any) *Node {
	node := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}
	applyArgs(node, args)
	return node
}

func applyArgs(node *Node, args []any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional children)
			continue

		case Attr:
			applyAttr(node, v)

		case []Attr:
			for _, a := range v {
				applyAttr(node, a)
			}

		case Props:
			for k, val := range v {
				applyAttr(node, Attr{Key: k, Value: val})
			}

		case *Node:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*Node:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case Component:
			node.Children = append(node.Children, Comp(v, nil))

		case string:
			// Shorthand for text node
			node.Children = append(node.Children, Text(v))
		}
	}
}

func applyAttr(node *Node, a Attr) {
	switch {
	case a.IsEmpty():
	case a.Key == "key":
		node.Key = checkKey(a.Value)
	case node.Kind == KindElement:
		node.Props[a.Key] = a.Value
	}
}

// Document structure
func Div(args ...any) *Node     { return El("div", args...) }
func Span(args ...any) *Node    { return El("span", args...) }
func P(args ...any) *Node       { return El("p", args...) }
func H1(args ...any) *Node      { return El("h1", args...) }
func H2(args ...any) *Node      { return El("h2", args...) }
func Section(args ...any) *Node { return El("section", args...) }

// Lists
func Ul(args ...any) *Node { return El("ul", args...) }
func Ol(args ...any) *Node { return El("ol", args...) }
func Li(args ...any) *Node { return El("li", args...) }

// Forms
func Button(args ...any) *Node { return El("button", args...) }
func Input(args ...any) *Node  { return El("input", args...) }
func Label(args ...any) *Node  { return El("label", args...) }
