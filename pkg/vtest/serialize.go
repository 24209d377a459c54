package vtest

import (
	"fmt"
	"slices"
	"strings"
)

// Serialize renders the children of n as markup. Empty text nodes, such as
// fragment anchors, produce no output. Props are written in sorted order.
func Serialize(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		write(&b, c)
	}
	return b.String()
}

func write(b *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		b.WriteString(n.Text)
	case CommentNode:
		fmt.Fprintf(b, "<!--%s-->", n.Text)
	default:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		keys := make([]string, 0, len(n.Props))
		for k := range n.Props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%q", k, fmt.Sprint(n.Props[k]))
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			write(b, c)
		}
		fmt.Fprintf(b, "</%s>", n.Tag)
	}
}
