// Package vdom provides the node model and the tree reconciler.
//
// A Node describes one piece of a rendered tree: text, a comment, a
// fragment, an element or a component. Trees are built with variadic
// constructors:
//
//	Ul(Class("todos"),
//	    Li(Key("a"), Text("first")),
//	    Li(Key("b"), Text("second")),
//	)
//
// # Reconciliation
//
// A Renderer patches an old tree into a new one against a Host, the table of
// primitive operations (create, insert, remove, set text, set prop) supplied
// by whatever environment displays the tree. Host nodes of matching old and
// new nodes are reused. Child lists are reconciled by trimming a common
// prefix and suffix, then matching the middle by key and moving only the
// nodes that are not on the longest increasing subsequence of old
// positions.
//
// Keys must be comparable. Without keys, middle-range matching falls back to
// the first unmatched node of the same type, which may reuse the wrong node
// when lists change shape.
//
// # Components
//
// A component's render runs inside a reactive effect. Reactive writes made
// during one task enqueue a single update job, which re-renders the
// component and patches its previous subtree in the next scheduler flush.
package vdom
