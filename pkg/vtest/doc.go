// Package vtest provides testing helpers for reflux renderers.
//
// Host is an in-memory vdom.SiblingHost that records every primitive
// operation, so tests can assert on exactly what the reconciler did:
//
//	h := vtest.New()
//	root := h.Container("root")
//	r := vdom.NewRenderer(reactive.New(), h)
//	r.Render(list, root)
//	fmt.Println(h.Moves())
//
// # Harness
//
// Harness bundles a runtime, a Host and a renderer around one root:
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.NewHarness(t)
//	    state := h.Runtime.Reactive(map[string]any{"n": 0})
//	    h.Mount(Counter(state), nil)
//
//	    h.Act(func() { state.Set("n", 1) })
//	    h.ExpectMarkup("<p>1</p>")
//	    h.ExpectOps(vdom.OpSetText, 1)
//	}
//
// Serialize turns a host subtree back into markup. Empty text nodes, which
// the renderer uses as fragment anchors, are omitted.
package vtest
