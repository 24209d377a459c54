// Package reactive implements a dependency-tracking runtime over plain Go data.
//
// A Runtime owns everything: the dependency graph, the currently active
// effect, the batched job Scheduler and a microtask queue. There is no
// package-level state; every primitive is created from a Runtime.
//
// # Observed data
//
// Structured values are map[string]any (objects) and *[]any (arrays). They are
// wrapped without copying:
//
//	rt := reactive.New()
//	state := rt.Reactive(map[string]any{"count": 0})
//
// Reads through the wrapper register the active effect as a dependent of the
// (object, key) pair; writes notify every dependent. Nested structured values
// are wrapped lazily when read, and wrapping the same raw value twice returns
// the same wrapper.
//
// # Effects, computed values and watchers
//
//	rt.Effect(func() {
//	    fmt.Println("count is", state.Get("count"))
//	})
//
//	double := reactive.NewComputed(rt, func() int {
//	    return state.Get("count").(int) * 2
//	})
//
//	rt.Watch(double, func(newValue, oldValue any) {
//	    fmt.Println(oldValue, "->", newValue)
//	})
//
// Effects without a scheduler re-run synchronously on every write. Computed
// values are lazy: a write only marks them dirty. Watchers and component
// render effects push jobs into the Scheduler, which flushes once per tick with
// derived jobs first.
//
// # Ticks and goroutines
//
// The runtime is single-threaded. Runtime.Run executes one task and then
// drains the microtask queue, which is where scheduled flushes happen. Use a
// Loop to host a runtime on its own goroutine and Post work to it from others.
// WithGoroutineCheck makes any cross-goroutine use panic.
package reactive
