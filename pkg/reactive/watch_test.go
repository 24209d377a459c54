package reactive

import (
	"errors"
	"math"
	"testing"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

type watchCall struct {
	newValue, oldValue any
}

func TestWatchImmediate(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 1})

	var calls []watchCall
	_, err := rt.Watch(func() any { return state.Get("count") }, func(n, o any) {
		calls = append(calls, watchCall{n, o})
	}, Immediate())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected synchronous immediate call, got %d calls", len(calls))
	}
	if calls[0].newValue != 1 || calls[0].oldValue != nil {
		t.Errorf("expected (1, nil), got %+v", calls[0])
	}

	rt.Run(func() { state.Set("count", 2) })
	if len(calls) != 2 || calls[1].newValue != 2 || calls[1].oldValue != 1 {
		t.Errorf("expected (2, 1) after change, got %+v", calls)
	}
}

func TestWatchImmediateNilValue(t *testing.T) {
	rt := New()
	calls := 0
	_, _ = rt.Watch(func() any { return nil }, func(_, _ any) { calls++ }, Immediate())
	if calls != 1 {
		t.Errorf("expected immediate call even for nil value, got %d", calls)
	}
}

func TestWatchDeferred(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 1})

	var calls []watchCall
	_, err := rt.Watch(func() any { return state.Get("count") }, func(n, o any) {
		calls = append(calls, watchCall{n, o})
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("callback ran before any change: %+v", calls)
	}

	state.Set("count", 2)
	state.Set("count", 3)
	if len(calls) != 0 {
		t.Fatal("callback ran synchronously on write")
	}

	rt.Tick()
	if len(calls) != 1 {
		t.Fatalf("expected one batched call, got %d", len(calls))
	}
	if calls[0].newValue != 3 || calls[0].oldValue != 1 {
		t.Errorf("expected (3, 1), got %+v", calls[0])
	}
}

func TestWatchUnchangedValueSkipsCallback(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 1})

	calls := 0
	_, _ = rt.Watch(func() any { return state.Get("count") }, func(_, _ any) { calls++ })

	rt.Run(func() { state.Set("count", 1) })
	if calls != 0 {
		t.Errorf("expected no call for an unchanged value, got %d", calls)
	}
}

func TestWatchObjectIsDeep(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{
		"user": map[string]any{
			"tags": &[]any{"a"},
		},
	})

	calls := 0
	var last any
	_, err := rt.Watch(state, func(n, _ any) {
		calls++
		last = n
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	tags := state.Get("user").(*Object).Get("tags").(*Array)
	rt.Run(func() { tags.Append("b") })

	if calls != 1 {
		t.Fatalf("expected nested change to fire deep watcher once, got %d", calls)
	}
	if last != state {
		t.Errorf("expected the watched object as new value, got %v", last)
	}
}

func TestWatchDeepGetter(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{
		"inner": map[string]any{"x": 1},
	})

	shallow, deep := 0, 0
	getter := func() any { return state.Get("inner") }
	_, _ = rt.Watch(getter, func(_, _ any) { shallow++ })
	_, _ = rt.Watch(getter, func(_, _ any) { deep++ }, Deep())

	rt.Run(func() { state.Get("inner").(*Object).Set("x", 2) })

	if shallow != 0 {
		t.Errorf("shallow watcher fired on nested change: %d", shallow)
	}
	if deep != 1 {
		t.Errorf("deep watcher: expected 1 call, got %d", deep)
	}
}

func TestWatchComputedSource(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 2})
	square := NewComputed(rt, func() int {
		n := state.Get("n").(int)
		return n * n
	})

	var got []int
	w := WatchFunc(rt, square.Get, func(n, o int) { got = append(got, n, o) })
	defer w.Stop()

	rt.Run(func() { state.Set("n", 3) })
	if len(got) != 2 || got[0] != 9 || got[1] != 4 {
		t.Errorf("expected [9 4], got %v", got)
	}

	calls := 0
	_, err := rt.Watch(square, func(_, _ any) { calls++ })
	if err != nil {
		t.Fatalf("watching a Valuer: %v", err)
	}
	rt.Run(func() { state.Set("n", 4) })
	if calls != 1 {
		t.Errorf("expected Valuer watcher to fire once, got %d", calls)
	}
}

func TestWatchInvalidSource(t *testing.T) {
	rt := New()
	tests := []any{42, "count", map[string]any{}, func() int { return 1 }}

	for _, src := range tests {
		w, err := rt.Watch(src, func(_, _ any) {})
		if w != nil {
			t.Errorf("Watch(%T) returned a watcher", src)
		}
		if !errors.Is(err, ErrInvalidWatchSource) || !rfxerrors.HasCode(err, "R003") {
			t.Errorf("Watch(%T): expected R003 invalid source, got %v", src, err)
		}
	}
}

func TestWatchStopCancelsPendingJob(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 0})

	calls := 0
	w, _ := rt.Watch(func() any { return state.Get("n") }, func(_, _ any) { calls++ })

	rt.Run(func() {
		state.Set("n", 1)
		w.Stop()
	})
	rt.Run(func() { state.Set("n", 2) })

	if calls != 0 {
		t.Errorf("stopped watcher fired %d times", calls)
	}
	if w.Active() {
		t.Error("expected watcher to be inactive")
	}
}

func TestWatchStopDuringFlushStillRunsOnce(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 0})

	var second *Watcher
	secondCalls := 0
	_, _ = rt.Watch(func() any { return state.Get("n") }, func(_, _ any) {
		second.Stop()
	})
	second, _ = rt.Watch(func() any { return state.Get("n") }, func(_, _ any) {
		secondCalls++
	})

	rt.Run(func() { state.Set("n", 1) })
	if secondCalls != 1 {
		t.Errorf("job taken by the running flush should run once, got %d", secondCalls)
	}

	rt.Run(func() { state.Set("n", 2) })
	if secondCalls != 1 {
		t.Errorf("stopped watcher fired again: %d", secondCalls)
	}
}

func TestWatchCallbackPanicIsolated(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 0})

	other := 0
	_, _ = rt.Watch(func() any { return state.Get("n") }, func(_, _ any) { panic("watcher failed") })
	_, _ = rt.Watch(func() any { return state.Get("n") }, func(_, _ any) { other++ })

	rt.Run(func() { state.Set("n", 1) })
	if other != 1 {
		t.Errorf("expected second watcher to run despite panic, got %d calls", other)
	}
}

func TestHasChanged(t *testing.T) {
	m := map[string]int{}
	s := []int{1, 2}
	nan := math.NaN()

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, false},
		{"different ints", 1, 2, true},
		{"different types", 1, int64(1), true},
		{"nil and nil", nil, nil, false},
		{"nil and value", nil, 0, true},
		{"NaN", nan, nan, false},
		{"same map", m, m, false},
		{"different maps", m, map[string]int{}, true},
		{"same slice", s, s, false},
		{"resliced", s, s[:1], true},
		{"equal structs", struct{ A int }{1}, struct{ A int }{1}, false},
		{"non-comparable structs", struct{ A []int }{s}, struct{ A []int }{s}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasChanged(tt.a, tt.b); got != tt.want {
				t.Errorf("hasChanged(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

type node struct {
	Value any
	Next  *node
}

func TestTraverseCycles(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"x": 1})

	a := &node{Value: state}
	b := &node{Value: map[string]struct{}{"member": {}}, Next: a}
	a.Next = b

	runs := 0
	rt.Effect(func() {
		runs++
		Traverse(a)
	})

	state.Set("x", 2)
	if runs != 2 {
		t.Errorf("expected wrapper inside plain structs to be tracked, got %d runs", runs)
	}
}
