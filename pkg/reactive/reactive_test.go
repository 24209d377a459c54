package reactive

import (
	"errors"
	"runtime"
	"testing"
	"time"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

func TestEffectTracksReads(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 1})

	var seen []any
	rt.Effect(func() {
		seen = append(seen, state.Get("count"))
	})

	state.Set("count", 2)
	state.Set("count", 3)

	want := []any{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("expected %d runs, got %d (%v)", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %v, got %v", i, want[i], seen[i])
		}
	}
}

func TestEffectIgnoresUnreadKeys(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"a": 1, "b": 1})

	runs := 0
	rt.Effect(func() {
		runs++
		_ = state.Get("a")
	})

	state.Set("b", 2)
	if runs != 1 {
		t.Errorf("expected 1 run after unrelated write, got %d", runs)
	}
}

func TestEffectNotifiedOncePerFlush(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 0})

	runs := 0
	var e *Effect
	job := NewJob("count", func() { e.Run() })
	e = rt.Effect(func() {
		runs++
		_ = state.Get("count")
	}, WithScheduler(func() { rt.Scheduler().Enqueue(job) }))

	rt.Run(func() {
		for i := 1; i <= 10; i++ {
			state.Set("count", i)
		}
	})

	if runs != 2 {
		t.Errorf("expected initial run plus one flushed run, got %d", runs)
	}
}

func TestEffectReadSetPruned(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"useA": true, "a": 1, "b": 1})

	runs := 0
	e := rt.Effect(func() {
		runs++
		if state.Get("useA").(bool) {
			_ = state.Get("a")
		} else {
			_ = state.Get("b")
		}
	})
	if e.DepCount() != 2 {
		t.Fatalf("expected 2 deps, got %d", e.DepCount())
	}

	state.Set("useA", false)
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}

	// a is no longer read, so writing it must not re-run the effect.
	state.Set("a", 99)
	if runs != 2 {
		t.Errorf("stale dependency re-ran effect: %d runs", runs)
	}
	state.Set("b", 5)
	if runs != 3 {
		t.Errorf("expected write to b to re-run effect, got %d runs", runs)
	}

	if got := rt.Stats().Deps; got != 2 {
		t.Errorf("expected 2 live deps after pruning, got %d", got)
	}
}

func TestNestedEffectRestoresActive(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"outer": 0, "inner": 0})

	outerRuns, innerRuns := 0, 0
	rt.Effect(func() {
		outerRuns++
		rt.Effect(func() {
			innerRuns++
			_ = state.Get("inner")
		})
		// Read after the inner effect returned: attributed to the outer one.
		_ = state.Get("outer")
	})

	if rt.ActiveEffect() != nil {
		t.Fatal("active effect should be cleared after top-level run")
	}

	state.Set("outer", 1)
	if outerRuns != 2 {
		t.Errorf("expected outer to re-run, got %d runs", outerRuns)
	}
}

func TestEffectPanicRestoresActive(t *testing.T) {
	rt := New()
	outer := rt.NewEffect(func() any {
		inner := rt.NewEffect(func() any { panic("boom") })
		func() {
			defer func() { _ = recover() }()
			inner.Run()
		}()
		return rt.ActiveEffect()
	})

	if got := outer.Run(); got != outer {
		t.Errorf("expected outer effect to be active after inner panic, got %v", got)
	}
	if rt.ActiveEffect() != nil {
		t.Error("active effect leaked")
	}
}

func TestEffectPanicPropagates(t *testing.T) {
	rt := New()
	e := rt.NewEffect(func() any { panic("boom") })

	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("expected panic to propagate, got %v", r)
		}
	}()
	e.Run()
}

func TestEffectLazy(t *testing.T) {
	rt := New()
	runs := 0
	e := rt.Effect(func() { runs++ }, Lazy())
	if runs != 0 {
		t.Fatalf("lazy effect ran on creation")
	}
	e.Run()
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
}

func TestEffectStop(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 0})

	runs, stops := 0, 0
	e := rt.Effect(func() {
		runs++
		_ = state.Get("count")
	}, OnStop(func() { stops++ }))

	e.Stop()
	e.Stop()
	state.Set("count", 1)

	if runs != 1 {
		t.Errorf("stopped effect re-ran: %d runs", runs)
	}
	if stops != 1 {
		t.Errorf("expected OnStop once, got %d", stops)
	}
	if e.Active() {
		t.Error("expected Active() false after Stop")
	}
	if got := rt.Stats().Deps; got != 0 {
		t.Errorf("expected no deps after stop, got %d", got)
	}
}

func TestSelfTriggerNotReentered(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 0})

	runs := 0
	rt.Effect(func() {
		runs++
		state.Set("count", state.Get("count").(int)+1)
	})

	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
	if got := state.Get("count"); got != 1 {
		t.Errorf("expected count 1, got %v", got)
	}
}

func TestNestedWriterDoesNotReenterOuter(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 0})

	runs, depth, maxDepth := 0, 0, 0
	rt.Effect(func() {
		runs++
		depth++
		defer func() { depth-- }()
		maxDepth = max(maxDepth, depth)

		_ = state.Get("n")
		rt.Effect(func() {
			state.Set("n", state.Get("n").(int)+1)
		})
	})

	if maxDepth != 1 {
		t.Errorf("outer effect re-entered while running: depth %d", maxDepth)
	}
	if runs != 1 {
		t.Errorf("expected 1 outer run, got %d", runs)
	}
	if got := state.Get("n"); got != 1 {
		t.Errorf("expected the nested write to land once, got n=%v", got)
	}
}

func TestUntracked(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"a": 0})

	runs := 0
	rt.Effect(func() {
		runs++
		rt.Untracked(func() { _ = state.Get("a") })
	})
	state.Set("a", 1)

	if runs != 1 {
		t.Errorf("untracked read created a dependency: %d runs", runs)
	}
}

func TestReactiveIdentity(t *testing.T) {
	rt := New()
	raw := map[string]any{
		"nested": map[string]any{"x": 1},
		"list":   &[]any{1, 2},
	}

	a := rt.Reactive(raw)
	b := rt.Reactive(raw)
	if a != b {
		t.Fatal("wrapping the same map twice returned different wrappers")
	}

	w, err := rt.Wrap(a)
	if err != nil || w != a {
		t.Errorf("wrapping a wrapper should return it unchanged, got %v, %v", w, err)
	}

	n1, ok := a.Get("nested").(*Object)
	if !ok {
		t.Fatalf("expected nested map to be wrapped, got %T", a.Get("nested"))
	}
	if n2 := a.Get("nested").(*Object); n1 != n2 {
		t.Error("nested wrapper not cached")
	}
	if _, ok := a.Get("list").(*Array); !ok {
		t.Errorf("expected *[]any to be wrapped, got %T", a.Get("list"))
	}

	// Writing a wrapper stores the raw value.
	a.Set("copy", n1)
	if _, ok := raw["copy"].(map[string]any); !ok {
		t.Errorf("expected raw map in underlying data, got %T", raw["copy"])
	}
}

func TestWrapNotStructured(t *testing.T) {
	rt := New()
	tests := []any{42, "text", []int{1}, struct{}{}, nil, (*[]any)(nil)}

	for _, v := range tests {
		_, err := rt.Wrap(v)
		if !errors.Is(err, ErrNotStructured) {
			t.Errorf("Wrap(%T): expected ErrNotStructured, got %v", v, err)
		}
		if !rfxerrors.HasCode(err, "R001") {
			t.Errorf("Wrap(%T): expected code R001, got %v", v, err)
		}
		if got := rt.ToReactive(v); got != nil && v != nil {
			if _, isWrapper := got.(*Object); isWrapper {
				t.Errorf("ToReactive(%T) wrapped a non-structured value", v)
			}
		}
	}
}

func TestObjectIteration(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"b": 2, "a": 1})

	var keys []string
	runs := 0
	rt.Effect(func() {
		runs++
		keys = state.Keys()
	})
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys [a b], got %v", keys)
	}

	// Updating an existing key does not change the key set.
	state.Set("a", 10)
	if runs != 1 {
		t.Errorf("expected no re-run on existing key update, got %d runs", runs)
	}

	state.Set("c", 3)
	if runs != 2 || len(keys) != 3 {
		t.Errorf("expected re-run on add, got %d runs, keys %v", runs, keys)
	}

	state.Delete("missing")
	if runs != 2 {
		t.Errorf("deleting a missing key notified: %d runs", runs)
	}

	state.Delete("b")
	if runs != 3 || len(keys) != 2 {
		t.Errorf("expected re-run on delete, got %d runs, keys %v", runs, keys)
	}
}

func TestObjectHas(t *testing.T) {
	rt := New()
	state := rt.Reactive(nil)

	var has bool
	rt.Effect(func() { has = state.Has("x") })
	if has {
		t.Fatal("expected Has false")
	}
	state.Set("x", nil)
	if !has {
		t.Error("expected Has true after Set")
	}
}

func TestArrayTracking(t *testing.T) {
	rt := New()
	items := rt.ReactiveArray(&[]any{"a", "b", "c"})

	var length int
	lenRuns := 0
	rt.Effect(func() {
		lenRuns++
		length = items.Len()
	})

	var third any
	thirdRuns := 0
	rt.Effect(func() {
		thirdRuns++
		if items.Len() > 2 {
			third = items.At(2)
		} else {
			third = nil
		}
	})

	items.Set(0, "A")
	if lenRuns != 1 || thirdRuns != 1 {
		t.Errorf("Set(0) should not notify length or index 2 readers: %d, %d", lenRuns, thirdRuns)
	}

	items.Append("d")
	if length != 4 {
		t.Errorf("expected length 4, got %d", length)
	}

	items.RemoveAt(0)
	if third != "d" {
		t.Errorf("expected index 2 to be d after RemoveAt(0), got %v", third)
	}

	items.Swap(0, 2)
	if third != "b" {
		t.Errorf("expected index 2 to be b after swap, got %v", third)
	}

	items.Replace("x")
	if length != 1 || third != nil {
		t.Errorf("expected length 1 and no third element, got %d, %v", length, third)
	}
	if got := len(*items.Raw()); got != 1 {
		t.Errorf("raw slice not updated in place, len %d", got)
	}
}

func TestArrayRangeNested(t *testing.T) {
	rt := New()
	items := rt.ReactiveArray(&[]any{
		map[string]any{"done": false},
		map[string]any{"done": true},
	})

	done := 0
	rt.Effect(func() {
		done = 0
		items.Range(func(_ int, v any) bool {
			if v.(*Object).Get("done").(bool) {
				done++
			}
			return true
		})
	})
	if done != 1 {
		t.Fatalf("expected 1 done, got %d", done)
	}

	items.At(0).(*Object).Set("done", true)
	if done != 2 {
		t.Errorf("expected nested write to re-run effect, got %d done", done)
	}
}

func TestGoroutineCheck(t *testing.T) {
	rt := New(WithGoroutineCheck())
	state := rt.Reactive(map[string]any{"a": 1})

	errCh := make(chan any, 1)
	go func() {
		defer func() { errCh <- recover() }()
		state.Set("a", 2)
	}()

	r := <-errCh
	err, ok := r.(error)
	if !ok {
		t.Fatalf("expected panic with error, got %v", r)
	}
	if !rfxerrors.HasCode(err, "R005") {
		t.Errorf("expected R005, got %v", err)
	}

	// The owning goroutine is still fine.
	state.Set("a", 3)
}

func TestGraphReleasesUnreachableTargets(t *testing.T) {
	rt := New()

	func() {
		for i := 0; i < 10; i++ {
			o := rt.Reactive(map[string]any{"i": i})
			_ = o.Get("i")
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for rt.Stats().Targets > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if got := rt.Stats().Targets; got != 0 {
		t.Errorf("expected unreachable targets to be released, %d remain", got)
	}
}
