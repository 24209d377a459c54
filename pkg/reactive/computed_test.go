package reactive

import (
	"testing"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

func TestComputedBasic(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 5})

	computations := 0
	doubled := NewComputed(rt, func() int {
		computations++
		return state.Get("count").(int) * 2
	})

	if !doubled.Dirty() {
		t.Error("expected new computed to be dirty")
	}

	// First read computes
	if got := doubled.Get(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	// Second read uses cache
	if got := doubled.Get(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}
}

func TestComputedNeverReadNeverRuns(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 0})

	computations := 0
	_ = NewComputed(rt, func() int {
		computations++
		return state.Get("count").(int)
	})

	for i := 1; i <= 20; i++ {
		state.Set("count", i)
	}
	if computations != 0 {
		t.Errorf("expected unread computed never to run, got %d computations", computations)
	}
}

func TestComputedRecomputesOnceAfterManyWrites(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 0})

	computations := 0
	value := NewComputed(rt, func() int {
		computations++
		return state.Get("count").(int)
	})
	_ = value.Get()

	for i := 1; i <= 5; i++ {
		state.Set("count", i)
	}
	if computations != 1 {
		t.Errorf("writes recomputed eagerly: %d computations", computations)
	}

	if got := value.Get(); got != 5 {
		t.Errorf("expected latest value 5, got %d", got)
	}
	if computations != 2 {
		t.Errorf("expected exactly one recomputation, got %d", computations-1)
	}
}

func TestComputedNotifiesDependentsOnlyWhenClean(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"count": 1})
	doubled := NewComputed(rt, func() int {
		return state.Get("count").(int) * 2
	})

	notified := 0
	rt.Effect(func() {
		_ = doubled.Get()
	}, WithScheduler(func() { notified++ }))

	state.Set("count", 2)
	state.Set("count", 3)
	state.Set("count", 4)

	if notified != 1 {
		t.Errorf("expected dirty computed to notify once, got %d", notified)
	}
	if got := doubled.Get(); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}

	state.Set("count", 5)
	if notified != 2 {
		t.Errorf("expected notification after clean read, got %d", notified)
	}
}

func TestComputedChain(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 1})

	plusOne := NewComputed(rt, func() int { return state.Get("n").(int) + 1 })
	timesTen := NewComputed(rt, func() int { return plusOne.Get() * 10 })

	var seen []int
	rt.Effect(func() {
		seen = append(seen, timesTen.Get())
	})

	state.Set("n", 2)

	if len(seen) != 2 || seen[0] != 20 || seen[1] != 30 {
		t.Errorf("expected [20 30], got %v", seen)
	}
}

func TestComputedCycle(t *testing.T) {
	rt := New()

	var c *Computed[int]
	c = NewComputed(rt, func() int { return c.Get() + 1 }, ComputedName("loop"))

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !rfxerrors.HasCode(err, "R004") {
			t.Errorf("expected R004 panic, got %v", r)
		}
		if !c.Dirty() {
			t.Error("failed computation must leave the value dirty")
		}
	}()
	c.Get()
}

func TestComputedEagerRefresh(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 1})

	computations := 0
	c := NewComputed(rt, func() int {
		computations++
		return state.Get("n").(int)
	}, EagerRefresh())
	_ = c.Get()

	var dirtyWhenRendering bool
	render := NewJob("render", func() { dirtyWhenRendering = c.Dirty() })

	rt.Run(func() {
		// Enqueued first, but the derived refresh still runs before it.
		rt.Scheduler().Enqueue(render)
		state.Set("n", 2)
	})

	if computations != 2 {
		t.Errorf("expected eager recomputation, got %d computations", computations)
	}
	if dirtyWhenRendering {
		t.Error("regular job saw a dirty computed value")
	}
}

func TestComputedStop(t *testing.T) {
	rt := New()
	state := rt.Reactive(map[string]any{"n": 1})

	c := NewComputed(rt, func() int { return state.Get("n").(int) })
	_ = c.Get()
	c.Stop()

	state.Set("n", 2)
	if c.Dirty() {
		t.Error("stopped computed was invalidated")
	}
	if got := c.Get(); got != 1 {
		t.Errorf("expected last value 1, got %d", got)
	}
}

func TestComputedAsValuer(t *testing.T) {
	rt := New()
	c := NewComputed(rt, func() string { return "ok" })

	var v Valuer = c
	if v.Value() != "ok" {
		t.Errorf("expected ok, got %v", v.Value())
	}
}
