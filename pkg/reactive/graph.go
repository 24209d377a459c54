package reactive

import (
	"runtime"
	"slices"
	"sync"
	"weak"
)

// depKey identifies dependency sets that are not tied to a single property.
type depKey int

const (
	// iterateKey is read by anything that enumerates keys or elements.
	iterateKey depKey = iota
	// lengthKey is read by Array.Len.
	lengthKey
)

func (k depKey) String() string {
	switch k {
	case iterateKey:
		return "<iterate>"
	case lengthKey:
		return "<length>"
	}
	return "<unknown>"
}

// Dep is the ordered set of effects interested in one (value, key) pair.
type Dep struct {
	// target is nil for deps owned by a Computed.
	target *target
	key    any
	subs   []*Effect
}

func (d *Dep) remove(e *Effect) {
	if i := slices.Index(d.subs, e); i >= 0 {
		d.subs = slices.Delete(d.subs, i, i+1)
	}
	if len(d.subs) == 0 && d.target != nil {
		d.target.dropDep(d)
	}
}

// target is the per-value state behind a wrapper: the raw value, its wrapper
// and its dependency sets keyed by property.
type target struct {
	rt  *Runtime
	key uintptr

	// Exactly one of m and s is set.
	m map[string]any
	s *[]any

	proxy any
	deps  map[any]*Dep
}

func (t *target) dropDep(d *Dep) {
	if t.deps[d.key] == d {
		delete(t.deps, d.key)
	}
}

// graph maps the identity of observed values to their targets. Entries are
// weak: a target only lives as long as its wrapper or a dependent effect
// holds it, and the entry is removed once the target is collected.
type graph struct {
	// mu guards targets; cleanups run on a runtime-owned goroutine.
	mu      sync.Mutex
	targets map[uintptr]weak.Pointer[target]
}

type graphEntry struct {
	key uintptr
	wp  weak.Pointer[target]
}

func newGraph() *graph {
	return &graph{targets: make(map[uintptr]weak.Pointer[target])}
}

func (g *graph) lookup(key uintptr) *target {
	g.mu.Lock()
	defer g.mu.Unlock()
	if wp, ok := g.targets[key]; ok {
		return wp.Value()
	}
	return nil
}

func (g *graph) insert(t *target) {
	wp := weak.Make(t)
	g.mu.Lock()
	g.targets[t.key] = wp
	g.mu.Unlock()
	runtime.AddCleanup(t, g.forget, graphEntry{key: t.key, wp: wp})
}

// forget drops an entry unless the address was reused by a newer target.
func (g *graph) forget(e graphEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.targets[e.key]; ok && cur == e.wp {
		delete(g.targets, e.key)
	}
}

func (g *graph) stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	var s Stats
	for _, wp := range g.targets {
		if t := wp.Value(); t != nil {
			s.Targets++
			s.Deps += len(t.deps)
		}
	}
	return s
}

// track subscribes the active effect to (t, key).
func (rt *Runtime) track(t *target, key any) {
	rt.check()
	e := rt.active
	if e == nil || e.stopped {
		return
	}
	d := t.deps[key]
	if d == nil {
		d = &Dep{target: t, key: key}
		t.deps[key] = d
	}
	e.subscribe(d)
}

// trackDep subscribes the active effect to a target-less dep.
func (rt *Runtime) trackDep(d *Dep) {
	rt.check()
	if e := rt.active; e != nil && !e.stopped {
		e.subscribe(d)
	}
}

// trigger notifies the dependents of the given keys of t.
func (rt *Runtime) trigger(t *target, keys ...any) {
	rt.check()
	deps := make([]*Dep, 0, len(keys))
	for _, k := range keys {
		if d := t.deps[k]; d != nil {
			deps = append(deps, d)
		}
	}
	rt.triggerDeps(deps...)
}

// triggerDeps notifies each distinct subscriber once, effects owned by a
// Computed before all others, each class in subscription order.
func (rt *Runtime) triggerDeps(deps ...*Dep) {
	var computed, others []*Effect
	seen := make(map[*Effect]struct{})
	for _, d := range deps {
		for _, e := range d.subs {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			if e.computed {
				computed = append(computed, e)
			} else {
				others = append(others, e)
			}
		}
	}
	for _, e := range computed {
		rt.notify(e)
	}
	for _, e := range others {
		rt.notify(e)
	}
}

func (rt *Runtime) notify(e *Effect) {
	// An effect writing what it reads is not re-entered.
	if e == rt.active || e.stopped {
		return
	}
	if e.scheduler != nil {
		e.scheduler()
		return
	}
	// Nor is one still on the stack below a nested effect.
	if e.running {
		return
	}
	e.Run()
}
