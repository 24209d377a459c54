package reactive

import (
	"slices"
	"unsafe"
)

// Array is an observed *[]any.
//
// Index reads track the index; Len tracks the length; Range tracks the
// iteration as well as each element. Structural changes notify the length,
// the iteration and every index whose element moved.
type Array struct {
	t *target
}

// ReactiveArray returns the wrapper for s, creating it on first use.
// Mutations through the wrapper update *s in place.
func (rt *Runtime) ReactiveArray(s *[]any) *Array {
	key := uintptr(unsafe.Pointer(s))
	if t := rt.graph.lookup(key); t != nil {
		return t.proxy.(*Array)
	}
	t := &target{rt: rt, key: key, s: s, deps: make(map[any]*Dep)}
	a := &Array{t: t}
	t.proxy = a
	rt.graph.insert(t)
	return a
}

// Runtime returns the runtime the array belongs to.
func (a *Array) Runtime() *Runtime {
	return a.t.rt
}

// At returns the element at i. It panics if i is out of range.
func (a *Array) At(i int) any {
	a.t.rt.track(a.t, i)
	return a.t.rt.ToReactive((*a.t.s)[i])
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.t.rt.track(a.t, lengthKey)
	return len(*a.t.s)
}

// Set replaces the element at i. It panics if i is out of range.
func (a *Array) Set(i int, v any) {
	(*a.t.s)[i] = toRaw(v)
	a.t.rt.trigger(a.t, i)
}

// Append adds elements to the end.
func (a *Array) Append(vs ...any) {
	if len(vs) == 0 {
		return
	}
	from := len(*a.t.s)
	for _, v := range vs {
		*a.t.s = append(*a.t.s, toRaw(v))
	}
	a.triggerStructural(from)
}

// Swap exchanges the elements at i and j.
func (a *Array) Swap(i, j int) {
	s := *a.t.s
	s[i], s[j] = s[j], s[i]
	a.t.rt.trigger(a.t, i, j, iterateKey)
}

// RemoveAt deletes the element at i, shifting later elements down.
func (a *Array) RemoveAt(i int) any {
	old := (*a.t.s)[i]
	oldLen := len(*a.t.s)
	*a.t.s = slices.Delete(*a.t.s, i, i+1)
	a.triggerStructural(i, oldLen)
	return a.t.rt.ToReactive(old)
}

// Replace swaps the whole content for vs.
func (a *Array) Replace(vs ...any) {
	oldLen := len(*a.t.s)
	raw := make([]any, len(vs))
	for i, v := range vs {
		raw[i] = toRaw(v)
	}
	*a.t.s = raw
	a.triggerStructural(0, oldLen)
}

// Range calls fn for each element in order until fn returns false.
func (a *Array) Range(fn func(i int, v any) bool) {
	a.t.rt.track(a.t, iterateKey)
	for i := 0; i < a.Len(); i++ {
		if !fn(i, a.At(i)) {
			return
		}
	}
}

// Slice returns a wrapped copy of the elements, tracking each.
func (a *Array) Slice() []any {
	out := make([]any, 0, len(*a.t.s))
	a.Range(func(_ int, v any) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Raw returns the underlying slice pointer. Access through it is not tracked.
func (a *Array) Raw() *[]any {
	return a.t.s
}

// triggerStructural notifies the length, the iteration and each tracked
// index at or above from. The index range ends at the larger of the old and
// new lengths so that readers of removed slots are notified too.
func (a *Array) triggerStructural(from int, oldLen ...int) {
	end := len(*a.t.s)
	for _, n := range oldLen {
		end = max(end, n)
	}
	keys := []any{lengthKey, iterateKey}
	var idx []int
	for k := range a.t.deps {
		if i, ok := k.(int); ok && i >= from && i < end {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	for _, i := range idx {
		keys = append(keys, i)
	}
	a.t.rt.trigger(a.t, keys...)
}
