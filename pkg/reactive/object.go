package reactive

import (
	"reflect"
	"slices"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Object is an observed map[string]any.
//
// Reads register the active effect on the key read; writes notify the
// dependents of that key. Nested map[string]any and *[]any values are
// returned wrapped.
type Object struct {
	t *target
}

// Reactive returns the wrapper for m, creating it on first use.
// A nil map is replaced by an empty one.
func (rt *Runtime) Reactive(m map[string]any) *Object {
	if m == nil {
		m = make(map[string]any)
	}
	key := uintptr(reflect.ValueOf(m).UnsafePointer())
	if t := rt.graph.lookup(key); t != nil {
		return t.proxy.(*Object)
	}
	t := &target{rt: rt, key: key, m: m, deps: make(map[any]*Dep)}
	o := &Object{t: t}
	t.proxy = o
	rt.graph.insert(t)
	return o
}

// Wrap returns the wrapper for a structured value. Wrappers are returned
// unchanged. Any other value yields an error wrapping ErrNotStructured.
func (rt *Runtime) Wrap(v any) (any, error) {
	switch v := v.(type) {
	case *Object, *Array:
		return v, nil
	case map[string]any:
		return rt.Reactive(v), nil
	case *[]any:
		if v == nil {
			break
		}
		return rt.ReactiveArray(v), nil
	}
	return nil, rfxerrors.New("R001").WithDetailf("cannot observe %T", v).Wrap(ErrNotStructured)
}

// ToReactive wraps structured values and returns everything else unchanged.
func (rt *Runtime) ToReactive(v any) any {
	if w, err := rt.Wrap(v); err == nil {
		return w
	}
	return v
}

// toRaw strips wrappers so raw data never contains them.
func toRaw(v any) any {
	switch v := v.(type) {
	case *Object:
		return v.t.m
	case *Array:
		return v.t.s
	}
	return v
}

// Runtime returns the runtime the object belongs to.
func (o *Object) Runtime() *Runtime {
	return o.t.rt
}

// Get returns the value stored under key, or nil.
func (o *Object) Get(key string) any {
	o.t.rt.track(o.t, key)
	return o.t.rt.ToReactive(o.t.m[key])
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	o.t.rt.track(o.t, key)
	_, ok := o.t.m[key]
	return ok
}

// Set stores v under key and notifies dependents. Writes always notify,
// even when the value is unchanged.
func (o *Object) Set(key string, v any) {
	_, had := o.t.m[key]
	o.t.m[key] = toRaw(v)
	if had {
		o.t.rt.trigger(o.t, key)
	} else {
		o.t.rt.trigger(o.t, key, iterateKey)
	}
}

// Delete removes key. Deleting a missing key does nothing.
func (o *Object) Delete(key string) {
	if _, had := o.t.m[key]; !had {
		return
	}
	delete(o.t.m, key)
	o.t.rt.trigger(o.t, key, iterateKey)
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	o.t.rt.track(o.t, iterateKey)
	keys := make([]string, 0, len(o.t.m))
	for k := range o.t.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.t.rt.track(o.t, iterateKey)
	return len(o.t.m)
}

// Range calls fn for each key in sorted order until fn returns false.
// Every value visited is tracked.
func (o *Object) Range(fn func(key string, v any) bool) {
	for _, k := range o.Keys() {
		if !fn(k, o.Get(k)) {
			return
		}
	}
}

// Raw returns the underlying map. Access through it is not tracked.
func (o *Object) Raw() map[string]any {
	return o.t.m
}
