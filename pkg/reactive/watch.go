package reactive

import (
	"math"
	"reflect"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Valuer is a watchable source exposing its current value.
// *Computed implements it.
type Valuer interface {
	Value() any
}

// WatchCallback receives the new and previous value of a watched source.
type WatchCallback func(newValue, oldValue any)

// Watcher observes a source and calls its callback through the Scheduler.
type Watcher struct {
	rt     *Runtime
	effect *Effect
	job    *Job
	cb     WatchCallback
	deep   bool

	oldValue any
	// seeded is false until the first evaluation has been recorded.
	seeded bool
}

type watchConfig struct {
	immediate bool
	deep      bool
	name      string
}

// WatchOption configures a Watcher.
type WatchOption func(*watchConfig)

// Immediate calls the callback synchronously during Watch with a nil old value.
func Immediate() WatchOption {
	return func(c *watchConfig) {
		c.immediate = true
	}
}

// Deep traverses the source's value so that any nested change fires the
// callback. Deep is implied for *Object and *Array sources.
func Deep() WatchOption {
	return func(c *watchConfig) {
		c.deep = true
	}
}

// WatchName names the watcher's job.
func WatchName(name string) WatchOption {
	return func(c *watchConfig) {
		c.name = name
	}
}

// Watch observes source and calls cb with (new, old) after it changes.
//
// Sources are *Object, *Array, func() any and Valuer. Without Immediate the
// first evaluation only records the old value. Callbacks always run from a
// scheduler flush, except for the Immediate call.
func (rt *Runtime) Watch(source any, cb WatchCallback, opts ...WatchOption) (*Watcher, error) {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var getter func() any
	switch src := source.(type) {
	case *Object:
		getter = func() any { return src }
		cfg.deep = true
	case *Array:
		getter = func() any { return src }
		cfg.deep = true
	case func() any:
		getter = src
	case Valuer:
		getter = src.Value
	default:
		return nil, rfxerrors.New("R003").
			WithDetailf("cannot watch %T", source).
			Wrap(ErrInvalidWatchSource)
	}
	if getter == nil {
		return nil, rfxerrors.New("R003").WithDetail("nil getter").Wrap(ErrInvalidWatchSource)
	}

	if cfg.deep {
		base := getter
		getter = func() any {
			return Traverse(base())
		}
	}

	w := &Watcher{rt: rt, cb: cb, deep: cfg.deep}

	effectOpts := []EffectOption{WithScheduler(func() { rt.scheduler.Enqueue(w.job) })}
	if cfg.name != "" {
		effectOpts = append(effectOpts, Named(cfg.name))
	}
	w.effect = rt.NewEffect(getter, effectOpts...)
	w.job = NewJob(w.effect.name, w.run)

	if cfg.immediate {
		w.run()
	} else {
		w.oldValue = w.effect.Run()
		w.seeded = true
	}
	return w, nil
}

// WatchFunc watches a typed getter.
func WatchFunc[T any](rt *Runtime, getter func() T, cb func(newValue, oldValue T), opts ...WatchOption) *Watcher {
	w, err := rt.Watch(func() any { return getter() }, func(n, o any) {
		nv, _ := n.(T)
		ov, _ := o.(T)
		cb(nv, ov)
	}, opts...)
	if err != nil {
		// Unreachable: a func() any source is always valid.
		panic(err)
	}
	return w
}

func (w *Watcher) run() {
	newValue := w.effect.Run()
	if w.seeded && !w.deep && !hasChanged(newValue, w.oldValue) {
		return
	}
	oldValue := w.oldValue
	w.oldValue = newValue
	w.seeded = true
	w.cb(newValue, oldValue)
}

// Stop detaches the watcher and cancels its pending job. A job already
// taken by a running flush still runs once.
func (w *Watcher) Stop() {
	w.effect.Stop()
	w.rt.scheduler.Cancel(w.job)
}

// Active reports whether the watcher has not been stopped.
func (w *Watcher) Active() bool {
	return w.effect.Active()
}

// hasChanged compares comparable values with == (NaN equal to NaN) and maps,
// slices and funcs by reference.
func hasChanged(a, b any) bool {
	if a == nil || b == nil {
		return a != b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return true
	}
	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return false
		}
		return fa != fb
	case reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Pointer:
		return va.Pointer() != vb.Pointer()
	case reflect.Slice:
		return va.Pointer() != vb.Pointer() || va.Len() != vb.Len()
	}
	if va.Comparable() && vb.Comparable() {
		return a != b
	}
	return true
}
