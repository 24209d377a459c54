package reactive

import "fmt"

// Effect is a re-runnable function tracked as a dependent of whatever it
// reads during its most recent run.
//
// Without a scheduler a notified effect re-runs synchronously. With one, the
// scheduler is called instead and decides when to run it.
type Effect struct {
	rt   *Runtime
	id   uint64
	name string

	fn        func() any
	scheduler func()
	onStop    func()
	lazy      bool

	// computed marks effects owned by a Computed; they are notified first.
	computed bool

	// deps is the read-set of the last run, in subscription order.
	deps   []*Dep
	depSet map[*Dep]struct{}

	running bool
	stopped bool
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// Lazy prevents Runtime.Effect from running the effect on creation.
func Lazy() EffectOption {
	return func(e *Effect) {
		e.lazy = true
	}
}

// WithScheduler replaces synchronous re-runs with a call to fn.
func WithScheduler(fn func()) EffectOption {
	return func(e *Effect) {
		e.scheduler = fn
	}
}

// OnStop registers fn to run once when the effect is stopped.
func OnStop(fn func()) EffectOption {
	return func(e *Effect) {
		e.onStop = fn
	}
}

// Named sets a name used in logs and job names.
func Named(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// NewEffect creates an effect without running it.
func (rt *Runtime) NewEffect(fn func() any, opts ...EffectOption) *Effect {
	e := &Effect{
		rt:     rt,
		id:     rt.newID(),
		fn:     fn,
		depSet: make(map[*Dep]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		e.name = fmt.Sprintf("effect-%d", e.id)
	}
	return e
}

// Effect creates an effect and runs it immediately unless Lazy is given.
func (rt *Runtime) Effect(fn func(), opts ...EffectOption) *Effect {
	e := rt.NewEffect(func() any {
		fn()
		return nil
	}, opts...)
	if !e.lazy {
		e.Run()
	}
	return e
}

// ID returns the effect's runtime-unique identifier.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the effect's name.
func (e *Effect) Name() string {
	return e.name
}

// Active reports whether the effect has not been stopped.
func (e *Effect) Active() bool {
	return !e.stopped
}

// IsComputed reports whether the effect backs a Computed.
func (e *Effect) IsComputed() bool {
	return e.computed
}

// Run executes the effect's function with the effect active and returns its
// result. The previous read-set is discarded first and rebuilt by the run.
// A panic in the function propagates after the active effect is restored.
// A stopped effect runs its function without tracking.
func (e *Effect) Run() any {
	e.rt.check()
	if e.stopped {
		prev := e.rt.active
		e.rt.active = nil
		defer func() { e.rt.active = prev }()
		return e.fn()
	}

	e.cleanupDeps()

	prev := e.rt.active
	e.rt.active = e
	e.running = true
	defer func() {
		e.running = false
		e.rt.active = prev
	}()

	return e.fn()
}

// Stop removes the effect from every dependency set. Stop is idempotent.
func (e *Effect) Stop() {
	if e.stopped {
		return
	}
	e.cleanupDeps()
	e.stopped = true
	if e.onStop != nil {
		e.onStop()
	}
}

// DepCount returns the size of the effect's current read-set.
func (e *Effect) DepCount() int {
	return len(e.deps)
}

func (e *Effect) subscribe(d *Dep) {
	if _, ok := e.depSet[d]; ok {
		return
	}
	e.depSet[d] = struct{}{}
	e.deps = append(e.deps, d)
	d.subs = append(d.subs, e)
}

func (e *Effect) cleanupDeps() {
	for _, d := range e.deps {
		d.remove(e)
	}
	e.deps = e.deps[:0]
	clear(e.depSet)
}
