package reactive

import (
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/petermattis/goid"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Runtime is the execution context for reactive primitives.
//
// A Runtime is not safe for concurrent use. All reads, writes, effect runs
// and flushes must happen on one goroutine at a time; use a Loop when other
// goroutines need to reach it.
type Runtime struct {
	logger   *slog.Logger
	observer Observer

	// active is the effect whose reads are currently being tracked.
	active *Effect

	graph     *graph
	scheduler *Scheduler

	microtasks []func()
	draining   bool

	checkGoroutine bool
	owner          atomic.Int64

	nextID uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for recovered panics and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithObserver registers an Observer for scheduler flushes.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// WithGoroutineCheck makes the runtime panic with R005 when it is used from
// a goroutine other than the one it is bound to. The runtime binds to the
// goroutine calling New; Bind and Loop.Run rebind it.
func WithGoroutineCheck() Option {
	return func(rt *Runtime) {
		rt.checkGoroutine = true
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:   slog.Default(),
		observer: NopObserver{},
		graph:    newGraph(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.scheduler = newScheduler(rt)
	rt.Bind()
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Scheduler returns the runtime's batched job queue.
func (rt *Runtime) Scheduler() *Scheduler {
	return rt.scheduler
}

// Bind makes the calling goroutine the owner of the runtime.
func (rt *Runtime) Bind() {
	rt.owner.Store(goid.Get())
}

// check enforces goroutine confinement when enabled.
func (rt *Runtime) check() {
	if !rt.checkGoroutine {
		return
	}
	owner := rt.owner.Load()
	if gid := goid.Get(); owner != 0 && gid != owner {
		panic(rfxerrors.New("R005").
			WithDetailf("runtime is bound to goroutine %d, called from goroutine %d", owner, gid))
	}
}

func (rt *Runtime) newID() uint64 {
	rt.nextID++
	return rt.nextID
}

// Run executes fn as one task and then drains the microtask queue, which
// includes any scheduler flush the task caused. A panic in fn propagates to
// the caller and leaves queued microtasks for the next Tick.
func (rt *Runtime) Run(fn func()) {
	rt.check()
	fn()
	rt.Tick()
}

// Tick drains the microtask queue until it is empty. Microtasks queued while
// draining run in the same Tick. Calling Tick from inside a microtask is a no-op.
func (rt *Runtime) Tick() {
	rt.check()
	if rt.draining {
		return
	}
	rt.draining = true
	defer func() { rt.draining = false }()

	for len(rt.microtasks) > 0 {
		fn := rt.microtasks[0]
		rt.microtasks[0] = nil
		rt.microtasks = rt.microtasks[1:]
		rt.runMicrotask(fn)
	}
	rt.microtasks = nil
}

func (rt *Runtime) runMicrotask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := panicError("R011", "microtask", r)
			rt.logger.Error("microtask panic",
				"error", err,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// QueueMicrotask defers fn until the current task finishes.
func (rt *Runtime) QueueMicrotask(fn func()) {
	rt.check()
	rt.microtasks = append(rt.microtasks, fn)
}

// PendingMicrotasks returns the number of queued microtasks.
func (rt *Runtime) PendingMicrotasks() int {
	return len(rt.microtasks)
}

// Untracked runs fn with dependency tracking disabled.
func (rt *Runtime) Untracked(fn func()) {
	prev := rt.active
	rt.active = nil
	defer func() { rt.active = prev }()
	fn()
}

// ActiveEffect returns the effect currently tracking reads, or nil.
func (rt *Runtime) ActiveEffect() *Effect {
	return rt.active
}

// Stats describes the live size of the dependency graph.
type Stats struct {
	// Targets is the number of observed values still reachable.
	Targets int

	// Deps is the number of (value, key) dependency sets across those targets.
	Deps int
}

// Stats reports the current size of the dependency graph.
func (rt *Runtime) Stats() Stats {
	return rt.graph.stats()
}
