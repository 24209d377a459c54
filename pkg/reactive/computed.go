package reactive

import (
	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Computed is a cached value derived from reactive reads.
//
// It starts dirty. Get recomputes only while dirty; a change to any
// dependency marks it dirty and notifies its own dependents, once, until
// it is read again. Reading a Computed from an effect makes the effect
// depend on it.
type Computed[T any] struct {
	rt     *Runtime
	effect *Effect
	dep    *Dep

	value     T
	dirty     bool
	computing bool

	eager bool
	job   *Job
}

type computedConfig struct {
	name  string
	eager bool
}

// ComputedOption configures a Computed.
type ComputedOption func(*computedConfig)

// ComputedName names the computed value's effect and refresh job.
func ComputedName(name string) ComputedOption {
	return func(c *computedConfig) {
		c.name = name
	}
}

// EagerRefresh recomputes the value in the first phase of the next flush
// after it is invalidated, before any non-derived job runs.
func EagerRefresh() ComputedOption {
	return func(c *computedConfig) {
		c.eager = true
	}
}

// NewComputed creates a lazy derived value over getter.
func NewComputed[T any](rt *Runtime, getter func() T, opts ...ComputedOption) *Computed[T] {
	var cfg computedConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Computed[T]{
		rt:    rt,
		dirty: true,
		eager: cfg.eager,
	}
	c.dep = &Dep{key: c}

	effectOpts := []EffectOption{WithScheduler(c.invalidate)}
	if cfg.name != "" {
		effectOpts = append(effectOpts, Named(cfg.name))
	}
	c.effect = rt.NewEffect(func() any {
		c.value = getter()
		return c.value
	}, effectOpts...)
	c.effect.computed = true

	if c.eager {
		c.job = NewDerivedJob(c.effect.name, c.refresh)
	}
	return c
}

func (c *Computed[T]) invalidate() {
	if c.dirty {
		return
	}
	c.dirty = true
	c.rt.triggerDeps(c.dep)
	if c.job != nil {
		c.rt.scheduler.Enqueue(c.job)
	}
}

func (c *Computed[T]) refresh() {
	if c.dirty && c.effect.Active() {
		c.rt.Untracked(func() { c.Get() })
	}
}

// Get returns the cached value, recomputing it first when dirty.
// Reading a computed value from its own getter panics with R004.
func (c *Computed[T]) Get() T {
	c.rt.trackDep(c.dep)
	if !c.dirty {
		return c.value
	}
	if c.computing {
		panic(rfxerrors.New("R004").WithDetailf("computed %q", c.effect.name))
	}
	c.computing = true
	defer func() { c.computing = false }()

	c.effect.Run()
	// Only a successful run makes the cache valid.
	c.dirty = false
	return c.value
}

// Value returns Get as an untyped value, making Computed a Valuer.
func (c *Computed[T]) Value() any {
	return c.Get()
}

// Dirty reports whether the next Get will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Stop detaches the computed value from its dependencies. The last value
// stays readable; a dirty stopped value is recomputed without tracking.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
	if c.job != nil {
		c.rt.scheduler.Cancel(c.job)
	}
}

// Effect returns the effect backing the computed value.
func (c *Computed[T]) Effect() *Effect {
	return c.effect
}
