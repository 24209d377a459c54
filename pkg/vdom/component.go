package vdom

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/reflux/pkg/reactive"
)

// Component is anything that can render a subtree for an Instance.
type Component interface {
	Render(inst *Instance) *Node
}

// ComponentFunc adapts a render function to Component.
type ComponentFunc func(inst *Instance) *Node

// Render implements Component.
func (f ComponentFunc) Render(inst *Instance) *Node {
	return f(inst)
}

// Setuper is implemented by components that prepare state once, before
// the first render. Setup runs untracked.
type Setuper interface {
	Setup(inst *Instance)
}

// Namer is implemented by components that name themselves in logs, job
// names and spans.
type Namer interface {
	Name() string
}

// Instance is a mounted component.
type Instance struct {
	r      *Renderer
	name   string
	comp   Component
	props  Props
	parent *Instance

	// container is where the subtree lives; moves keep the same parent.
	container any

	subTree *Node
	effect  *reactive.Effect
	job     *reactive.Job

	mounted     bool
	unmounted   bool
	needsUpdate bool

	// stoppers end effects and watchers owned by the instance.
	stoppers []func()

	hooks [hookCount][]func()
}

type hook int

const (
	hookBeforeMount hook = iota
	hookMounted
	hookBeforeUpdate
	hookUpdated
	hookUnmounted
	hookCount
)

func componentName(c Component) string {
	if n, ok := c.(Namer); ok {
		return n.Name()
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func (r *Renderer) processComponent(n1, n2 *Node, container, anchor any, parent *Instance) {
	if n1 == nil {
		r.mountComponent(n2, container, anchor, parent)
		return
	}
	r.updateComponent(n1, n2)
}

func (r *Renderer) mountComponent(n *Node, container, anchor any, parent *Instance) {
	inst := &Instance{
		r:         r,
		comp:      n.Comp,
		props:     n.Props,
		parent:    parent,
		container: container,
	}
	inst.name = fmt.Sprintf("%s#%d", componentName(n.Comp), r.nextInstanceID())
	n.instance = inst

	if s, ok := n.Comp.(Setuper); ok {
		r.rt.Untracked(func() { s.Setup(inst) })
	}

	inst.job = reactive.NewJob(inst.name, func() {
		if inst.needsUpdate {
			inst.update()
		}
	})
	inst.effect = r.rt.NewEffect(func() any {
		inst.render(anchor)
		return nil
	},
		reactive.Named(inst.name),
		reactive.WithScheduler(func() {
			inst.needsUpdate = true
			r.rt.Scheduler().Enqueue(inst.job)
		}),
	)

	inst.effect.Run()
	r.logger.Debug("component mounted", "component", inst.name)
}

// updateComponent reuses the instance of n1 for n2. Changed props re-render
// the child synchronously, superseding any update it has queued.
func (r *Renderer) updateComponent(n1, n2 *Node) {
	inst := n1.instance
	n2.instance = inst
	if propsEqual(n1.Props, n2.Props) && sameComponentValue(n1.Comp, n2.Comp) {
		return
	}
	inst.comp = n2.Comp
	inst.props = n2.Props
	r.rt.Scheduler().Cancel(inst.job)
	inst.update()
}

// sameComponentValue reports whether a re-rendered component value carries
// the same configuration. Functions of the same code are treated as equal.
func sameComponentValue(a, b Component) bool {
	if _, ok := a.(ComponentFunc); ok {
		return true
	}
	return valueEqual(a, b)
}

func (r *Renderer) unmountComponent(inst *Instance, remove bool) {
	inst.effect.Stop()
	r.rt.Scheduler().Cancel(inst.job)
	inst.needsUpdate = false
	for _, stop := range inst.stoppers {
		stop()
	}
	inst.stoppers = nil

	r.unmount(inst.subTree, remove)
	inst.unmounted = true
	inst.runHooks(hookUnmounted)
	r.logger.Debug("component unmounted", "component", inst.name)
}

func (r *Renderer) nextInstanceID() uint64 {
	r.instances++
	return r.instances
}

// render is the body of the instance's render effect.
func (inst *Instance) render(anchor any) {
	r := inst.r
	if !inst.mounted {
		inst.runHooks(hookBeforeMount)
		tree := inst.renderTree()
		r.patch(nil, tree, inst.container, anchor, inst)
		inst.subTree = tree
		inst.mounted = true
		inst.runHooks(hookMounted)
		return
	}

	defer r.span("update " + inst.name)()
	inst.runHooks(hookBeforeUpdate)
	next := inst.renderTree()
	prev := inst.subTree
	inst.subTree = next
	r.patch(prev, next, inst.container, nil, inst)
	inst.runHooks(hookUpdated)
}

func (inst *Instance) renderTree() *Node {
	tree := inst.comp.Render(inst)
	if tree == nil {
		// An empty render keeps a placeholder so the instance has a position.
		tree = Comment("")
	}
	return tree
}

func (inst *Instance) update() {
	if inst.unmounted {
		return
	}
	inst.needsUpdate = false
	inst.effect.Run()
}

func (inst *Instance) runHooks(h hook) {
	for _, fn := range inst.hooks[h] {
		fn()
	}
}

// addHook registers fn unless the instance is already mounted, so hooks
// registered from a render function are only taken from the first render.
func (inst *Instance) addHook(h hook, fn func()) {
	if inst.mounted {
		return
	}
	inst.hooks[h] = append(inst.hooks[h], fn)
}

// Name returns the instance name: the component name and a sequence number.
func (inst *Instance) Name() string {
	return inst.name
}

// Props returns the props the component was last rendered with.
func (inst *Instance) Props() Props {
	return inst.props
}

// Parent returns the enclosing component instance, or nil for a root.
func (inst *Instance) Parent() *Instance {
	return inst.parent
}

// Runtime returns the runtime the instance renders in.
func (inst *Instance) Runtime() *reactive.Runtime {
	return inst.r.rt
}

// SubTree returns the tree produced by the last render.
func (inst *Instance) SubTree() *Node {
	return inst.subTree
}

// IsMounted reports whether the first render has completed and the
// instance has not been unmounted.
func (inst *Instance) IsMounted() bool {
	return inst.mounted && !inst.unmounted
}

// Reactive observes m in the instance's runtime.
func (inst *Instance) Reactive(m map[string]any) *reactive.Object {
	return inst.r.rt.Reactive(m)
}

// Effect creates an effect that is stopped when the instance unmounts.
func (inst *Instance) Effect(fn func(), opts ...reactive.EffectOption) *reactive.Effect {
	e := inst.r.rt.Effect(fn, opts...)
	inst.stoppers = append(inst.stoppers, e.Stop)
	return e
}

// Watch creates a watcher that is stopped when the instance unmounts.
func (inst *Instance) Watch(source any, cb reactive.WatchCallback, opts ...reactive.WatchOption) (*reactive.Watcher, error) {
	w, err := inst.r.rt.Watch(source, cb, opts...)
	if err != nil {
		return nil, err
	}
	inst.stoppers = append(inst.stoppers, w.Stop)
	return w, nil
}

// OnCleanup registers fn to run when the instance unmounts, before its
// subtree is torn down.
func (inst *Instance) OnCleanup(fn func()) {
	inst.stoppers = append(inst.stoppers, fn)
}

// Update queues a re-render even if no dependency changed.
func (inst *Instance) Update() {
	if inst.unmounted {
		return
	}
	inst.needsUpdate = true
	inst.r.rt.Scheduler().Enqueue(inst.job)
}

// Lifecycle hooks are registered from Setup or the first render.

// OnBeforeMount registers fn to run before the first render.
func (inst *Instance) OnBeforeMount(fn func()) { inst.addHook(hookBeforeMount, fn) }

// OnMounted registers fn to run after the first render has been inserted.
func (inst *Instance) OnMounted(fn func()) { inst.addHook(hookMounted, fn) }

// OnBeforeUpdate registers fn to run before each re-render.
func (inst *Instance) OnBeforeUpdate(fn func()) { inst.addHook(hookBeforeUpdate, fn) }

// OnUpdated registers fn to run after each re-render has been patched.
func (inst *Instance) OnUpdated(fn func()) { inst.addHook(hookUpdated, fn) }

// OnUnmounted registers fn to run after the instance is torn down.
func (inst *Instance) OnUnmounted(fn func()) { inst.addHook(hookUnmounted, fn) }
