package reactive

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// DefaultLoopQueueSize is the default capacity of a Loop's task queue.
const DefaultLoopQueueSize = 256

// Loop hosts a Runtime on a single goroutine. Other goroutines hand it work
// with Post or Do; each task runs as one tick, so every mutation it makes is
// flushed before the next task starts.
type Loop struct {
	rt        *Runtime
	logger    *slog.Logger
	tasks     chan loopTask
	afterTick []func()

	done      chan struct{}
	closeOnce sync.Once
}

type loopTask struct {
	fn   func()
	done chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// LoopQueueSize sets the task queue capacity.
func LoopQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan loopTask, n)
		}
	}
}

// AfterTick registers fn to run on the loop goroutine after every task's
// microtasks have drained.
func AfterTick(fn func()) LoopOption {
	return func(l *Loop) {
		l.afterTick = append(l.afterTick, fn)
	}
}

// NewLoop creates a loop for rt. The loop does nothing until Run is called.
func NewLoop(rt *Runtime, opts ...LoopOption) *Loop {
	l := &Loop{
		rt:     rt,
		logger: rt.Logger().With("component", "loop"),
		tasks:  make(chan loopTask, DefaultLoopQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Runtime returns the hosted runtime.
func (l *Loop) Runtime() *Runtime {
	return l.rt
}

// Run binds the runtime to the calling goroutine and processes tasks until
// ctx is cancelled or Close is called. It returns ctx.Err() on cancellation
// and nil after Close.
func (l *Loop) Run(ctx context.Context) error {
	l.rt.Bind()
	for {
		select {
		case t := <-l.tasks:
			l.execute(t)

		case <-ctx.Done():
			return ctx.Err()

		case <-l.done:
			return nil
		}
	}
}

// Post queues fn to run on the loop. It blocks only while the queue is full.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	return l.post(ctx, loopTask{fn: fn})
}

// Do runs fn on the loop and waits until its tick, including the flush it
// caused, has finished.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := loopTask{fn: fn, done: make(chan struct{})}
	if err := l.post(ctx, t); err != nil {
		return err
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return closedError()
	}
}

func (l *Loop) post(ctx context.Context, t loopTask) error {
	select {
	case <-l.done:
		return closedError()
	default:
	}
	select {
	case l.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return closedError()
	}
}

// Close stops the loop. Tasks still queued are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) execute(t loopTask) {
	if t.done != nil {
		defer close(t.done)
	}

	l.safely("task", func() { l.rt.Run(t.fn) })
	// A panicking task leaves its microtasks queued.
	l.safely("drain", l.rt.Tick)
	for _, fn := range l.afterTick {
		l.safely("after tick", fn)
	}
}

func (l *Loop) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := panicError("R012", what, r)
			l.logger.Error("loop panic",
				"error", err,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

func closedError() error {
	return rfxerrors.New("R020").Wrap(ErrLoopClosed)
}
