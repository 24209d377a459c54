package reactive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

func startLoop(t *testing.T, l *Loop) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	t.Cleanup(l.Close)
	return errCh
}

func TestLoopDoFlushesBeforeReturning(t *testing.T) {
	rt := New(WithGoroutineCheck())
	l := NewLoop(rt)
	startLoop(t, l)
	ctx := context.Background()

	var state *Object
	var seen []any
	err := l.Do(ctx, func() {
		state = rt.Reactive(map[string]any{"n": 0})
		_, _ = rt.Watch(func() any { return state.Get("n") }, func(n, _ any) {
			seen = append(seen, n)
		})
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if err := l.Do(ctx, func() { state.Set("n", 1) }); err != nil {
		t.Fatalf("Do: %v", err)
	}

	var got []any
	_ = l.Do(ctx, func() { got = append(got, seen...) })
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected watcher flushed within the tick, got %v", got)
	}
}

func TestLoopAfterTick(t *testing.T) {
	rt := New()
	var mu sync.Mutex
	ticks := 0
	l := NewLoop(rt, AfterTick(func() {
		mu.Lock()
		ticks++
		mu.Unlock()
	}))
	startLoop(t, l)

	for i := 0; i < 3; i++ {
		if err := l.Do(context.Background(), func() {}); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if ticks != 3 {
		t.Errorf("expected 3 after-tick calls, got %d", ticks)
	}
}

func TestLoopTaskPanicRecovered(t *testing.T) {
	var buf syncBuffer
	rt := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	l := NewLoop(rt)
	startLoop(t, l)
	ctx := context.Background()

	if err := l.Do(ctx, func() { panic("task failed") }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	ran := false
	if err := l.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("loop stopped after a panicking task")
	}
	if !strings.Contains(buf.String(), "R012") {
		t.Errorf("expected R012 in log, got %q", buf.String())
	}
}

func TestLoopClose(t *testing.T) {
	l := NewLoop(New())
	errCh := startLoop(t, l)

	l.Close()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected nil from Run after Close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	err := l.Post(context.Background(), func() {})
	if !errors.Is(err, ErrLoopClosed) || !rfxerrors.HasCode(err, "R020") {
		t.Errorf("expected closed error, got %v", err)
	}
}

func TestLoopContextCancel(t *testing.T) {
	l := NewLoop(New())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
