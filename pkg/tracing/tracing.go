// Package tracing produces OpenTelemetry spans for scheduler flushes and
// renderer patches.
//
// A Tracer is both a reactive.Observer and a vdom.Tracer, so component
// updates run by a flush appear as children of the flush span:
//
//	tr := tracing.New(tracing.WithTracerName("my-app"))
//	rt := reactive.New(reactive.WithObserver(tr))
//	r := vdom.NewRenderer(rt, host, vdom.WithTracer(tr))
//
// Without WithTracerProvider, spans go to the global provider set with
// otel.SetTracerProvider.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
)

// DefaultTracerName is the instrumentation name used when none is set.
const DefaultTracerName = "reflux"

// Config configures a Tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "reflux").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Context is the parent of top-level spans. Default: context.Background().
	Context context.Context
}

// Option configures a Tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.TracerName = name
		}
	}
}

// WithTracerProvider sets the provider the tracer is taken from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithContext sets the parent context of top-level spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// Tracer turns flushes and patches into spans. Like the runtime it observes,
// it must only be used from the runtime's goroutine.
type Tracer struct {
	tracer trace.Tracer
	base   context.Context

	// stack holds the contexts of open spans, innermost last.
	stack []context.Context
	// flushes holds the open flush spans, innermost last.
	flushes []trace.Span
}

var (
	_ reactive.Observer = (*Tracer)(nil)
	_ vdom.Tracer       = (*Tracer)(nil)
)

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	config := Config{
		TracerName: DefaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.Provider != nil {
		tracer = config.Provider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracer{tracer: tracer, base: config.Context}
}

func (t *Tracer) current() context.Context {
	if n := len(t.stack); n > 0 {
		return t.stack[n-1]
	}
	return t.base
}

func (t *Tracer) start(name string, attrs ...attribute.KeyValue) trace.Span {
	ctx, span := t.tracer.Start(t.current(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.stack = append(t.stack, ctx)
	return span
}

func (t *Tracer) pop() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
}

// FlushStarted implements reactive.Observer.
func (t *Tracer) FlushStarted(pending int) {
	span := t.start("reflux.flush", attribute.Int("reflux.pending", pending))
	t.flushes = append(t.flushes, span)
}

// JobFailed implements reactive.Observer.
func (t *Tracer) JobFailed(job string, err error) {
	n := len(t.flushes)
	if n == 0 {
		return
	}
	span := t.flushes[n-1]
	span.RecordError(err, trace.WithAttributes(attribute.String("reflux.job", job)))
	span.SetStatus(codes.Error, fmt.Sprintf("job %s failed", job))
}

// FlushFinished implements reactive.Observer.
func (t *Tracer) FlushFinished(stats reactive.FlushStats) {
	n := len(t.flushes)
	if n == 0 {
		return
	}
	span := t.flushes[n-1]
	t.flushes = t.flushes[:n-1]

	span.SetAttributes(
		attribute.Int("reflux.jobs", stats.Jobs),
		attribute.Int("reflux.derived", stats.Derived),
		attribute.Int("reflux.failed", stats.Failed),
	)
	if stats.Failed == 0 {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	t.pop()
}

// StartPatch implements vdom.Tracer. The span is a child of the innermost
// open flush or patch span.
func (t *Tracer) StartPatch(name string) func() {
	span := t.start("reflux." + name)
	depth := len(t.stack)
	return func() {
		span.End()
		// A panicking patch may leave deeper spans unpopped.
		if len(t.stack) >= depth {
			t.stack = t.stack[:depth-1]
		}
	}
}
