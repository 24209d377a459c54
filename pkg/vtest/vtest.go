package vtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
)

// Harness wires a runtime, a recording host and a renderer around a single
// root container.
type Harness struct {
	t testing.TB

	Runtime  *reactive.Runtime
	Host     *Host
	Renderer *vdom.Renderer
	Root     *Node
}

// HarnessOption configures a Harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	runtime  []reactive.Option
	renderer []vdom.RendererOption
}

// WithRuntimeOptions passes options to reactive.New.
func WithRuntimeOptions(opts ...reactive.Option) HarnessOption {
	return func(c *harnessConfig) {
		c.runtime = append(c.runtime, opts...)
	}
}

// WithRendererOptions passes options to vdom.NewRenderer.
func WithRendererOptions(opts ...vdom.RendererOption) HarnessOption {
	return func(c *harnessConfig) {
		c.renderer = append(c.renderer, opts...)
	}
}

// NewHarness creates a harness. Runtime logs are discarded unless a logger
// is passed with WithRuntimeOptions.
func NewHarness(t testing.TB, opts ...HarnessOption) *Harness {
	t.Helper()
	cfg := harnessConfig{
		runtime: []reactive.Option{
			reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := reactive.New(cfg.runtime...)
	host := New()
	return &Harness{
		t:        t,
		Runtime:  rt,
		Host:     host,
		Renderer: vdom.NewRenderer(rt, host, cfg.renderer...),
		Root:     host.Container("root"),
	}
}

// Render patches n into the root and returns the resulting markup.
func (h *Harness) Render(n *vdom.Node) string {
	h.Renderer.Render(n, h.Root)
	return h.Markup()
}

// Mount mounts c as the root component.
func (h *Harness) Mount(c vdom.Component, props vdom.Props) *vdom.Instance {
	var inst *vdom.Instance
	h.Runtime.Run(func() {
		inst = h.Renderer.Mount(c, props, h.Root)
	})
	return inst
}

// Act runs fn as one task, flushing every update it schedules, and returns
// the operations recorded while doing so.
func (h *Harness) Act(fn func()) []Op {
	h.Host.Reset()
	h.Runtime.Run(fn)
	return h.Host.Ops()
}

// Markup serializes the root's children.
func (h *Harness) Markup() string {
	return Serialize(h.Root)
}

// ExpectMarkup fails the test unless the root serializes to want.
func (h *Harness) ExpectMarkup(want string) {
	h.t.Helper()
	if got := h.Markup(); got != want {
		h.t.Errorf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

// ExpectContains fails the test unless the markup contains s.
func (h *Harness) ExpectContains(s string) {
	h.t.Helper()
	if got := h.Markup(); !strings.Contains(got, s) {
		h.t.Errorf("expected markup to contain %q, got:\n%s", s, truncate(got, 500))
	}
}

// ExpectNotContains fails the test if the markup contains s.
func (h *Harness) ExpectNotContains(s string) {
	h.t.Helper()
	if got := h.Markup(); strings.Contains(got, s) {
		h.t.Errorf("expected markup to not contain %q, got:\n%s", s, truncate(got, 500))
	}
}

// ExpectOps fails the test unless the host recorded exactly n operations
// of kind k since the last Reset.
func (h *Harness) ExpectOps(k vdom.OpKind, n int) {
	h.t.Helper()
	if got := h.Host.Count(k); got != n {
		h.t.Errorf("expected %d %s ops, got %d:\n%s", n, k, got, h.Host.Log())
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
