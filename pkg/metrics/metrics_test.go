package metrics

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
	"github.com/vango-dev/reflux/pkg/vtest"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func newRuntime(c *Collector) *reactive.Runtime {
	return reactive.New(
		reactive.WithObserver(c),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestCollectorRecordsFlushes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))
	rt := newRuntime(c)

	rt.Run(func() {
		s := rt.Scheduler()
		s.Enqueue(reactive.NewJob("a", func() {}))
		s.Enqueue(reactive.NewDerivedJob("d", func() {}))
		s.Enqueue(reactive.NewJob("bad", func() { panic("boom") }))
	})

	if got := counterValue(t, c.flushes); got != 1 {
		t.Errorf("flushes: expected 1, got %v", got)
	}
	if got := gaugeValue(t, c.pending); got != 3 {
		t.Errorf("pending: expected 3, got %v", got)
	}
	if got := counterValue(t, c.jobs.WithLabelValues("render")); got != 2 {
		t.Errorf("render jobs: expected 2, got %v", got)
	}
	if got := counterValue(t, c.jobs.WithLabelValues("derived")); got != 1 {
		t.Errorf("derived jobs: expected 1, got %v", got)
	}
	if got := counterValue(t, c.jobFailures.WithLabelValues("bad")); got != 1 {
		t.Errorf("failures: expected 1, got %v", got)
	}
	if got := histogramCount(t, c.flushDuration); got != 1 {
		t.Errorf("duration samples: expected 1, got %d", got)
	}
}

func TestCollectorCountsHostOps(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))
	rt := newRuntime(c)
	h := vtest.New()
	r := vdom.NewRenderer(rt, h, vdom.WithOpObserver(c.ObserveOp))

	r.Render(vdom.Ul(vdom.Li("a"), vdom.Li("b")), h.Container("root"))

	want := map[vdom.OpKind]float64{
		vdom.OpCreateElement: 3,
		vdom.OpCreateText:    2,
		vdom.OpInsert:        5,
		vdom.OpRemove:        0,
	}
	for k, n := range want {
		if got := counterValue(t, c.hostOps.WithLabelValues(k.String())); got != n {
			t.Errorf("%s: expected %v, got %v", k, n, got)
		}
	}
}

func TestCollectorRegistersUnderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg), WithNamespace("app"), WithSubsystem("ui"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{
		"app_ui_flushes_total",
		"app_ui_jobs_total",
		"app_ui_host_ops_total",
		"app_ui_flush_pending_jobs",
	} {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}
