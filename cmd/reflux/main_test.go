package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/vango-dev/reflux/internal/config"
	rfxerrors "github.com/vango-dev/reflux/internal/errors"
	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/remote"
	"github.com/vango-dev/reflux/pkg/vdom"
	"github.com/vango-dev/reflux/pkg/vtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiffCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		summary string
		markup  string
	}{
		{
			name:    "moves",
			args:    []string{"a,b,c,d,e", "a,c,b,e,d"},
			summary: "2 ops: 0 created, 0 removed, 2 moved",
			markup:  "<ul><li>a</li><li>c</li><li>b</li><li>e</li><li>d</li></ul>",
		},
		{
			name:    "replace",
			args:    []string{"a,b,c", "a, x ,c"},
			summary: "5 ops: 1 created, 1 removed, 0 moved",
			markup:  "<ul><li>a</li><li>x</li><li>c</li></ul>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := diffCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if !strings.Contains(out.String(), tt.summary+"\n"+tt.markup) {
				t.Errorf("unexpected output:\n%s", out.String())
			}
		})
	}
}

func TestDiffRejectsDuplicateKeys(t *testing.T) {
	cmd := diffCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"a,a", "a"})

	err := cmd.Execute()
	var rerr *rfxerrors.Error
	if !errors.As(err, &rerr) || rerr.Category != rfxerrors.CategoryCLI {
		t.Fatalf("expected a CLI error, got %v", err)
	}
	if !strings.Contains(rerr.Message, `duplicate key "a"`) {
		t.Errorf("unexpected message %q", rerr.Message)
	}
}

func TestLisCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := lisCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(strings.Fields("2 3 1 5 6 8 7 9 4"))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := "positions: [0 1 3 4 6 7]\nvalues:    [2 3 5 6 7 9]\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestLisRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{{"x"}, {"1", "-2"}} {
		cmd := lisCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestBoardTotalFollowsRows(t *testing.T) {
	rt := reactive.New(reactive.WithLogger(discardLogger()))
	host := vtest.New()
	root := host.Container("root")
	r := vdom.NewRenderer(rt, host)
	b := newBoard(rt, 5, 7)

	rt.Run(func() { r.Mount(b, nil, root) })
	for range 50 {
		rt.Run(func() { b.Step() })

		sum := 0
		for _, row := range *b.rows.Raw() {
			sum += row.(map[string]any)["score"].(int)
		}
		if got := b.total.Get(); got != sum {
			t.Fatalf("total %d, want %d", got, sum)
		}
		markup := vtest.Serialize(root)
		if !strings.Contains(markup, "total "+strconv.Itoa(sum)) {
			t.Fatalf("rendered total out of date: %s", markup)
		}
		if n := strings.Count(markup, "<li"); n != len(*b.rows.Raw()) {
			t.Fatalf("rendered %d rows, have %d", n, len(*b.rows.Raw()))
		}
	}
}

func TestServerRoutes(t *testing.T) {
	cfg := config.New()
	cfg.Serve.Items = 3
	s := newServer(cfg, discardLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.start(ctx); err != nil {
		t.Fatalf("start() error: %v", err)
	}
	defer s.loop.Close()

	srv := httptest.NewServer(s.routes())
	defer srv.Close()
	defer s.hub.Close()

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var body struct {
			Status string `json:"status"`
			Seq    uint64 `json:"seq"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Seq != 1 {
			t.Errorf("unexpected health %d %+v", resp.StatusCode, body)
		}
	})

	t.Run("ops", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ops")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		f, err := remote.DecodeFrame(data)
		if err != nil {
			t.Fatal(err)
		}
		if !f.Reset || len(f.Ops) == 0 {
			t.Errorf("unexpected snapshot %+v", f)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		if err := s.loop.Do(ctx, func() { s.board.Step() }); err != nil {
			t.Fatal(err)
		}
		resp, err := http.Get(srv.URL + cfg.Metrics.Path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		for _, name := range []string{"reflux_flushes_total", "reflux_host_ops_total", "go_goroutines"} {
			if !strings.Contains(string(data), name) {
				t.Errorf("metric %s missing", name)
			}
		}
	})

	t.Run("index", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("unexpected content type %q", ct)
		}
	})
}
