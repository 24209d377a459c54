package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reflux/internal/config"
	"github.com/vango-dev/reflux/pkg/metrics"
	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/remote"
	"github.com/vango-dev/reflux/pkg/tracing"
	"github.com/vango-dev/reflux/pkg/vdom"
)

//go:embed static/index.html
var indexHTML []byte

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		addr  string
		tick  time.Duration
		items int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a live board over WebSocket",
		Long: `Run the demo board on a dedicated loop goroutine, mutate it on a
timer and stream every committed batch of host operations to browsers.

Endpoints:
  /          minimal browser client
  /ws        WebSocket op stream (?after=<seq> resumes)
  /ops       current tree as a JSON reset frame
  /healthz   liveness and stream position
  /metrics   Prometheus metrics (when enabled)

Examples:
  reflux serve
  reflux serve --addr=:9000 --tick=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if tick > 0 {
				cfg.Serve.Tick = tick.String()
			}
			if items > 0 {
				cfg.Serve.Items = items
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, newLogger(cfg, os.Stderr), seed)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from reflux.json)")
	cmd.Flags().DurationVar(&tick, "tick", 0, "Interval between mutations (default from reflux.json)")
	cmd.Flags().IntVar(&items, "items", 0, "Initial rows (default from reflux.json)")
	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "Random seed")

	return cmd
}

// server wires a board, its renderer and the op stream together.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	loop     *reactive.Loop
	renderer *vdom.Renderer
	host     *remote.Host
	hub      *remote.Hub
	board    *board
	registry *prometheus.Registry
}

func newServer(cfg *config.Config, logger *slog.Logger, seed uint64) *server {
	s := &server{
		cfg:    cfg,
		logger: logger,
		host:   remote.NewHost(),
	}
	s.hub = remote.NewHub(s.host,
		remote.WithHubLogger(logger),
		remote.WithHistorySize(cfg.Serve.History),
	)

	var observers []reactive.Observer
	rendererOpts := []vdom.RendererOption{vdom.WithRendererLogger(logger)}

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(
			metrics.WithRegistry(s.registry),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)
		observers = append(observers, m)
		rendererOpts = append(rendererOpts, vdom.WithOpObserver(m.ObserveOp))
	}
	if cfg.Tracing.Enabled {
		tr := tracing.New(tracing.WithTracerName(cfg.Tracing.Tracer))
		observers = append(observers, tr)
		rendererOpts = append(rendererOpts, vdom.WithTracer(tr))
	}

	rt := reactive.New(runtimeOptions(cfg, logger, observers...)...)
	s.loop = reactive.NewLoop(rt, reactive.AfterTick(s.hub.Commit))
	s.renderer = vdom.NewRenderer(rt, s.host, rendererOpts...)
	s.board = newBoard(rt, cfg.Serve.Items, seed)
	return s
}

// start runs the loop and mounts the board. The loop stops with ctx.
func (s *server) start(ctx context.Context) error {
	go func() {
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("loop stopped", "error", err)
		}
	}()
	return s.loop.Do(ctx, func() {
		s.renderer.Mount(s.board, nil, s.host.Root())
	})
}

// mutate applies one board step per tick until ctx is done.
func (s *server) mutate(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.loop.Post(ctx, func() {
				what := s.board.Step()
				s.logger.Debug("board step", "step", what)
			})
			if err != nil {
				return
			}
		}
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	r.Handle("/ws", s.hub.Handler(s.loop))
	r.Handle("/ops", s.hub.SnapshotHandler(s.loop))
	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ok"
	select {
	case <-s.loop.Done():
		status, state = http.StatusServiceUnavailable, "stopped"
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  state,
		"seq":     s.hub.Seq(),
		"clients": s.hub.Clients(),
	})
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, seed uint64) error {
	s := newServer(cfg, logger, seed)
	if err := s.start(ctx); err != nil {
		return err
	}
	defer s.loop.Close()
	defer s.hub.Close()

	go s.mutate(ctx, cfg.TickInterval())

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printBanner()
	success("Serving board on http://%s", cfg.Serve.Addr)
	info("mutating every %s, %d rows", cfg.TickInterval(), cfg.Serve.Items)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	info("Shutting down...")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
