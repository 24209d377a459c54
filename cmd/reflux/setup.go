package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/reflux/internal/config"
	rfxerrors "github.com/vango-dev/reflux/internal/errors"
	"github.com/vango-dev/reflux/pkg/reactive"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	logLevel   string
}

// load reads the configuration, falling back to defaults when the file does
// not exist, and applies flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.ConfigFileName
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the slog handler named by the configuration.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// runtimeOptions translates the configuration into runtime options.
func runtimeOptions(cfg *config.Config, logger *slog.Logger, obs ...reactive.Observer) []reactive.Option {
	opts := []reactive.Option{reactive.WithLogger(logger)}
	if cfg.Runtime.GoroutineCheck {
		opts = append(opts, reactive.WithGoroutineCheck())
	}
	if len(obs) > 0 {
		opts = append(opts, reactive.WithObserver(reactive.Observers(obs...)))
	}
	return opts
}

func usageError(format string, args ...any) error {
	return rfxerrors.Newf(rfxerrors.CategoryCLI, format, args...)
}
