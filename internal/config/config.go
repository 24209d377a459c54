package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/reflux/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reflux.json"

	// DefaultAddr is the default demo server listen address.
	DefaultAddr = "localhost:8080"

	// DefaultTick is the default interval between demo mutations.
	DefaultTick = time.Second

	// DefaultHistory is the default number of op frames kept for replay.
	DefaultHistory = 256

	// DefaultItems is the default size of the demo's keyed list.
	DefaultItems = 6

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "reflux"
)

// Config represents the complete reflux.json configuration.
type Config struct {
	Log     LogConfig     `json:"log"`
	Runtime RuntimeConfig `json:"runtime"`
	Serve   ServeConfig   `json:"serve"`
	Metrics MetricsConfig `json:"metrics"`
	Tracing TracingConfig `json:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig configures the slog handler built by the CLI.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// RuntimeConfig configures reactive runtimes created by the CLI.
type RuntimeConfig struct {
	// GoroutineCheck panics when a runtime is touched off its owning goroutine.
	GoroutineCheck bool `json:"goroutineCheck"`
}

// ServeConfig configures the demo server.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Tick is the interval between demo mutations (Go duration string).
	Tick string `json:"tick,omitempty"`

	// History is the number of op frames replayed to new subscribers.
	History int `json:"history,omitempty"`

	// Items is the number of rows in the demo's keyed list.
	Items int `json:"items,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool   `json:"enabled"`
	Tracer  string `json:"tracer,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Runtime: RuntimeConfig{
			GoroutineCheck: true,
		},
		Serve: ServeConfig{
			Addr:    DefaultAddr,
			Tick:    DefaultTick.String(),
			History: DefaultHistory,
			Items:   DefaultItems,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
			Path:      "/metrics",
		},
		Tracing: TracingConfig{
			Tracer: "reflux",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reflux.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C002").
			WithDetail("Failed to parse " + path + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns defaults otherwise.
// Parse and validation errors are still reported.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if errors.HasCode(err, "C001") {
		return New(), nil
	}
	return cfg, err
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C002").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.Tick == "" {
		c.Serve.Tick = DefaultTick.String()
	}
	if c.Serve.History == 0 {
		c.Serve.History = DefaultHistory
	}
	if c.Serve.Items == 0 {
		c.Serve.Items = DefaultItems
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Tracer == "" {
		c.Tracing.Tracer = "reflux"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("C003").
			WithDetailf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("C003").
			WithDetailf("log.format %q must be text or json", c.Log.Format)
	}
	tick, err := time.ParseDuration(c.Serve.Tick)
	if err != nil || tick <= 0 {
		return errors.New("C003").
			WithDetailf("serve.tick %q must be a positive duration", c.Serve.Tick)
	}
	if c.Serve.History < 0 {
		return errors.New("C003").WithDetail("serve.history must not be negative")
	}
	if c.Serve.Items < 0 {
		return errors.New("C003").WithDetail("serve.items must not be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("C003").
			WithDetailf("metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}

// TickInterval returns the parsed serve.tick duration.
func (c *Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Serve.Tick)
	if err != nil || d <= 0 {
		return DefaultTick
	}
	return d
}

// LogLevel returns the slog level for log.level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
