package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vango-dev/trellis/internal/errors"
)

const (
	// ConfigName is the config file name without extension.
	ConfigName = "trellis"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "TRELLIS"

	// DefaultFrameInterval is the default LoopHost frame period.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultMaxUpdatesPerFlush is the default runaway bound.
	DefaultMaxUpdatesPerFlush = 3

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "trellis"

	// DefaultAddr is the default demo server address.
	DefaultAddr = "localhost:8080"
)

// Config is the complete runtime configuration.
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Serve     ServeConfig     `mapstructure:"serve"`

	// path is the file the config was read from, if any.
	path string
}

// SchedulerConfig configures the update scheduler.
type SchedulerConfig struct {
	// FrameInterval is the frame period of the loop host.
	FrameInterval time.Duration `mapstructure:"frame_interval"`

	// MaxUpdatesPerFlush bounds how often one updatable may run in a
	// single flush before it is dropped as a runaway.
	MaxUpdatesPerFlush int `mapstructure:"max_updates_per_flush"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig configures slog output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// ServeConfig configures the demo server.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// New returns a viper instance with defaults and environment overrides set
// up. Callers may bind flags to it before calling FromViper.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("scheduler.frame_interval", DefaultFrameInterval)
	v.SetDefault("scheduler.max_updates_per_flush", DefaultMaxUpdatesPerFlush)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultNamespace)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", DefaultAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the defaults with environment overrides applied.
func Default() *Config {
	cfg, err := FromViper(New())
	if err != nil {
		return &Config{
			Scheduler: SchedulerConfig{
				FrameInterval:      DefaultFrameInterval,
				MaxUpdatesPerFlush: DefaultMaxUpdatesPerFlush,
			},
			Metrics: MetricsConfig{Enabled: true, Namespace: DefaultNamespace},
			Log:     LogConfig{Level: "info", Format: "text"},
			Serve:   ServeConfig{Addr: DefaultAddr},
		}
	}
	return cfg
}

// Load reads the config file at path. With an empty path it looks for
// trellis.* in the working directory and falls back to defaults when none
// exists.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.New("T100").
				WithDetail(fmt.Sprintf("reading %s", describe(path))).
				Wrap(err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.path = v.ConfigFileUsed()
	return cfg, nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("T100").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the config was read from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch {
	case c.Scheduler.FrameInterval <= 0:
		return invalid("scheduler.frame_interval must be positive, got %s", c.Scheduler.FrameInterval)
	case c.Scheduler.MaxUpdatesPerFlush < 1:
		return invalid("scheduler.max_updates_per_flush must be at least 1, got %d", c.Scheduler.MaxUpdatesPerFlush)
	case c.Metrics.Enabled && c.Metrics.Namespace == "":
		return invalid("metrics.namespace is required when metrics are enabled")
	case c.Serve.Addr == "":
		return invalid("serve.addr is required")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("%v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", s)
	}
	return level, nil
}

func invalid(format string, args ...any) error {
	return errors.New("T100").
		WithDetail(fmt.Sprintf(format, args...)).
		WithSuggestion("Check trellis.yaml and TRELLIS_ environment variables.")
}

func describe(path string) string {
	if path == "" {
		return ConfigName + " config"
	}
	return path
}
