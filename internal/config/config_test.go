package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/trellis/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scheduler.FrameInterval != DefaultFrameInterval {
		t.Errorf("Scheduler.FrameInterval = %s, want %s", cfg.Scheduler.FrameInterval, DefaultFrameInterval)
	}
	if cfg.Scheduler.MaxUpdatesPerFlush != DefaultMaxUpdatesPerFlush {
		t.Errorf("Scheduler.MaxUpdatesPerFlush = %d, want %d", cfg.Scheduler.MaxUpdatesPerFlush, DefaultMaxUpdatesPerFlush)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics = %+v, want enabled with namespace %q", cfg.Metrics, DefaultNamespace)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", cfg.LogLevel())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trellis.yaml")
	yaml := `scheduler:
  frame_interval: 5ms
  max_updates_per_flush: 7
metrics:
  enabled: false
log:
  level: debug
  format: json
serve:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Scheduler.FrameInterval != 5*time.Millisecond {
		t.Errorf("Scheduler.FrameInterval = %s, want 5ms", cfg.Scheduler.FrameInterval)
	}
	if cfg.Scheduler.MaxUpdatesPerFlush != 7 {
		t.Errorf("Scheduler.MaxUpdatesPerFlush = %d, want 7", cfg.Scheduler.MaxUpdatesPerFlush)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want default", cfg.Metrics.Namespace)
	}
	if cfg.LogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("Serve.Addr = %q, want :9000", cfg.Serve.Addr)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !stderrors.Is(err, errors.New("T100")) {
		t.Errorf("error = %v, want T100", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRELLIS_SCHEDULER_MAX_UPDATES_PER_FLUSH", "10")
	t.Setenv("TRELLIS_SCHEDULER_FRAME_INTERVAL", "40ms")
	t.Setenv("TRELLIS_SERVE_ADDR", "0.0.0.0:1234")

	cfg, err := FromViper(New())
	if err != nil {
		t.Fatalf("FromViper error: %v", err)
	}
	if cfg.Scheduler.MaxUpdatesPerFlush != 10 {
		t.Errorf("Scheduler.MaxUpdatesPerFlush = %d, want 10", cfg.Scheduler.MaxUpdatesPerFlush)
	}
	if cfg.Scheduler.FrameInterval != 40*time.Millisecond {
		t.Errorf("Scheduler.FrameInterval = %s, want 40ms", cfg.Scheduler.FrameInterval)
	}
	if cfg.Serve.Addr != "0.0.0.0:1234" {
		t.Errorf("Serve.Addr = %q", cfg.Serve.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero frame", func(c *Config) { c.Scheduler.FrameInterval = 0 }, "frame_interval"},
		{"zero bound", func(c *Config) { c.Scheduler.MaxUpdatesPerFlush = 0 }, "max_updates_per_flush"},
		{"no namespace", func(c *Config) { c.Metrics.Namespace = "" }, "metrics.namespace"},
		{"no namespace when disabled", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Namespace = ""
		}, ""},
		{"no addr", func(c *Config) { c.Serve.Addr = "" }, "serve.addr"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error mentioning %q", tt.wantErr)
			}
			var te *errors.TrellisError
			if !stderrors.As(err, &te) || te.Code != "T100" {
				t.Errorf("error = %v, want a T100 TrellisError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
