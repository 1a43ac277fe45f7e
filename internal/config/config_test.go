package config

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadBootstrapsDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activitywatch", "aw-watcher-network", FileName)

	cfg, err := Load(path, discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollingInterval != 10 {
		t.Fatalf("expected default interval 10, got %d", cfg.PollingInterval)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	if !strings.Contains(string(raw), "polling_interval = 10") {
		t.Fatalf("unexpected default content %q", raw)
	}

	// A second load must reuse the file rather than rewrite it.
	if err := os.WriteFile(path, []byte("polling_interval = 45\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	cfg, err = Load(path, discardLogger())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.PollingInterval != 45 {
		t.Fatalf("expected 45, got %d", cfg.PollingInterval)
	}
}

func TestLoadClampsInterval(t *testing.T) {
	tests := []struct {
		configured int64
		want       int64
	}{
		{configured: -5, want: 10},
		{configured: 0, want: 10},
		{configured: 9, want: 10},
		{configured: 10, want: 10},
		{configured: 11, want: 11},
		{configured: 300, want: 300},
		{configured: MaxPollingInterval, want: MaxPollingInterval},
		{configured: 10_000_000_000, want: MaxPollingInterval},
		{configured: math.MaxInt64, want: MaxPollingInterval},
	}

	for _, tt := range tests {
		path := writeConfig(t, "polling_interval = "+strconv.FormatInt(tt.configured, 10)+"\n")
		cfg, err := Load(path, discardLogger())
		if err != nil {
			t.Fatalf("load %d: %v", tt.configured, err)
		}
		if cfg.PollingInterval != tt.want {
			t.Fatalf("configured %d: expected %d, got %d", tt.configured, tt.want, cfg.PollingInterval)
		}
		if cfg.Interval() != time.Duration(tt.want)*time.Second || cfg.Interval() < 10*time.Second {
			t.Fatalf("configured %d: unexpected duration %v", tt.configured, cfg.Interval())
		}
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing", content: "metrics_addr = \"localhost:9100\"\n"},
		{name: "string", content: "polling_interval = \"ten\"\n"},
		{name: "float", content: "polling_interval = 10.5\n"},
		{name: "malformed", content: "polling_interval = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), discardLogger())
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := Load(writeConfig(t, "strict_registration = false\n"), discardLogger())
	if !errors.Is(err, ErrMissingInterval) {
		t.Fatalf("expected ErrMissingInterval, got %v", err)
	}
}

func TestLoadOptionalKeys(t *testing.T) {
	path := writeConfig(t, `
polling_interval = 30
strict_registration = false
metrics_addr = "127.0.0.1:9101"
server_host = "aw.local"
`)
	cfg, err := Load(path, discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StrictRegistration {
		t.Fatal("expected strict_registration=false")
	}
	if cfg.MetricsAddr != "127.0.0.1:9101" || cfg.ServerHost != "aw.local" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	_, err = Load(writeConfig(t, "polling_interval = 30\nmetrics_addr = \"not an address\"\n"), discardLogger())
	if err == nil {
		t.Fatal("expected invalid metrics_addr to be rejected")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "polling_interval = 20\n"), discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.StrictRegistration || cfg.ServerHost != "localhost" || cfg.MetricsAddr != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestBootstrapUncreatableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Bootstrap(filepath.Join(blocker, "sub", FileName)); err == nil {
		t.Fatal("expected error when a parent path is a file")
	}
}

func TestEnvApplyAndPath(t *testing.T) {
	dir := t.TempDir()
	env := Env{ConfigDir: dir, ServerHost: "remote", GoogleAPIKey: "key"}

	path, err := env.Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected path %s", path)
	}

	cfg := &Config{ServerHost: "localhost"}
	env.Apply(cfg)
	if cfg.ServerHost != "remote" || cfg.GoogleAPIKey != "key" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}
