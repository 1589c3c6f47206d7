package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reelforge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELFORGE_BASE_URL", "")
	t.Setenv("NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "reelforge")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.StatePath() != filepath.Join(wantState, "reelforge.db") {
		t.Fatalf("unexpected state path: %q", cfg.StatePath())
	}
	if cfg.ShortTimeout() != 30*time.Second {
		t.Fatalf("unexpected short timeout: %s", cfg.ShortTimeout())
	}
	if cfg.LongTimeout() != 5*time.Minute {
		t.Fatalf("unexpected long timeout: %s", cfg.LongTimeout())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.AdvanceDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected advance delay: %s", cfg.AdvanceDelay())
	}
	if !cfg.Workflow.AutoAdvance {
		t.Fatal("expected auto advance enabled by default")
	}
	if cfg.Poller.TransportRetries != 0 {
		t.Fatalf("expected polling to stop on first transport failure by default, got %d", cfg.Poller.TransportRetries)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected ntfy topic empty by default, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELFORGE_BASE_URL", "")

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	cfg := config.Default()
	cfg.Service.BaseURL = "https://factory.example.com/api/"
	cfg.Paths.StateDir = "~/state"
	cfg.Poller.TransportRetries = 3
	cfg.Assets.DefaultSource = "Pixabay"
	cfg.Assets.MaxConcurrent = 4

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if loaded.Service.BaseURL != "https://factory.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", loaded.Service.BaseURL)
	}
	if loaded.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", loaded.Paths.StateDir)
	}
	if loaded.Assets.DefaultSource != "pixabay" {
		t.Fatalf("expected source lowercased, got %q", loaded.Assets.DefaultSource)
	}
	if loaded.Poller.TransportRetries != 3 || loaded.Assets.MaxConcurrent != 4 {
		t.Fatalf("unexpected poller/assets values: %+v %+v", loaded.Poller, loaded.Assets)
	}
}

func TestEnvOverridesBaseURLAndTopic(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REELFORGE_BASE_URL", "http://render-box:9000/api")
	t.Setenv("NTFY_TOPIC", " https://ntfy.sh/reels ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.BaseURL != "http://render-box:9000/api" {
		t.Fatalf("expected env base url, got %q", cfg.Service.BaseURL)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/reels" {
		t.Fatalf("expected trimmed env topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REELFORGE_BASE_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[poller]") {
		t.Fatal("expected sample config to document the poller section")
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "non http base url",
			mutate:  func(c *config.Config) { c.Service.BaseURL = "ftp://example.com" },
			wantErr: "service.base_url",
		},
		{
			name:    "long timeout shorter than short timeout",
			mutate:  func(c *config.Config) { c.Service.LongTimeoutSeconds = 5 },
			wantErr: "service.long_timeout_seconds",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *config.Config) { c.Service.TimeoutSeconds = -1 },
			wantErr: "service.timeout_seconds",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *config.Config) { c.Poller.IntervalSeconds = 0 },
			wantErr: "poller.interval_seconds",
		},
		{
			name:    "negative transport retries",
			mutate:  func(c *config.Config) { c.Poller.TransportRetries = -1 },
			wantErr: "poller.transport_retries",
		},
		{
			name:    "unknown asset source",
			mutate:  func(c *config.Config) { c.Assets.DefaultSource = "vimeo" },
			wantErr: "assets.default_source",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *config.Config) { c.Assets.MaxConcurrent = -2 },
			wantErr: "assets.max_concurrent",
		},
		{
			name:    "advance delay too long",
			mutate:  func(c *config.Config) { c.Workflow.AdvanceDelayMsec = 60_000 },
			wantErr: "workflow.advance_delay_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIsAssetSource(t *testing.T) {
	if !config.IsAssetSource(" NASA ") {
		t.Fatal("expected nasa to be accepted")
	}
	if config.IsAssetSource("vimeo") {
		t.Fatal("did not expect vimeo to be accepted")
	}
}
