package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Service contains connection settings for the remote video service.
type Service struct {
	BaseURL            string `toml:"base_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	LongTimeoutSeconds int    `toml:"long_timeout_seconds"`
}

// Paths contains local directories used by the CLI.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Workflow contains settings for the manual step-gate workflow.
type Workflow struct {
	AutoAdvance      bool `toml:"auto_advance"`
	AdvanceDelayMsec int  `toml:"advance_delay_ms"`
}

// Poller contains settings for pipeline session polling.
type Poller struct {
	IntervalSeconds  int `toml:"interval_seconds"`
	TransportRetries int `toml:"transport_retries"`
}

// Assets contains defaults for stock-footage lookups.
type Assets struct {
	DefaultSource string `toml:"default_source"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SessionDone    bool   `toml:"session_done"`
	SessionFailed  bool   `toml:"session_failed"`
	RenderStarted  bool   `toml:"render_started"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Service: remote service base URL and the two timeout classes
//   - Paths: workspace state and log directories
//   - Workflow: auto-advance behaviour of the manual stages
//   - Poller: status polling interval and transport retry budget
//   - Assets: default footage source and concurrency bound
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Service       Service       `toml:"service"`
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Poller        Poller        `toml:"poller"`
	Assets        Assets        `toml:"assets"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ShortTimeout bounds metadata, status, and search calls.
func (c *Config) ShortTimeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// LongTimeout bounds generation-class calls that may take minutes.
func (c *Config) LongTimeout() time.Duration {
	return time.Duration(c.Service.LongTimeoutSeconds) * time.Second
}

// PollInterval returns the fixed period between session status fetches.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalSeconds) * time.Second
}

// AdvanceDelay returns how long a completed stage stays visible before auto-advance.
func (c *Config) AdvanceDelay() time.Duration {
	return time.Duration(c.Workflow.AdvanceDelayMsec) * time.Millisecond
}

// StatePath returns the workspace database location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, "reelforge.db")
}

// LogPath returns the CLI log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "reelforge.log")
}

// WatchLockPath returns the lock file guarding the single session watcher.
func (c *Config) WatchLockPath() string {
	return filepath.Join(c.Paths.StateDir, "watch.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
