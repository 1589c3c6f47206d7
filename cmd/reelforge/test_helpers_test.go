package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/testsupport"
)

type cliTestEnv struct {
	svc        *testsupport.FakeService
	configPath string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("REELFORGE_BASE_URL", "")
	t.Setenv("NTFY_TOPIC", "")

	svc := testsupport.NewFakeService(t)
	env := &cliTestEnv{
		svc:        svc,
		configPath: filepath.Join(base, "reelforge.toml"),
		stateDir:   filepath.Join(base, "state"),
	}
	writeTestConfig(t, env.configPath, svc.BaseURL(), env.stateDir, filepath.Join(base, "logs"))
	return env
}

func writeTestConfig(t *testing.T, path, baseURL, stateDir, logDir string) {
	t.Helper()
	content := fmt.Sprintf(`[service]
base_url = %q
timeout_seconds = 5
long_timeout_seconds = 5

[paths]
state_dir = %q
log_dir = %q

[workflow]
auto_advance = true
advance_delay_ms = 0

[poller]
interval_seconds = 1

[logging]
level = "error"
`, baseURL, stateDir, logDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.configPath)
	return out, err
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
