package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"reelforge/internal/config"
	"reelforge/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStore opens the workspace database and reads the persisted workflow.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Workspace database"
	st, err := store.OpenPath(cfg.StatePath())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.StatePath(), err)}
	}
	defer st.Close()
	state, err := st.LoadWorkflow(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.StatePath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (stage %s)", cfg.StatePath(), state.Stage)}
}

// CheckNotifications reports whether ntfy delivery is configured. It never
// fails the preflight.
func CheckNotifications(cfg *config.Config) Result {
	result := Result{Name: "Notifications", Optional: true}
	if cfg.Notifications.NtfyTopic == "" {
		result.Detail = "not configured"
		return result
	}
	result.Passed = true
	result.Detail = cfg.Notifications.NtfyTopic
	return result
}
