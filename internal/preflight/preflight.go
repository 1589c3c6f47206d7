package preflight

import (
	"context"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name" yaml:"name"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Detail   string `json:"detail" yaml:"detail"`
}

// RunAll executes the workspace checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStore(ctx, cfg),
		CheckNotifications(cfg),
	}
	return results
}
