package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit base_url (or export REELFORGE_BASE_URL) to point at the video service.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return emit(cmd, ctx, configView(cfg), func(out io.Writer) error {
				rows := [][]string{
					{"service.base_url", cfg.Service.BaseURL},
					{"service.timeout_seconds", strconv.Itoa(cfg.Service.TimeoutSeconds)},
					{"service.long_timeout_seconds", strconv.Itoa(cfg.Service.LongTimeoutSeconds)},
					{"paths.state_dir", cfg.Paths.StateDir},
					{"paths.log_dir", cfg.Paths.LogDir},
					{"workflow.auto_advance", yesNo(cfg.Workflow.AutoAdvance)},
					{"workflow.advance_delay_ms", strconv.Itoa(cfg.Workflow.AdvanceDelayMsec)},
					{"poller.interval_seconds", strconv.Itoa(cfg.Poller.IntervalSeconds)},
					{"poller.transport_retries", strconv.Itoa(cfg.Poller.TransportRetries)},
					{"assets.default_source", cfg.Assets.DefaultSource},
					{"assets.max_concurrent", strconv.Itoa(cfg.Assets.MaxConcurrent)},
					{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic},
					{"logging.format", cfg.Logging.Format},
					{"logging.level", cfg.Logging.Level},
				}
				fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

// configView flattens the config for structured output.
func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"service": map[string]any{
			"base_url":             cfg.Service.BaseURL,
			"timeout_seconds":      cfg.Service.TimeoutSeconds,
			"long_timeout_seconds": cfg.Service.LongTimeoutSeconds,
		},
		"paths": map[string]any{
			"state_dir": cfg.Paths.StateDir,
			"log_dir":   cfg.Paths.LogDir,
		},
		"workflow": map[string]any{
			"auto_advance":     cfg.Workflow.AutoAdvance,
			"advance_delay_ms": cfg.Workflow.AdvanceDelayMsec,
		},
		"poller": map[string]any{
			"interval_seconds":  cfg.Poller.IntervalSeconds,
			"transport_retries": cfg.Poller.TransportRetries,
		},
		"assets": map[string]any{
			"default_source": cfg.Assets.DefaultSource,
			"max_concurrent": cfg.Assets.MaxConcurrent,
		},
		"notifications": map[string]any{
			"ntfy_topic":      cfg.Notifications.NtfyTopic,
			"request_timeout": cfg.Notifications.RequestTimeout,
			"session_done":    cfg.Notifications.SessionDone,
			"session_failed":  cfg.Notifications.SessionFailed,
			"render_started":  cfg.Notifications.RenderStarted,
		},
		"logging": map[string]any{
			"format": cfg.Logging.Format,
			"level":  cfg.Logging.Level,
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
